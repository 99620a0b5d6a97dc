// Package service provides business logic for inventory lookup, audit
// sessions, preferences, and authentication, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akozyrev/stocktake/internal/models"
)

// InventoryRepository defines the persistence operations needed by the
// InventoryService.
type InventoryRepository interface {
	// FindByCode looks up an item by barcode or SKU.
	// Returns sql.ErrNoRows when nothing matches.
	FindByCode(ctx context.Context, code string) (*models.InventoryItem, error)
	// GetByID fetches a single item by id.
	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	// List returns every item.
	List(ctx context.Context) ([]models.InventoryItem, error)
	// ExistsBySKU reports whether an item with the SKU is stored.
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	// Create inserts a new item and returns it with its id.
	Create(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error)
	// Update overwrites an existing item.
	Update(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error)
	// Delete removes an item.
	Delete(ctx context.Context, id int64) error
}

// InventoryService implements product lookup and role-gated item
// management.
type InventoryService struct {
	repo InventoryRepository
}

// NewInventoryService constructs an InventoryService with the provided
// repository.
func NewInventoryService(repo InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// Search resolves a barcode or SKU to its product record. An empty
// query is rejected before any store access.
func (s *InventoryService) Search(ctx context.Context, query string) (*models.InventoryItem, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}
	item, err := s.repo.FindByCode(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get fetches a single item by id.
func (s *InventoryService) Get(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// List returns all inventory items.
func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	return s.repo.List(ctx)
}

func canManageItems(user *models.User) bool {
	return user.Role == models.RoleAdmin || user.Role == models.RoleManager
}

// Add creates a new item. Admins and managers only; duplicate SKUs are
// rejected.
func (s *InventoryService) Add(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error) {
	if !canManageItems(user) {
		return nil, ErrPermission
	}
	exists, err := s.repo.ExistsBySKU(ctx, item.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSKUExists
	}
	return s.repo.Create(ctx, item)
}

// Update overwrites an item. Admins and managers only.
func (s *InventoryService) Update(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error) {
	if !canManageItems(user) {
		return nil, ErrPermission
	}
	updated, err := s.repo.Update(ctx, item)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

// Delete removes an item. Admins only.
func (s *InventoryService) Delete(ctx context.Context, user *models.User, id int64) error {
	if user.Role != models.RoleAdmin {
		return ErrPermission
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
