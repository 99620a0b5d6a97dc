package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akozyrev/stocktake/internal/middleware"
	"github.com/akozyrev/stocktake/internal/models"
)

// InventoryService defines the interface for inventory operations
// required by the HTTP handlers.
type InventoryService interface {
	Search(ctx context.Context, query string) (*models.InventoryItem, error)
	Get(ctx context.Context, id int64) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Add(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error)
	Update(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error)
	Delete(ctx context.Context, user *models.User, id int64) error
}

// InventoryHandler handles HTTP requests for product lookup and
// item management.
type InventoryHandler struct {
	InventoryService InventoryService
}

// Search handles barcode lookups. The query parameter is matched
// against both barcode and SKU.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	item, err := h.InventoryService.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": item,
	})
}

// List returns every inventory item.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.InventoryService.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
	})
}

// Get returns a single item by id.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.InventoryService.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// ItemRequest represents the JSON payload for creating or updating
// an inventory item.
type ItemRequest struct {
	Name             string `json:"name"`
	SKU              string `json:"sku"`
	Barcode          string `json:"barcode"`
	Category         string `json:"category"`
	Location         string `json:"location"`
	ExpectedQuantity int    `json:"expected_quantity"`
	ActualQuantity   int    `json:"actual_quantity"`
}

func (req ItemRequest) item() models.InventoryItem {
	return models.InventoryItem{
		Name:             req.Name,
		SKU:              req.SKU,
		Barcode:          req.Barcode,
		Category:         req.Category,
		Location:         req.Location,
		ExpectedQuantity: req.ExpectedQuantity,
		ActualQuantity:   req.ActualQuantity,
	}
}

// Add creates a new inventory item. Requires the admin or manager
// role; the SKU must be unique.
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.SKU == "" {
		writeFailure(w, http.StatusBadRequest, "name and sku are required")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if _, err := h.InventoryService.Add(r.Context(), user, req.item()); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Item added successfully",
	})
}

// Update replaces an item's fields. Requires the admin or manager role.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.SKU == "" {
		writeFailure(w, http.StatusBadRequest, "name and sku are required")
		return
	}

	item := req.item()
	item.ID = id

	user := middleware.GetUserFromContext(r.Context())
	if _, err := h.InventoryService.Update(r.Context(), user, item); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Item updated successfully",
	})
}

// Delete removes an item. Requires the admin role.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid item id")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if err := h.InventoryService.Delete(r.Context(), user, id); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Item deleted successfully",
	})
}

func itemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
