package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akozyrev/stocktake/internal/models"
)

// PostgresInventoryRepository implements inventory persistence against a PostgreSQL database.
type PostgresInventoryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository using the provided *sql.DB.
func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{DB: db}
}

const itemColumns = `id, name, sku, COALESCE(barcode, ''), COALESCE(category, ''),
       COALESCE(location, ''), expected_quantity, actual_quantity, last_updated`

func scanItem(row interface{ Scan(...any) error }) (*models.InventoryItem, error) {
	var it models.InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.SKU, &it.Barcode, &it.Category,
		&it.Location, &it.ExpectedQuantity, &it.ActualQuantity, &it.LastUpdated)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// FindByCode looks an item up by barcode or SKU, the way a scanner gun
// query arrives. Returns sql.ErrNoRows when nothing matches.
func (r *PostgresInventoryRepository) FindByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		  FROM inventory_items
		 WHERE barcode = $1 OR sku = $1
	`, code)
	return scanItem(row)
}

// GetByID fetches a single item by id. Returns sql.ErrNoRows when absent.
func (r *PostgresInventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		  FROM inventory_items WHERE id = $1
	`, id)
	return scanItem(row)
}

// List returns every inventory item ordered by name.
func (r *PostgresInventoryRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+itemColumns+`
		  FROM inventory_items ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ExistsBySKU reports whether an item with the given SKU is already stored.
func (r *PostgresInventoryRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE sku = $1)`,
		sku,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new item and returns it with its assigned id.
func (r *PostgresInventoryRepository) Create(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO inventory_items (name, sku, barcode, category, location, expected_quantity, actual_quantity)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING `+itemColumns+`
	`, item.Name, item.SKU, item.Barcode, item.Category, item.Location,
		item.ExpectedQuantity, item.ActualQuantity)
	created, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("Create item: %w", err)
	}
	return created, nil
}

// Update overwrites every mutable field of the item. Returns
// sql.ErrNoRows when the id does not exist.
func (r *PostgresInventoryRepository) Update(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE inventory_items
		   SET name = $2, sku = $3, barcode = NULLIF($4, ''), category = $5, location = $6,
		       expected_quantity = $7, actual_quantity = $8, last_updated = now()
		 WHERE id = $1
		RETURNING `+itemColumns+`
	`, item.ID, item.Name, item.SKU, item.Barcode, item.Category, item.Location,
		item.ExpectedQuantity, item.ActualQuantity)
	return scanItem(row)
}

// Delete removes an item. Returns sql.ErrNoRows when nothing was deleted.
func (r *PostgresInventoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete item: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
