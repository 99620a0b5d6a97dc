package db

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Seed creates the default admin account and sample inventory when the
// users table is empty. Safe to call on every startup.
func Seed(ctx context.Context, db *sql.DB) error {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = 'admin')`,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ('admin', 'admin@inventory.com', $1, 'admin')
	`, hash)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	items := []struct {
		name, sku, barcode, category, location string
		expected, actual                       int
	}{
		{"Laptop Dell XPS 13", "LAPTOP-001", "123456789", "Electronics", "Shelf A1", 10, 10},
		{"Wireless Mouse", "MOUSE-001", "123456790", "Accessories", "Shelf B2", 25, 23},
		{"USB Cable Type-C", "CABLE-001", "123456791", "Cables", "Drawer C1", 50, 48},
		{"Monitor 24 inch", "MONITOR-001", "123456792", "Electronics", "Shelf A2", 8, 8},
		{"Keyboard Mechanical", "KEYBOARD-001", "123456793", "Accessories", "Shelf B1", 15, 14},
	}
	for _, it := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_items (name, sku, barcode, category, location, expected_quantity, actual_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (sku) DO NOTHING
		`, it.name, it.sku, it.barcode, it.category, it.location, it.expected, it.actual)
		if err != nil {
			return fmt.Errorf("insert sample item %s: %w", it.sku, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
