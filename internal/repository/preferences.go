package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/akozyrev/stocktake/internal/models"
)

// PostgresPreferencesRepository stores per-user display preferences and
// the theme catalog.
type PostgresPreferencesRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresPreferencesRepository creates a new PostgresPreferencesRepository
// using the provided *sql.DB.
func NewPostgresPreferencesRepository(db *sql.DB) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{DB: db}
}

// Get returns the stored preferences for a user.
// Returns sql.ErrNoRows when the user has never saved any.
func (r *PostgresPreferencesRepository) Get(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var p models.UserPreferences
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, font_size, high_contrast, dark_mode, theme_id
		  FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.FontSize, &p.HighContrast, &p.DarkMode, &p.ThemeID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert stores the full preference row for a user, inserting or
// overwriting as needed. The service layer merges partial updates
// before calling this.
func (r *PostgresPreferencesRepository) Upsert(ctx context.Context, p models.UserPreferences) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, font_size, high_contrast, dark_mode, theme_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			font_size = EXCLUDED.font_size,
			high_contrast = EXCLUDED.high_contrast,
			dark_mode = EXCLUDED.dark_mode,
			theme_id = EXCLUDED.theme_id
	`, p.UserID, p.FontSize, p.HighContrast, p.DarkMode, p.ThemeID)
	if err != nil {
		return fmt.Errorf("Upsert preferences: %w", err)
	}
	return nil
}

// ListThemes returns the theme catalog ordered by id. Theme configs
// are stored as JSONB and decoded here; a row with an unreadable
// config fails the whole call rather than silently dropping the theme.
func (r *PostgresPreferencesRepository) ListThemes(ctx context.Context) ([]models.Theme, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, config FROM themes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListThemes: %w", err)
	}
	defer rows.Close()

	var themes []models.Theme
	for rows.Next() {
		var t models.Theme
		var raw []byte
		if err := rows.Scan(&t.ID, &t.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(raw, &t.Config); err != nil {
			return nil, fmt.Errorf("decode theme %d config: %w", t.ID, err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}
