package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akozyrev/stocktake/internal/broadcast"
	"github.com/akozyrev/stocktake/internal/event"
	"github.com/akozyrev/stocktake/internal/models"
)

// DefaultFontSize is used when a user has never saved preferences.
const DefaultFontSize = "medium"

// PreferencesRepository defines the persistence operations needed by
// the PreferencesService.
type PreferencesRepository interface {
	// Get returns the stored preferences, or sql.ErrNoRows.
	Get(ctx context.Context, userID int64) (*models.UserPreferences, error)
	// Upsert stores the full preference row.
	Upsert(ctx context.Context, p models.UserPreferences) error
	// ListThemes returns the theme catalog ordered by id.
	ListThemes(ctx context.Context) ([]models.Theme, error)
}

// PreferencesService manages per-user display preferences and the
// theme catalog, pushing changes to other connected tabs.
type PreferencesService struct {
	repo PreferencesRepository
	pub  broadcast.Publisher
	room string
}

// NewPreferencesService constructs a PreferencesService.
func NewPreferencesService(repo PreferencesRepository, pub broadcast.Publisher, room string) *PreferencesService {
	return &PreferencesService{repo: repo, pub: pub, room: room}
}

// Get returns the user's preferences, falling back to defaults when
// none are stored.
func (s *PreferencesService) Get(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserPreferences{UserID: userID, FontSize: DefaultFontSize}, nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// Update merges a partial change into the user's stored preferences,
// persists the result, and broadcasts it. A theme change additionally
// pushes the resolved theme config so other tabs can restyle without a
// catalog fetch.
func (s *PreferencesService) Update(ctx context.Context, userID int64, upd models.PreferencesUpdate) (*models.UserPreferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	themeChanged := false
	if upd.FontSize != nil {
		prefs.FontSize = *upd.FontSize
	}
	if upd.HighContrast != nil {
		prefs.HighContrast = *upd.HighContrast
	}
	if upd.DarkMode != nil {
		prefs.DarkMode = *upd.DarkMode
	}
	if upd.ThemeID != nil {
		prefs.ThemeID = upd.ThemeID
		themeChanged = true
	}

	if err := s.repo.Upsert(ctx, *prefs); err != nil {
		return nil, err
	}

	s.pub.Publish(s.room, event.PreferencesUpdated, event.PreferencesUpdatedPayload{
		UserID:          userID,
		UserPreferences: *prefs,
	})

	if themeChanged && prefs.ThemeID != nil {
		if theme := s.findTheme(ctx, *prefs.ThemeID); theme != nil {
			s.pub.Publish(s.room, event.ThemeUpdated, event.ThemeUpdatedPayload{
				UserID:      userID,
				ThemeConfig: theme.Config,
			})
		}
	}
	return prefs, nil
}

// Themes returns the theme catalog.
func (s *PreferencesService) Themes(ctx context.Context) ([]models.Theme, error) {
	return s.repo.ListThemes(ctx)
}

func (s *PreferencesService) findTheme(ctx context.Context, id int64) *models.Theme {
	themes, err := s.repo.ListThemes(ctx)
	if err != nil {
		return nil
	}
	for i := range themes {
		if themes[i].ID == id {
			return &themes[i]
		}
	}
	return nil
}
