package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/akozyrev/stocktake/internal/middleware"
	"github.com/akozyrev/stocktake/internal/models"
)

// PreferencesService defines the interface for display preference
// operations required by the HTTP handlers.
type PreferencesService interface {
	Get(ctx context.Context, userID int64) (*models.UserPreferences, error)
	Update(ctx context.Context, userID int64, upd models.PreferencesUpdate) (*models.UserPreferences, error)
	Themes(ctx context.Context) ([]models.Theme, error)
}

// PreferencesHandler handles HTTP requests for per-user display
// preferences and the theme catalog.
type PreferencesHandler struct {
	PreferencesService PreferencesService
}

// Get returns the caller's preferences, falling back to defaults
// when none have been saved.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	prefs, err := h.PreferencesService.Get(r.Context(), user.ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// Update applies a partial preference change. Omitted fields keep
// their stored values. The saved result is pushed to all connected
// clients of the same user.
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.PreferencesUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	prefs, err := h.PreferencesService.Update(r.Context(), user.ID, upd)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"preferences": prefs,
	})
}

// Themes returns the theme catalog in display order.
func (h *PreferencesHandler) Themes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.PreferencesService.Themes(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, themes)
}
