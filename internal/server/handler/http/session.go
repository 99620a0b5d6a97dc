package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akozyrev/stocktake/internal/export"
	"github.com/akozyrev/stocktake/internal/middleware"
	"github.com/akozyrev/stocktake/internal/models"
	"github.com/akozyrev/stocktake/internal/service"
)

// AuditService defines the interface for audit session operations
// required by the HTTP handlers.
type AuditService interface {
	Start(ctx context.Context, user *models.User) (*models.AuditSession, error)
	End(ctx context.Context, user *models.User, sessionID, notes string) (*models.AuditSession, error)
	Scan(ctx context.Context, user *models.User, sessionID, barcode string, actualQuantity int, notes string) (*service.ScanResult, error)
	Active(ctx context.Context) (*models.AuditSession, error)
	Details(ctx context.Context, sessionID string) (*models.AuditSession, error)
	Report(ctx context.Context, sessionID string) (*models.AuditSession, []models.AuditLog, error)
}

// SessionHandler handles HTTP requests for starting, running, and
// exporting audit sessions.
type SessionHandler struct {
	AuditService AuditService
}

// Start begins a new audit session for the caller. A user may only
// hold one active session at a time.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	sess, err := h.AuditService.Start(r.Context(), user)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sess.SessionID,
		"message":    "Audit session started successfully",
	})
}

// Active returns the currently active audit session, or null when no
// audit is in progress. Clients poll this on load to catch sessions
// started before their socket connected.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	sess, err := h.AuditService.Active(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

// Details returns the full record of one session by its public id.
func (h *SessionHandler) Details(w http.ResponseWriter, r *http.Request) {
	sess, err := h.AuditService.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// EndRequest represents the JSON payload for completing a session.
type EndRequest struct {
	Notes string `json:"notes"`
}

// End completes the caller's active session. Only the session owner
// may end it.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req EndRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	user := middleware.GetUserFromContext(r.Context())
	if _, err := h.AuditService.End(r.Context(), user, chi.URLParam(r, "id"), req.Notes); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Audit session completed successfully",
	})
}

// ScanRequest represents the JSON payload for recording one count.
type ScanRequest struct {
	SessionID      string `json:"session_id"`
	Barcode        string `json:"barcode"`
	ActualQuantity int    `json:"actual_quantity"`
	Notes          string `json:"notes"`
}

// Scan records a counted quantity against the item matching the
// scanned barcode or SKU and returns the resulting discrepancy.
func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" || req.Barcode == "" {
		writeFailure(w, http.StatusBadRequest, "session_id and barcode are required")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	res, err := h.AuditService.Scan(r.Context(), user, req.SessionID, req.Barcode, req.ActualQuantity, req.Notes)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item": map[string]any{
			"id":                res.Item.ID,
			"name":              res.Item.Name,
			"expected_quantity": res.Item.ExpectedQuantity,
			"actual_quantity":   res.Item.ActualQuantity,
			"discrepancy":       res.Discrepancy,
		},
	})
}

// Export streams the session report as a PDF or CSV download. The
// report is rendered fully before any byte is written so a render
// failure can still produce a clean error response.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatPDF
	}

	sess, logs, err := h.AuditService.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Report(&buf, format, sess, logs); err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			writeFailure(w, http.StatusBadRequest, "invalid format")
			return
		}
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(sess.SessionID, format)))
	_, _ = buf.WriteTo(w)
}
