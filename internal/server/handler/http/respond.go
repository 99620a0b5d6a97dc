// Package http provides the HTTP handlers and routing for the
// inventory service API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akozyrev/stocktake/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure writes the {success:false, message} shape used for all
// failed API calls.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// serviceError maps a service sentinel error to its HTTP response.
// Unrecognized errors become opaque 500s so internals do not leak.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQueryRequired),
		errors.Is(err, service.ErrActiveSessionExists),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrSKUExists):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeFailure(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPermission):
		writeFailure(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBadCredentials):
		writeFailure(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrLockedOut):
		writeFailure(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		writeFailure(w, http.StatusUnauthorized, err.Error())
	default:
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}
