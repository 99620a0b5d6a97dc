package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/akozyrev/stocktake/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// inventory API. It applies JSON content-type enforcement, request
// logging, and bearer-token authentication, and mounts the product,
// session, preference, and websocket endpoints.
//
// Routes:
//
//	POST /api/login                     → authHandler.Login (public)
//	POST /api/logout                    → authHandler.Logout
//	GET  /api/search                    → inventoryHandler.Search
//	GET  /api/items                     → inventoryHandler.List
//	POST /api/item                      → inventoryHandler.Add
//	GET  /api/item/{id}                 → inventoryHandler.Get
//	PUT  /api/item/{id}                 → inventoryHandler.Update
//	DELETE /api/item/{id}               → inventoryHandler.Delete
//	POST /start_audit                   → sessionHandler.Start
//	GET  /api/active_session            → sessionHandler.Active
//	GET  /api/session/{id}              → sessionHandler.Details
//	POST /api/session/{id}/end          → sessionHandler.End
//	GET  /api/session/{id}/export       → sessionHandler.Export
//	POST /api/scan                      → sessionHandler.Scan
//	GET  /api/user/preferences          → preferencesHandler.Get
//	PUT  /api/user/preferences          → preferencesHandler.Update
//	GET  /api/themes                    → preferencesHandler.Themes
//	GET  /ws                            → wsHandler.Serve
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON bodies
//  2. WithRequestLogging(logger)           — logs incoming requests
//  3. TokenAuth(auth)                      — enforces bearer tokens
func NewRouter(
	authHandler *AuthHandler,
	inventoryHandler *InventoryHandler,
	sessionHandler *SessionHandler,
	preferencesHandler *PreferencesHandler,
	wsHandler *WSHandler,
	auth middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Enforce bearer-token authentication
	r.Use(middleware.TokenAuth(auth))

	r.Post("/start_audit", sessionHandler.Start)
	r.Get("/ws", wsHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Get("/search", inventoryHandler.Search)
		r.Get("/items", inventoryHandler.List)
		r.Post("/item", inventoryHandler.Add)
		r.Route("/item/{id}", func(r chi.Router) {
			r.Get("/", inventoryHandler.Get)
			r.Put("/", inventoryHandler.Update)
			r.Delete("/", inventoryHandler.Delete)
		})

		r.Get("/active_session", sessionHandler.Active)
		r.Route("/session/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Details)
			r.Post("/end", sessionHandler.End)
			r.Get("/export", sessionHandler.Export)
		})
		r.Post("/scan", sessionHandler.Scan)

		r.Get("/user/preferences", preferencesHandler.Get)
		r.Put("/user/preferences", preferencesHandler.Update)
		r.Get("/themes", preferencesHandler.Themes)
	})

	return r
}
