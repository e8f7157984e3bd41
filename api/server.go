/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the desktop front end

SECURITY NOTE:
  Single-operator tool; no authentication. Bind to localhost in
  production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		// History: read-only query surface
		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/export", h.ExportHistory)
			r.Get("/{number}", h.GetLineage)
		})

		// Derived views
		r.Get("/templates", h.ListTemplates)
		r.Get("/clients", h.ListClients)
		r.Get("/stats", h.GetStats)

		// Quotations
		r.Route("/quotations", func(r chi.Router) {
			r.Post("/", h.IssueQuotation)
			r.Get("/{number}/revision", h.GetRevisionDraft)
		})
	})

	return r
}
