/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware. The X-Owner-ID header is an opaque scope,
  not a credential; deploy behind an authenticating proxy.

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetGroup)
				r.Delete("/", h.DeleteGroup)
				r.Put("/settings", h.UpdateSettings)
				r.Get("/summary", h.GetSummary)
				r.Get("/report", h.GetReport)

				r.Route("/participants", func(r chi.Router) {
					r.Post("/", h.AddParticipant)
					r.Post("/import", h.ImportParticipants)
					r.Put("/{pid}", h.UpdateParticipant)
					r.Delete("/{pid}", h.RemoveParticipant)
					r.Post("/{pid}/payments/{turn}", h.TogglePayment)
				})

				r.Route("/payments", func(r chi.Router) {
					r.Post("/{turn}/batch", h.BatchTogglePayments)
				})

				r.Route("/turns", func(r chi.Router) {
					r.Get("/", h.GetTurnSchedule)
					r.Post("/shuffle", h.ShuffleTurns)
					r.Post("/reorder", h.ReorderTurns)
					r.Post("/assign", h.AssignTurn)
				})
			})
		})
	})

	return r
}
