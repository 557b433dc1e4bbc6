/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. Recoverer:      Panic recovery (500 instead of crash)
  3. RequestLogger:  Structured request logging (httplog + slog)
  4. CORS:           Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware. Auth is the calling application's concern
  and is out of scope for this engine's consumer surface.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "leave-engine"),
	)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level: slog.LevelInfo,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Post("/", h.CreateCompany)
			r.Put("/{id}/policy", h.UpsertPolicy)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/balance", h.GetBalance)
			r.Post("/{id}/adjustment", h.SetAdjustment)
			r.Post("/{id}/leaves", h.SubmitLeave)
			r.Get("/{id}/deductions", h.ListDeductions)
			r.Get("/{id}/deductions/{month}", h.GetDeduction)
			r.Put("/{id}/deductions/{month}", h.SaveDeduction)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Dev only
		r.Post("/seed", h.SeedDemo)
	})

	return r
}
