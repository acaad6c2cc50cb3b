package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/camroll/camroll/internal/api/handler"
	mw "github.com/camroll/camroll/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	albumHandler *handler.AlbumHandler,
	exportHandler *handler.ExportHandler,
	eventHandler *handler.EventHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(5 * time.Minute))

	// CORS for browser clients
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Get("/albums", albumHandler.List)

		r.Post("/exports", exportHandler.Start)
		r.Get("/exports/current", exportHandler.Status)
		r.Delete("/exports/current", exportHandler.Cancel)

		// Real-time export progress and library changes
		r.Get("/events", eventHandler.Stream)
	})

	return r
}
