package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupDashboardRouter wires the read-only query API, the live feed and
// the dashboard page.
func SetupDashboardRouter(h *QueryHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.ServeDashboard)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/latest", h.HandleLatest)
		r.Get("/history", h.HandleHistory)
		r.Get("/summary", h.HandleSummary)
		r.Get("/statistics", h.HandleStatistics)
		r.Get("/events", h.HandleEvents)
		r.Get("/export", h.HandleExport)
	})

	staticPath := filepath.Join(h.webDir, "static")
	fs := http.FileServer(http.Dir(staticPath))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	return r
}

// SetupControlRouter wires the monitor process's control surface.
func SetupControlRouter(h *ControlHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/save", h.HandleManualSave)
	r.Post("/ingest", h.HandleIngest)
	r.Get("/healthz", h.HandleHealthz)

	return r
}
