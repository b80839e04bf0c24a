package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramonehamilton/deck-analyst/internal/api/handlers"
	"github.com/ramonehamilton/deck-analyst/internal/api/response"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.healthCheck)

	if s.deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		deckHandler := handlers.NewDeckHandler(s.deps.Inferrer, s.deps.Analyzer)
		r.Route("/deck", func(r chi.Router) {
			r.Post("/context", deckHandler.Context)
			r.Post("/analysis", deckHandler.Analysis)
		})

		cardHandler := handlers.NewCardHandler(s.deps.Cards)
		r.Get("/cards/{name}", cardHandler.GetCardByName)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"generator": s.deps.Analyzer != nil,
	})
}
