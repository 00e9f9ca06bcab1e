package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the analysis and optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analysis", func(r chi.Router) {
		r.Post("/esg-impact", h.HandleESGImpact)
		r.Post("/portfolio", h.HandlePortfolio)
	})

	r.Route("/optimization", func(r chi.Router) {
		r.Post("/portfolio", h.HandleOptimize)
		r.Post("/scenarios", h.HandleScenarios)
	})
}
