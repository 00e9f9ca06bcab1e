package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scoring routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.Post("/score", h.HandleScoreProject) // Score one project payload
		r.Post("/batch", h.HandleScoreBatch)   // Score many, sharing benchmark lookups
	})
}
