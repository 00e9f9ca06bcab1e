package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetProjectRisk(w, r, chi.URLParam(r, "id"))
		})
	})
}
