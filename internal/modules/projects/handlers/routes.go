package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all project routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", withID(h.HandleGet))
			r.Put("/", withID(h.HandleUpdate))
			r.Delete("/", withID(h.HandleDelete))
			r.Post("/score", withID(h.HandleScore))
		})
	})
}

func withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "id"))
	}
}
