// Package handlers provides HTTP handlers for project management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/projects"
	"github.com/rs/zerolog"
)

// maxBodyBytes limits project payloads
const maxBodyBytes = 1 << 20

// Handler handles project HTTP requests
type Handler struct {
	service *projects.Service
	log     zerolog.Logger
}

// NewHandler creates a new project handler
func NewHandler(service *projects.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "projects").Logger(),
	}
}

// HandleList handles GET /api/projects
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, err, "Failed to list projects")
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/projects
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if !h.decode(w, r, &p) {
		return
	}
	// IDs are always server-assigned
	p.ID = ""

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		h.handleError(w, err, "Failed to create project")
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /api/projects/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to load project")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /api/projects/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var p domain.Project
	if !h.decode(w, r, &p) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, p)
	if err != nil {
		h.handleError(w, err, "Failed to update project")
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/projects/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleScore handles POST /api/projects/{id}/score
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request, id string) {
	p, res, err := h.service.Rescore(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to score project")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"project": p,
		"score":   res,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleError maps domain errors to status codes
func (h *Handler) handleError(w http.ResponseWriter, err error, msg string) {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrEmptyInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProjectNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg(msg)
		h.writeError(w, http.StatusInternalServerError, msg)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
