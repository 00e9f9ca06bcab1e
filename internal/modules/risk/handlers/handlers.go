// Package handlers provides HTTP handlers for project risk analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/risk"
	"github.com/rs/zerolog"
)

// Handler handles risk analysis HTTP requests
type Handler struct {
	store domain.ProjectStore
	log   zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(store domain.ProjectStore, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetProjectRisk handles GET /api/risk/projects/{id}
func (h *Handler) HandleGetProjectRisk(w http.ResponseWriter, r *http.Request, id string) {
	project, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("project_id", id).Msg("Failed to load project")
		http.Error(w, "Failed to load project", http.StatusInternalServerError)
		return
	}

	analysis := risk.Analyze(project.Risks)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"project_id":       project.ID,
			"analysis":         analysis,
			"management_score": analysis.ManagementScore(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
