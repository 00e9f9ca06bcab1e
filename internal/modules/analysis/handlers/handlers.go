// Package handlers provides HTTP handlers for project analysis and portfolio optimization.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/analysis"
	"github.com/aristath/greenfolio/internal/modules/optimization"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Handler handles analysis and optimization HTTP requests
type Handler struct {
	service *analysis.Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

type esgImpactRequest struct {
	ProjectID string `json:"projectId"`
}

type portfolioRequest struct {
	ProjectIDs []string `json:"projectIds"`
}

type optimizeRequest struct {
	ProjectIDs  []string                 `json:"projectIds"`
	Constraints optimization.Constraints `json:"constraints"`
}

type scenariosRequest struct {
	ProjectIDs []string                    `json:"projectIds"`
	Parameters analysis.ScenarioParameters `json:"parameters"`
}

// HandleESGImpact handles POST /api/analysis/esg-impact
func (h *Handler) HandleESGImpact(w http.ResponseWriter, r *http.Request) {
	var req esgImpactRequest
	if !h.decode(w, r, &req) {
		return
	}

	impact, err := h.service.ComputeESGImpact(r.Context(), req.ProjectID)
	if err != nil {
		h.handleError(w, err, "Failed to compute ESG impact")
		return
	}
	h.writeJSON(w, http.StatusOK, impact)
}

// HandlePortfolio handles POST /api/analysis/portfolio
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.AnalyzePortfolio(r.Context(), req.ProjectIDs)
	if err != nil {
		h.handleError(w, err, "Failed to analyze portfolio")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleOptimize handles POST /api/optimization/portfolio
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.OptimizePortfolio(r.Context(), req.ProjectIDs, req.Constraints)
	if err != nil {
		h.handleError(w, err, "Failed to optimize portfolio")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleScenarios handles POST /api/optimization/scenarios
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	var req scenariosRequest
	if !h.decode(w, r, &req) {
		return
	}

	scenarios, err := h.service.GenerateScenarios(r.Context(), req.ProjectIDs, req.Parameters)
	if err != nil {
		h.handleError(w, err, "Failed to generate scenarios")
		return
	}
	h.writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

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
