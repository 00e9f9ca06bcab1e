// Package handlers provides HTTP handlers for scoring API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes = 4 << 20
	// maxBatchSize bounds one stateless scoring request
	maxBatchSize = 500
)

// Scorer computes ESG scores
type Scorer interface {
	Score(ctx context.Context, p domain.Project) (scoring.Result, error)
	ScoreBatch(ctx context.Context, projects []domain.Project) ([]scoring.Result, error)
}

// Handlers scores project payloads without storing them
type Handlers struct {
	scorer Scorer
	log    zerolog.Logger
}

// NewHandlers creates a new scoring handlers instance
func NewHandlers(scorer Scorer, log zerolog.Logger) *Handlers {
	return &Handlers{
		scorer: scorer,
		log:    log.With().Str("module", "scoring_handlers").Logger(),
	}
}

// ScoreResponse wraps the result of POST /api/scoring/score
type ScoreResponse struct {
	Score scoring.Result `json:"score"`
}

// BatchResponse wraps the results of POST /api/scoring/batch, in request order
type BatchResponse struct {
	Scores []scoring.Result `json:"scores"`
}

// HandleScoreProject handles POST /api/scoring/score
func (h *Handlers) HandleScoreProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if !h.decode(w, r, &p) {
		return
	}

	res, err := h.scorer.Score(r.Context(), p)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ScoreResponse{Score: res})
}

// HandleScoreBatch handles POST /api/scoring/batch
func (h *Handlers) HandleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var projects []domain.Project
	if !h.decode(w, r, &projects) {
		return
	}
	if len(projects) > maxBatchSize {
		h.writeError(w, http.StatusBadRequest, "Too many projects in one batch")
		return
	}

	results, err := h.scorer.ScoreBatch(r.Context(), projects)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, BatchResponse{Scores: results})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrEmptyInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Failed to score projects")
		h.writeError(w, http.StatusInternalServerError, "Failed to score projects")
	}
}

// writeJSON writes a JSON response with status code
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
