package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func TestHandleGetProjectRisk(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	store := testingpkg.NewMockProjectStore(testingpkg.NewProjectFixture("p-1"))
	router := newRouter(NewHandler(store, logger))

	req := httptest.NewRequest(http.MethodGet, "/api/risk/projects/p-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			ProjectID string `json:"project_id"`
			Analysis  struct {
				MeanSeverity       float64 `json:"meanSeverity"`
				MitigationCoverage float64 `json:"mitigationCoverage"`
				Count              int     `json:"count"`
				Categories         []struct {
					Category string `json:"category"`
				} `json:"categories"`
			} `json:"analysis"`
			ManagementScore float64 `json:"management_score"`
		} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "p-1", body.Data.ProjectID)
	assert.Equal(t, 2, body.Data.Analysis.Count)
	assert.InDelta(t, (0.15+0.08)/2, body.Data.Analysis.MeanSeverity, 1e-9)
	assert.InDelta(t, 0.5, body.Data.Analysis.MitigationCoverage, 1e-9)
	require.Len(t, body.Data.Analysis.Categories, 2)
	assert.Equal(t, "market", body.Data.Analysis.Categories[0].Category)
	assert.Greater(t, body.Data.ManagementScore, 0.0)
	assert.Contains(t, body.Metadata, "timestamp")
}

func TestHandleGetProjectRisk_NotFound(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	router := newRouter(NewHandler(testingpkg.NewMockProjectStore(), logger))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/risk/projects/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetProjectRisk_StoreError(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	store := testingpkg.NewMockProjectStore()
	store.SetError(errors.New("disk on fire"))
	router := newRouter(NewHandler(store, logger))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/risk/projects/p-1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
