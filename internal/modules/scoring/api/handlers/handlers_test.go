package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() chi.Router {
	log := zerolog.Nop()
	engine := scoring.NewEngine(benchmarks.NewStaticSource(), scoring.Config{}, nil, log)

	r := chi.NewRouter()
	r.Route("/api", NewHandlers(engine, log).RegisterRoutes)
	return r
}

func post(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, &buf))
	return w
}

func TestHandleScoreProject(t *testing.T) {
	router := newTestRouter()

	w := post(t, router, "/api/scoring/score", testingpkg.NewProjectFixture("p1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.Score.ProjectID)
	assert.Greater(t, resp.Score.Total, 0.0)
	assert.LessOrEqual(t, resp.Score.Total, 100.0)
}

func TestHandleScoreProject_Invalid(t *testing.T) {
	router := newTestRouter()

	p := testingpkg.NewProjectFixture("p1")
	p.Sector = "mining"

	w := post(t, router, "/api/scoring/score", p)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown sector mining")
}

func TestHandleScoreBatch(t *testing.T) {
	router := newTestRouter()

	t.Run("keeps request order", func(t *testing.T) {
		w := post(t, router, "/api/scoring/batch", []domain.Project{
			testingpkg.NewProjectFixture("a"),
			testingpkg.NewMinimalProjectFixture("b", domain.SectorSustainableAgriculture, 250_000),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp BatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Scores, 2)
		assert.Equal(t, "a", resp.Scores[0].ProjectID)
		assert.Equal(t, "b", resp.Scores[1].ProjectID)
	})

	t.Run("empty batch", func(t *testing.T) {
		w := post(t, router, "/api/scoring/batch", []domain.Project{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), domain.ErrEmptyInput.Error())
	})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/scoring/batch", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too many projects", func(t *testing.T) {
		projects := make([]domain.Project, maxBatchSize+1)
		w := post(t, router, "/api/scoring/batch", projects)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
