package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/di"
	"github.com/aristath/greenfolio/internal/domain"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
)

type stubJob struct {
	name string
	runs atomic.Int64
}

func (j *stubJob) Run() error {
	j.runs.Add(1)
	return nil
}

func (j *stubJob) Name() string {
	return j.name
}

func newTestServer(t *testing.T, jobs *di.JobInstances) (*Server, *di.Container) {
	t.Helper()

	cfg := &config.Config{
		DataDir:   t.TempDir(),
		Benchmark: config.BenchmarkConfig{Timeout: time.Second, CacheTTL: time.Hour},
		Scoring:   config.ScoringConfig{Concurrency: 2, ScenarioConcurrency: 2, MaxAge: time.Hour},
		Optimizer: config.OptimizerConfig{ReturnTilt: 0.05, MaxIterations: 1000},
	}

	container, _, err := di.Wire(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	srv := New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		DevMode:   true,
		Container: container,
		Jobs:      jobs,
	})
	return srv, container
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "greenfolio", body["service"])
	assert.Equal(t, map[string]interface{}{"projects": "ok", "cache": "ok"}, body["databases"])
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	srv, container := newTestServer(t, nil)
	require.NoError(t, container.CacheDB.Close())

	rec := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestProjectToAnalysisFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/projects", testingpkg.NewProjectFixture(""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = do(t, srv, http.MethodPost, "/api/analysis/esg-impact", map[string]string{"projectId": created.ID})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"esgScore"`)

	rec = do(t, srv, http.MethodPost, "/api/scoring/score", created)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/risk/projects/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/optimization/portfolio", map[string]interface{}{
		"projectIds":  []string{created.ID},
		"constraints": map[string]interface{}{},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"method":"single"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	do(t, srv, http.MethodGet, "/api/projects", nil)

	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/projects`)
}

func TestHandleDatabaseStats(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/system/database/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response DatabaseStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Databases, 2)
	assert.Equal(t, "projects", response.Databases[0].Name)
	assert.NotEmpty(t, response.Databases[1].Path)
}

func TestHandleSystemStats(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/system/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Positive(t, response.Goroutines)
	assert.Equal(t, 0, response.ProjectCount)
}

func TestJobs(t *testing.T) {
	job := &stubJob{name: "rescore_stale_projects"}
	srv, _ := newTestServer(t, &di.JobInstances{Rescore: job})

	t.Run("lists registered jobs", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/system/jobs", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var response JobsStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, []string{"rescore_stale_projects"}, response.Jobs)
	})

	t.Run("triggers a job", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/system/jobs/rescore_stale_projects", nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/system/jobs/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
