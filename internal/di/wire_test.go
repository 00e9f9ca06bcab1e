package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/scheduler"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		DataDir: dataDir,
		Port:    8001,
		Benchmark: config.BenchmarkConfig{
			Timeout:  time.Second,
			CacheTTL: time.Hour,
		},
		Scoring: config.ScoringConfig{
			Concurrency:         2,
			ScenarioConcurrency: 2,
			MaxAge:              time.Hour,
		},
		Optimizer: config.OptimizerConfig{ReturnTilt: 0.05, MaxIterations: 1000},
		Schedule: config.ScheduleConfig{
			Rescore:       "@every 1h",
			CacheCleanup:  "@daily",
			WALCheckpoint: "@every 6h",
		},
	}
}

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()

	container, err := InitializeDatabases(testConfig(tmpDir), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.ProjectsDB)
	assert.NotNil(t, container.CacheDB)
	assert.Len(t, container.Databases(), 2)

	assert.FileExists(t, filepath.Join(tmpDir, "projects.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))

	// schemas are applied
	_, err = container.ProjectsDB.Conn().Exec("SELECT COUNT(*) FROM projects")
	assert.NoError(t, err)
	_, err = container.CacheDB.Conn().Exec("SELECT COUNT(*) FROM benchmark_cache")
	assert.NoError(t, err)
}

func TestWire(t *testing.T) {
	cfg := testConfig(t.TempDir())
	sched := scheduler.New(zerolog.Nop())

	container, jobs, err := Wire(cfg, zerolog.Nop(), sched)
	require.NoError(t, err)
	defer container.Close()

	assert.IsType(t, &benchmarks.StaticSource{}, container.BenchmarkSource)
	assert.Nil(t, container.RedisCache)
	assert.NotNil(t, container.ProjectService)
	assert.NotNil(t, container.AnalysisService)
	assert.Equal(t, 2, container.RulesEngine.Len())

	all := jobs.All()
	assert.Len(t, all, 5)
	assert.Nil(t, container.BackupService)
	for _, name := range []string{"rescore_stale_projects", "benchmark_cache_cleanup", "wal_checkpoint", "integrity_check", "vacuum"} {
		require.Contains(t, all, name)
		assert.NoError(t, all[name].Run(), name)
	}
}

func TestWire_EndToEnd(t *testing.T) {
	container, _, err := Wire(testConfig(t.TempDir()), zerolog.Nop(), nil)
	require.NoError(t, err)
	defer container.Close()

	ctx := context.Background()
	created, err := container.ProjectService.Create(ctx, testingpkg.NewProjectFixture(""))
	require.NoError(t, err)

	impact, err := container.AnalysisService.ComputeESGImpact(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, created.Scores.Total, impact.ESGScore.Total, 1e-9)
}

func TestWire_BenchmarkServiceSource(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"average": 12}`))
	}))
	defer upstream.Close()

	cfg := testConfig(t.TempDir())
	cfg.Benchmark.URL = upstream.URL

	container, _, err := Wire(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer container.Close()

	require.IsType(t, &benchmarks.HTTPClient{}, container.BenchmarkSource)
	avg, err := container.BenchmarkSource.IndustryJobCreationAverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.0, avg)
}

func TestWire_UnreachableRedisIsOptional(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Benchmark.URL = "http://127.0.0.1:1"
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}

	container, _, err := Wire(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.RedisCache)
}

func TestRegisterJobs_BadSchedule(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Schedule.Rescore = "whenever"

	_, _, err := Wire(cfg, zerolog.Nop(), scheduler.New(zerolog.Nop()))
	assert.ErrorContains(t, err, "rescore_stale_projects")
}

func TestWire_BackupsEnabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Backup = config.BackupConfig{
		Bucket:          "greenfolio-backups",
		Endpoint:        "http://127.0.0.1:1",
		Region:          "auto",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		RetentionDays:   30,
		Schedule:        "@daily",
	}

	container, jobs, err := Wire(cfg, zerolog.Nop(), scheduler.New(zerolog.Nop()))
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.BackupService)
	require.NotNil(t, jobs.Backup)
	assert.Contains(t, jobs.All(), "database_backup")
	assert.Len(t, jobs.All(), 6)
}
