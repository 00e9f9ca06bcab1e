package di

import (
	"github.com/aristath/greenfolio/internal/database"
	"github.com/aristath/greenfolio/internal/metrics"
	"github.com/aristath/greenfolio/internal/modules/analysis"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/optimization"
	"github.com/aristath/greenfolio/internal/modules/projects"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/aristath/greenfolio/internal/reliability"
	"github.com/aristath/greenfolio/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire and passed to the server for access to services.
type Container struct {
	// Databases
	ProjectsDB *database.DB // project records and score snapshots
	CacheDB    *database.DB // benchmark response cache

	Metrics *metrics.Metrics

	// Benchmarks
	BenchmarkCache  *benchmarks.SQLiteCache
	RedisCache      *benchmarks.RedisCache // nil unless REDIS_ADDR is set
	BenchmarkSource benchmarks.Source

	// Repositories
	ProjectRepo *projects.Repository

	// Services
	ScoringEngine     *scoring.Engine
	Optimizer         *optimization.Optimizer
	ScenarioGenerator *optimization.ScenarioGenerator
	RulesEngine       *analysis.RulesEngine
	ProjectService    *projects.Service
	AnalysisService   *analysis.Service

	// Backups
	BackupService *reliability.BackupService // nil unless BACKUP_S3_BUCKET is set
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	out := make([]*database.DB, 0, 2)
	for _, db := range []*database.DB{c.ProjectsDB, c.CacheDB} {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}

// Close releases databases and the Redis connection
func (c *Container) Close() error {
	var firstErr error
	if c.RedisCache != nil {
		if err := c.RedisCache.Close(); err != nil {
			firstErr = err
		}
	}
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// JobInstances holds the background jobs so they can also be triggered manually
type JobInstances struct {
	Rescore        scheduler.Job
	CacheCleanup   scheduler.Job
	WALCheckpoint  scheduler.Job
	IntegrityCheck scheduler.Job
	Vacuum         scheduler.Job
	Backup         scheduler.Job // nil when backups are disabled
}

// All returns the jobs keyed by name
func (j *JobInstances) All() map[string]scheduler.Job {
	out := make(map[string]scheduler.Job)
	for _, job := range []scheduler.Job{j.Rescore, j.CacheCleanup, j.WALCheckpoint, j.IntegrityCheck, j.Vacuum, j.Backup} {
		if job != nil {
			out[job.Name()] = job
		}
	}
	return out
}
