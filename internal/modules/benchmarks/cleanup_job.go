package benchmarks

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// staleGrace keeps expired rows for the stale fallback before they are purged
const staleGrace = 30 * 24 * time.Hour

// CleanupJob removes long-expired benchmark rows from the SQLite cache
type CleanupJob struct {
	cache *SQLiteCache
	log   zerolog.Logger
}

// NewCleanupJob creates a new benchmark cache cleanup job
func NewCleanupJob(cache *SQLiteCache, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		cache: cache,
		log:   log.With().Str("job", "benchmark_cache_cleanup").Logger(),
	}
}

// Run deletes rows that expired more than the grace period ago
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.cache.DeleteExpired(ctx, staleGrace)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired benchmarks")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Benchmark cache cleanup completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging
func (j *CleanupJob) Name() string {
	return "benchmark_cache_cleanup"
}
