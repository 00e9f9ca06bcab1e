package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/greenfolio/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size above which a checkpoint is forced
const walWarnFrames = 1000

// WALCheckpointJob monitors WAL size and truncates it when it grows large
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WALCheckpointJob. Nil databases are skipped.
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checks every database and truncates oversized WAL files
func (j *WALCheckpointJob) Run() error {
	checked := 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", db.Name()).
				Msg("Failed to check WAL checkpoint")
			continue
		}

		if frames > walWarnFrames {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, truncating")
			if err := db.WALCheckpoint("TRUNCATE"); err != nil {
				j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL truncate failed")
			}
		} else {
			j.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Msg("WAL checkpoint status OK")
		}

		checked++
	}

	j.log.Debug().Int("checked", checked).Msg("WAL checkpoint check completed")
	return nil
}

// IntegrityCheckJob runs SQLite integrity checks on the service databases
type IntegrityCheckJob struct {
	databases []*database.DB
	timeout   time.Duration
	log       zerolog.Logger
}

// NewIntegrityCheckJob creates a new IntegrityCheckJob
func NewIntegrityCheckJob(log zerolog.Logger, databases ...*database.DB) *IntegrityCheckJob {
	return &IntegrityCheckJob{
		databases: databases,
		timeout:   2 * time.Minute,
		log:       log.With().Str("job", "integrity_check").Logger(),
	}
}

// Name returns the job name
func (j *IntegrityCheckJob) Name() string {
	return "integrity_check"
}

// Run fails on the first corrupted database
func (j *IntegrityCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			// corruption cannot be repaired automatically
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			return fmt.Errorf("database %s failed integrity check: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}
	return nil
}
