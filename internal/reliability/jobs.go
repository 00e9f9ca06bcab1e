package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/greenfolio/internal/database"
	"github.com/rs/zerolog"
)

// BackupJob uploads a fresh backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a backup job keeping archives for retentionDays (0 = forever)
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       30 * time.Minute,
		log:           log.With().Str("job", "database_backup").Logger(),
	}
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		return err
	}

	// A failed rotation leaves extra archives behind but the backup itself succeeded
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}

// VacuumJob reclaims space in databases with high churn
type VacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewVacuumJob creates a vacuum job for databases
func NewVacuumJob(log zerolog.Logger, databases ...*database.DB) *VacuumJob {
	return &VacuumJob{
		databases: databases,
		log:       log.With().Str("job", "vacuum").Logger(),
	}
}

// Run vacuums every database, continuing past failures
func (j *VacuumJob) Run() error {
	startTime := time.Now()

	var failed []string
	for _, db := range j.databases {
		if err := j.vacuumDatabase(db); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			failed = append(failed, db.Name())
		}
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Vacuum completed")

	if len(failed) > 0 {
		return fmt.Errorf("vacuum failed for %v", failed)
	}
	return nil
}

// Name returns the job name for scheduler
func (j *VacuumJob) Name() string {
	return "vacuum"
}

func (j *VacuumJob) vacuumDatabase(db *database.DB) error {
	sizeBefore, err := pageBytes(db)
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	sizeAfter, err := pageBytes(db)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("database", db.Name()).
		Int64("size_before_bytes", sizeBefore).
		Int64("size_after_bytes", sizeAfter).
		Int64("reclaimed_bytes", sizeBefore-sizeAfter).
		Msg("VACUUM completed")
	return nil
}

func pageBytes(db *database.DB) (int64, error) {
	var pageCount, pageSize int64
	if err := db.Conn().QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to read page_count: %w", err)
	}
	if err := db.Conn().QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to read page_size: %w", err)
	}
	return pageCount * pageSize, nil
}
