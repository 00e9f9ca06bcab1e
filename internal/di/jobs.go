package di

import (
	"fmt"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/projects"
	"github.com/aristath/greenfolio/internal/reliability"
	"github.com/aristath/greenfolio/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	// integrityCheckSchedule runs the SQLite integrity check once a week
	integrityCheckSchedule = "@weekly"
	// vacuumSchedule compacts the cache database, whose rows churn with every expiry sweep
	vacuumSchedule = "@weekly"
)

type scheduledJob struct {
	schedule string
	job      scheduler.Job
}

// RegisterJobs creates the background jobs and registers them with sched.
// sched may be nil, in which case jobs are only created for manual triggering.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		Rescore:        projects.NewRescoreJob(container.ProjectService, log),
		CacheCleanup:   benchmarks.NewCleanupJob(container.BenchmarkCache, log),
		WALCheckpoint:  scheduler.NewWALCheckpointJob(log, container.Databases()...),
		IntegrityCheck: scheduler.NewIntegrityCheckJob(log, container.Databases()...),
		Vacuum:         reliability.NewVacuumJob(log, container.CacheDB),
	}
	if container.BackupService != nil {
		jobs.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	if sched == nil {
		return jobs, nil
	}

	schedules := []scheduledJob{
		{cfg.Schedule.Rescore, jobs.Rescore},
		{cfg.Schedule.CacheCleanup, jobs.CacheCleanup},
		{cfg.Schedule.WALCheckpoint, jobs.WALCheckpoint},
		{integrityCheckSchedule, jobs.IntegrityCheck},
		{vacuumSchedule, jobs.Vacuum},
	}
	if jobs.Backup != nil {
		schedules = append(schedules, scheduledJob{cfg.Backup.Schedule, jobs.Backup})
	}
	for _, s := range schedules {
		if err := sched.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", s.job.Name(), err)
		}
	}

	return jobs, nil
}
