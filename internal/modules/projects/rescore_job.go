package projects

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// rescoreBatchSize caps projects rescored per run
const rescoreBatchSize = 200

// RescoreJob refreshes expired score snapshots in the background
type RescoreJob struct {
	service *Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewRescoreJob creates a new stale-score refresh job
func NewRescoreJob(service *Service, log zerolog.Logger) *RescoreJob {
	return &RescoreJob{
		service: service,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "rescore_stale_projects").Logger(),
	}
}

// Run rescores one batch of stale projects
func (j *RescoreJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	updated, err := j.service.RescoreStale(ctx, rescoreBatchSize)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to rescore stale projects")
		return err
	}

	if updated > 0 {
		j.log.Info().Int("updated", updated).Msg("Stale project scores refreshed")
	}
	return nil
}

// Name returns the job name for scheduling and logging
func (j *RescoreJob) Name() string {
	return "rescore_stale_projects"
}
