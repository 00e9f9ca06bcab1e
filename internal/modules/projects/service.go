package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/rs/zerolog"
)

// DefaultScoreMaxAge is how long a stored score snapshot is trusted
const DefaultScoreMaxAge = 24 * time.Hour

// Scorer computes ESG scores
type Scorer interface {
	Score(ctx context.Context, p domain.Project) (scoring.Result, error)
	ScoreBatch(ctx context.Context, projects []domain.Project) ([]scoring.Result, error)
}

// Service orchestrates project persistence and scoring
type Service struct {
	repo   *Repository
	scorer Scorer
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a new project service
func NewService(repo *Repository, scorer Scorer, maxAge time.Duration, log zerolog.Logger) *Service {
	if maxAge <= 0 {
		maxAge = DefaultScoreMaxAge
	}
	return &Service{
		repo:   repo,
		scorer: scorer,
		maxAge: maxAge,
		now:    time.Now,
		log:    log.With().Str("service", "projects").Logger(),
	}
}

// Create validates, scores and stores a new project
func (s *Service) Create(ctx context.Context, p domain.Project) (*domain.Project, error) {
	if err := s.score(ctx, &p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.log.Info().Str("project_id", p.ID).Str("sector", string(p.Sector)).Msg("Project created")
	return &p, nil
}

// Update replaces an existing project and rescores it
func (s *Service) Update(ctx context.Context, id string, p domain.Project) (*domain.Project, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.CreatedAt = existing.CreatedAt
	if p.Status == "" {
		p.Status = existing.Status
	}
	if err := s.score(ctx, &p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns a project, rescoring it first when its snapshot is older than the max age.
// A failed rescore is logged and the stored snapshot is returned.
func (s *Service) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.ScoresStale(s.now(), s.maxAge) {
		return p, nil
	}

	if _, err := s.rescore(ctx, p); err != nil {
		s.log.Warn().Err(err).Str("project_id", id).Msg("Failed to refresh stale scores")
	}
	return p, nil
}

// GetByID implements domain.ProjectStore with the same freshness guarantee as Get
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.Get(ctx, id)
}

// Find implements domain.ProjectStore
func (s *Service) Find(ctx context.Context, ids []string) ([]domain.Project, error) {
	return s.repo.Find(ctx, ids)
}

// List returns every stored project
func (s *Service) List(ctx context.Context) ([]domain.Project, error) {
	return s.repo.List(ctx)
}

// Delete removes a project
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("project_id", id).Msg("Project deleted")
	return nil
}

// Rescore recomputes and persists a project's scores regardless of age
func (s *Service) Rescore(ctx context.Context, id string) (*domain.Project, scoring.Result, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, scoring.Result{}, err
	}
	res, err := s.rescore(ctx, p)
	if err != nil {
		return nil, scoring.Result{}, err
	}
	return p, res, nil
}

// RescoreStale rescores up to limit projects whose snapshot is missing or expired.
// Returns the number of projects updated.
func (s *Service) RescoreStale(ctx context.Context, limit int) (int, error) {
	stale, err := s.repo.ListStale(ctx, s.now().Add(-s.maxAge), limit)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	// invalid rows cannot be scored; skip them instead of failing the batch
	valid := stale[:0]
	for _, p := range stale {
		if err := p.Validate(); err != nil {
			s.log.Warn().Err(err).Str("project_id", p.ID).Msg("Skipping invalid project")
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	results, err := s.scorer.ScoreBatch(ctx, valid)
	if err != nil {
		return 0, fmt.Errorf("failed to score stale projects: %w", err)
	}

	at := s.now().UTC()
	updated := 0
	for i, res := range results {
		if err := s.repo.UpdateScores(ctx, valid[i].ID, res.Snapshot(at)); err != nil {
			s.log.Warn().Err(err).Str("project_id", valid[i].ID).Msg("Failed to store refreshed scores")
			continue
		}
		updated++
	}
	return updated, nil
}

// score validates p and attaches a fresh snapshot
func (s *Service) score(ctx context.Context, p *domain.Project) error {
	res, err := s.scorer.Score(ctx, *p)
	if err != nil {
		return err
	}
	snap := res.Snapshot(s.now().UTC().Truncate(time.Second))
	p.Scores = &snap
	return nil
}

func (s *Service) rescore(ctx context.Context, p *domain.Project) (scoring.Result, error) {
	res, err := s.scorer.Score(ctx, *p)
	if err != nil {
		return scoring.Result{}, err
	}
	snap := res.Snapshot(s.now().UTC().Truncate(time.Second))
	if err := s.repo.UpdateScores(ctx, p.ID, snap); err != nil {
		return scoring.Result{}, err
	}
	p.Scores = &snap
	return res, nil
}
