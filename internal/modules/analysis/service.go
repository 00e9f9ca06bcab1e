// Package analysis exposes the project and portfolio analysis operations:
// per-project ESG impact with recommendations, portfolio summaries, allocation
// and risk scenario sweeps over stored projects.
package analysis

import (
	"context"
	"fmt"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/optimization"
	"github.com/aristath/greenfolio/internal/modules/risk"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("greenfolio/analysis")

// Scorer computes ESG scores
type Scorer interface {
	Score(ctx context.Context, p domain.Project) (scoring.Result, error)
	ScoreBatch(ctx context.Context, projects []domain.Project) ([]scoring.Result, error)
}

// Impact summarises what a project delivers per pillar.
// Economic is impact points per million invested, the same figure the optimizer uses as expected return.
type Impact struct {
	Environmental float64 `json:"environmental"`
	Social        float64 `json:"social"`
	Economic      float64 `json:"economic"`
}

// ESGImpact is the per-project analysis
type ESGImpact struct {
	ProjectID       string         `json:"projectId"`
	ESGScore        scoring.Result `json:"esgScore"`
	Risks           risk.Analysis  `json:"risks"`
	Impact          Impact         `json:"impact"`
	Recommendations []string       `json:"recommendations"`
}

// SectorBreakdown counts the projects and budget of one sector
type SectorBreakdown struct {
	Sector domain.Sector `json:"sector"`
	Count  int           `json:"count"`
	Budget float64       `json:"budget"`
}

// PortfolioAnalysis summarises a set of projects
type PortfolioAnalysis struct {
	ProjectCount int     `json:"projectCount"`
	TotalBudget  float64 `json:"totalBudget"`
	AvgESGScore  float64 `json:"avgESGScore"`
	// Diversification is distinct sectors per project, as a percentage
	Diversification float64           `json:"diversification"`
	RiskProfile     float64           `json:"riskProfile"`
	Sectors         []SectorBreakdown `json:"sectors"`
}

// ScenarioParameters are the inputs of a risk sweep
type ScenarioParameters struct {
	MaxBudget   *float64  `json:"maxBudget,omitempty"`
	MinESGScore *float64  `json:"minESGScore,omitempty"`
	RiskLevels  []float64 `json:"riskLevels"`
}

// Service runs analyses over stored projects
type Service struct {
	store     domain.ProjectStore
	scorer    Scorer
	optimizer *optimization.Optimizer
	scenarios *optimization.ScenarioGenerator
	rules     *RulesEngine
	log       zerolog.Logger
}

// NewService creates a new analysis service
func NewService(
	store domain.ProjectStore,
	scorer Scorer,
	optimizer *optimization.Optimizer,
	scenarios *optimization.ScenarioGenerator,
	rules *RulesEngine,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		scorer:    scorer,
		optimizer: optimizer,
		scenarios: scenarios,
		rules:     rules,
		log:       log.With().Str("service", "analysis").Logger(),
	}
}

// ComputeESGImpact scores one project and derives its impact and recommendations
func (s *Service) ComputeESGImpact(ctx context.Context, projectID string) (*ESGImpact, error) {
	if projectID == "" {
		return nil, domain.NewValidationError("projectId", "is required")
	}

	ctx, span := tracer.Start(ctx, "analysis.ComputeESGImpact")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}

	res, err := s.scorer.Score(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("failed to score project %s: %w", projectID, err)
	}

	recommendations, err := s.rules.Recommend(res)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate recommendation rules: %w", err)
	}

	metrics := optimization.DeriveMetrics(optimization.ScoredProject{Project: *p, Score: res})

	return &ESGImpact{
		ProjectID: p.ID,
		ESGScore:  res,
		Risks:     res.Risk,
		Impact: Impact{
			Environmental: res.Environmental.Value,
			Social:        res.Social.Value,
			Economic:      metrics.ExpectedReturn,
		},
		Recommendations: recommendations,
	}, nil
}

// AnalyzePortfolio summarises budget, ESG score, sector spread and risk of the given projects
func (s *Service) AnalyzePortfolio(ctx context.Context, projectIDs []string) (*PortfolioAnalysis, error) {
	ctx, span := tracer.Start(ctx, "analysis.AnalyzePortfolio")
	defer span.End()

	scored, err := s.load(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("projects", len(scored)))

	n := float64(len(scored))
	out := &PortfolioAnalysis{ProjectCount: len(scored)}

	bySector := make(map[domain.Sector]*SectorBreakdown)
	var scoreSum, severitySum float64
	for _, sp := range scored {
		out.TotalBudget += sp.Project.Budget
		scoreSum += sp.Score.Total
		severitySum += sp.Score.Risk.MeanSeverity

		b, ok := bySector[sp.Project.Sector]
		if !ok {
			b = &SectorBreakdown{Sector: sp.Project.Sector}
			bySector[sp.Project.Sector] = b
		}
		b.Count++
		b.Budget += sp.Project.Budget
	}

	out.AvgESGScore = scoreSum / n
	out.RiskProfile = severitySum / n
	out.Diversification = float64(len(bySector)) / n * 100

	out.Sectors = make([]SectorBreakdown, 0, len(bySector))
	for _, sector := range domain.Sectors {
		if b, ok := bySector[sector]; ok {
			out.Sectors = append(out.Sectors, *b)
		}
	}

	return out, nil
}

// OptimizePortfolio allocates capital across the given projects under c
func (s *Service) OptimizePortfolio(ctx context.Context, projectIDs []string, c optimization.Constraints) (*optimization.Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	scored, err := s.load(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	res, err := s.optimizer.Optimize(ctx, scored, c)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize portfolio: %w", err)
	}
	return &res, nil
}

// GenerateScenarios sweeps the optimizer across params.RiskLevels
func (s *Service) GenerateScenarios(ctx context.Context, projectIDs []string, params ScenarioParameters) ([]optimization.Scenario, error) {
	base := optimization.Constraints{MaxBudget: params.MaxBudget, MinESGScore: params.MinESGScore}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if len(params.RiskLevels) == 0 {
		return nil, domain.NewValidationError("riskLevels", "at least one risk level is required")
	}

	scored, err := s.load(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	scenarios, err := s.scenarios.Sweep(ctx, scored, base, params.RiskLevels)
	if err != nil {
		return nil, fmt.Errorf("failed to generate scenarios: %w", err)
	}
	return scenarios, nil
}

// load fetches and scores projects. Unknown IDs are skipped; nothing found is ErrEmptyInput.
func (s *Service) load(ctx context.Context, projectIDs []string) ([]optimization.ScoredProject, error) {
	if len(projectIDs) == 0 {
		return nil, domain.ErrEmptyInput
	}

	projects, err := s.store.Find(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if len(projects) < len(projectIDs) {
		s.log.Debug().
			Int("requested", len(projectIDs)).
			Int("found", len(projects)).
			Msg("Some requested projects were not found")
	}

	results, err := s.scorer.ScoreBatch(ctx, projects)
	if err != nil {
		return nil, fmt.Errorf("failed to score projects: %w", err)
	}

	scored := make([]optimization.ScoredProject, len(projects))
	for i := range projects {
		scored[i] = optimization.ScoredProject{Project: projects[i], Score: results[i]}
	}
	return scored, nil
}
