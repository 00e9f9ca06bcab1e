package optimization

import (
	"context"
	"fmt"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/workers"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultScenarioConcurrency bounds parallel optimizer runs in a sweep
const DefaultScenarioConcurrency = 4

// ScenarioGenerator sweeps the optimizer across risk levels
type ScenarioGenerator struct {
	optimizer *Optimizer
	pool      *workers.Pool
	log       zerolog.Logger
}

// NewScenarioGenerator creates a generator running at most concurrency optimizations at once
func NewScenarioGenerator(optimizer *Optimizer, concurrency int, log zerolog.Logger) *ScenarioGenerator {
	if concurrency <= 0 {
		concurrency = DefaultScenarioConcurrency
	}
	return &ScenarioGenerator{
		optimizer: optimizer,
		pool:      workers.NewPool(concurrency),
		log:       log.With().Str("component", "scenarios").Logger(),
	}
}

type scenarioOutcome struct {
	scenario Scenario
	err      error
}

// Sweep runs one independent optimization per risk level, replacing base.MaxRisk.
// Scenarios are returned in the order of riskLevels.
func (g *ScenarioGenerator) Sweep(ctx context.Context, projects []ScoredProject, base Constraints, riskLevels []float64) ([]Scenario, error) {
	if len(projects) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if len(riskLevels) == 0 {
		return nil, domain.NewValidationError("riskLevels", "at least one risk level is required")
	}
	// each level replaces base.MaxRisk, so only the rest of base is checked
	shared := base
	shared.MaxRisk = nil
	if err := shared.Validate(); err != nil {
		return nil, err
	}
	for i, level := range riskLevels {
		if !isFinite(level) || level < 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("riskLevels[%d]", i), "must be a non-negative number")
		}
	}

	ctx, span := tracer.Start(ctx, "optimization.Sweep")
	defer span.End()
	span.SetAttributes(attribute.Int("projects", len(projects)), attribute.Int("risk_levels", len(riskLevels)))

	outcomes := workers.Map(g.pool, riskLevels, func(_ int, level float64) scenarioOutcome {
		res, err := g.optimizer.Optimize(ctx, projects, base.WithMaxRisk(level))
		return scenarioOutcome{scenario: Scenario{RiskLevel: level, Result: res}, err: err}
	}, nil)

	scenarios := make([]Scenario, len(outcomes))
	degraded := 0
	for i, o := range outcomes {
		if o.err != nil {
			return nil, fmt.Errorf("risk level %v: %w", riskLevels[i], o.err)
		}
		scenarios[i] = o.scenario
		if o.scenario.Degraded {
			degraded++
		}
	}

	g.log.Debug().
		Int("scenarios", len(scenarios)).
		Int("degraded", degraded).
		Msg("Scenario sweep completed")

	return scenarios, nil
}
