package optimization

import (
	"context"
	"testing"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/risk"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// scored builds a ScoredProject directly from pillar values, bypassing the scoring engine
func scored(id string, budget, env, social, gov, energy, severity float64) ScoredProject {
	return ScoredProject{
		Project: domain.Project{
			ID:     id,
			Name:   "Project " + id,
			Sector: domain.SectorRenewableEnergy,
			Budget: budget,
		},
		Score: scoring.Result{
			ProjectID: id,
			Environmental: scoring.PillarScore{
				Pillar:  scoring.PillarEnvironmental,
				Value:   env,
				Factors: map[string]float64{scoring.FactorEnergyEfficiency: energy},
			},
			Social:     scoring.PillarScore{Pillar: scoring.PillarSocial, Value: social},
			Governance: scoring.PillarScore{Pillar: scoring.PillarGovernance, Value: gov},
			Total:      0.4*env + 0.3*social + 0.3*gov,
			Risk:       risk.Analysis{MeanSeverity: severity},
		},
	}
}

func newTestOptimizer() *Optimizer {
	return NewOptimizer(Config{ReturnTilt: DefaultReturnTilt}, nil, zerolog.Nop())
}

func sumWeights(r Result) (weights, amounts float64) {
	for _, a := range r.Allocations {
		weights += a.Weight
		amounts += a.Amount
	}
	return weights, amounts
}

func diversePortfolio() []ScoredProject {
	return []ScoredProject{
		scored("solar", 2_000_000, 85, 70, 75, 60, 0.30),
		scored("water", 1_000_000, 60, 80, 65, 20, 0.10),
		scored("housing", 3_000_000, 40, 90, 55, 10, 0.45),
		scored("transit", 1_500_000, 70, 60, 80, 45, 0.20),
	}
}

// tradeoffPortfolio puts the highest return on the riskiest project, so a risk cap
// between the minimum-variance and unconstrained risks always binds
func tradeoffPortfolio() []ScoredProject {
	return []ScoredProject{
		scored("hi", 500_000, 80, 70, 70, 90, 0.30),
		scored("mid", 2_000_000, 70, 65, 70, 50, 0.20),
		scored("lo", 3_000_000, 60, 60, 65, 20, 0.10),
	}
}

// riskRange returns the minimum-variance risk and the unconstrained risk of opt on projects
func riskRange(t *testing.T, opt *Optimizer, projects []ScoredProject) (floor, free float64) {
	t.Helper()
	minVar, err := NewOptimizer(Config{ReturnTilt: 0}, nil, zerolog.Nop()).Optimize(context.Background(), projects, Constraints{})
	require.NoError(t, err)
	require.False(t, minVar.Degraded, minVar.DegradedReason)

	unconstrained, err := opt.Optimize(context.Background(), projects, Constraints{})
	require.NoError(t, err)
	require.False(t, unconstrained.Degraded, unconstrained.DegradedReason)

	require.Greater(t, unconstrained.Risk, minVar.Risk+1e-3)
	return minVar.Risk, unconstrained.Risk
}
