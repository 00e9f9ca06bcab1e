package optimization

import (
	"context"
	"testing"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_PreservesOrderAndRespectsEachLevel(t *testing.T) {
	opt := NewOptimizer(Config{ReturnTilt: 1}, nil, zerolog.Nop())
	floor, free := riskRange(t, opt, tradeoffPortfolio())
	levels := []float64{
		floor + 0.75*(free-floor),
		floor + 0.25*(free-floor),
		floor + 0.5*(free-floor),
	}

	gen := NewScenarioGenerator(opt, 2, zerolog.Nop())
	scenarios, err := gen.Sweep(context.Background(), tradeoffPortfolio(), Constraints{}, levels)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	for i, s := range scenarios {
		assert.Equal(t, levels[i], s.RiskLevel)
		require.False(t, s.Degraded, s.DegradedReason)
		assert.LessOrEqual(t, s.Risk, levels[i]+1e-9)

		weights, _ := sumWeights(s.Result)
		assert.InDelta(t, 1.0, weights, 1e-9)
	}

	// every cap binds, so a looser cap buys strictly more risk and return
	assert.Less(t, scenarios[1].Risk, scenarios[2].Risk)
	assert.Less(t, scenarios[2].Risk, scenarios[0].Risk)
	assert.Less(t, scenarios[1].ExpectedReturn, scenarios[2].ExpectedReturn)
	assert.Less(t, scenarios[2].ExpectedReturn, scenarios[0].ExpectedReturn)
}

func TestSweep_KeepsBaseConstraints(t *testing.T) {
	gen := NewScenarioGenerator(newTestOptimizer(), 0, zerolog.Nop())
	maxBudget := 2_000_000.0
	minESG := 65.0

	scenarios, err := gen.Sweep(context.Background(), diversePortfolio(),
		Constraints{MaxBudget: &maxBudget, MinESGScore: &minESG}, []float64{0.5, 0.3})
	require.NoError(t, err)

	for _, s := range scenarios {
		assert.Equal(t, maxBudget, s.TotalBudget)
		if !s.Degraded {
			assert.GreaterOrEqual(t, s.ESGScore, minESG-1e-3)
		}
	}
}

func TestSweep_MatchesIndependentOptimizations(t *testing.T) {
	opt := NewOptimizer(Config{ReturnTilt: 1}, nil, zerolog.Nop())
	gen := NewScenarioGenerator(opt, 4, zerolog.Nop())
	levels := []float64{0.12, 0.16, 0.22, 0.5}

	scenarios, err := gen.Sweep(context.Background(), tradeoffPortfolio(), Constraints{}, levels)
	require.NoError(t, err)

	for i, level := range levels {
		want, err := opt.Optimize(context.Background(), tradeoffPortfolio(), Constraints{}.WithMaxRisk(level))
		require.NoError(t, err)
		assert.Equal(t, want, scenarios[i].Result)
	}
}

func TestSweep_Errors(t *testing.T) {
	gen := NewScenarioGenerator(newTestOptimizer(), 2, zerolog.Nop())

	_, err := gen.Sweep(context.Background(), nil, Constraints{}, []float64{0.5})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = gen.Sweep(context.Background(), diversePortfolio(), Constraints{}, nil)
	assert.True(t, domain.IsValidation(err))

	_, err = gen.Sweep(context.Background(), diversePortfolio(), Constraints{}, []float64{0.2, -0.1})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "riskLevels[1]")
}

func TestSweep_InvalidBaseConstraintIsNotBlamedOnALevel(t *testing.T) {
	gen := NewScenarioGenerator(newTestOptimizer(), 2, zerolog.Nop())

	_, err := gen.Sweep(context.Background(), diversePortfolio(), Constraints{MinESGScore: ptr(150)}, []float64{0.2, 0.4})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "constraints.minESGScore")
	assert.NotContains(t, err.Error(), "riskLevels")

	// the base cap is replaced per level, so an invalid one does not matter
	_, err = gen.Sweep(context.Background(), diversePortfolio(), Constraints{MaxRisk: ptr(-1)}, []float64{0.4})
	assert.NoError(t, err)
}
