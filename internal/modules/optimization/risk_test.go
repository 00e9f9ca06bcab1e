package optimization

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestRiskModelBuilder_Build(t *testing.T) {
	pm := deriveAll(diversePortfolio())
	model := NewRiskModelBuilder(zerolog.Nop()).Build(pm)

	n := len(pm)
	require.Equal(t, n, model.Correlation.SymmetricDim())
	require.Equal(t, n, model.Covariance.SymmetricDim())

	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, model.Correlation.At(i, i), 1e-9)
		assert.InDelta(t, pm[i].RiskSeverity*pm[i].RiskSeverity, model.Covariance.At(i, i), 1e-9)
		for j := 0; j < n; j++ {
			assert.InDelta(t, model.Correlation.At(i, j), model.Correlation.At(j, i), 1e-12)
			assert.LessOrEqual(t, math.Abs(model.Correlation.At(i, j)), 1.0+1e-12)
		}
	}

	var eig mat.EigenSym
	require.True(t, eig.Factorize(model.Covariance, false))
	assert.GreaterOrEqual(t, floats.Min(eig.Values(nil)), -1e-9, "covariance must be positive semi-definite")
}

func TestRiskModel_PortfolioRisk(t *testing.T) {
	t.Run("no risks", func(t *testing.T) {
		pm := deriveAll([]ScoredProject{scored("a", 1_000_000, 80, 80, 80, 50, 0)})
		model := NewRiskModelBuilder(zerolog.Nop()).Build(pm)
		assert.Equal(t, 0.0, model.PortfolioRisk([]float64{1}))
	})

	t.Run("single project equals its severity", func(t *testing.T) {
		pm := deriveAll([]ScoredProject{scored("a", 1_000_000, 80, 80, 80, 50, 0.3)})
		model := NewRiskModelBuilder(zerolog.Nop()).Build(pm)
		assert.InDelta(t, 0.3, model.PortfolioRisk([]float64{1}), 1e-12)
	})
}

func TestProfileCorrelation(t *testing.T) {
	a := []float64{0.8, 0.6, 0.7, 1, 0.2}

	assert.InDelta(t, 1.0, profileCorrelation(a, a), 1e-12)
	assert.Equal(t, 0.0, profileCorrelation(a, []float64{0.5, 0.5, 0.5, 0.5, 0.5}))

	negated := make([]float64, len(a))
	for i, v := range a {
		negated[i] = -v
	}
	assert.InDelta(t, -1.0, profileCorrelation(a, negated), 1e-12)
}

func TestNearestPSDCorrelation(t *testing.T) {
	t.Run("valid matrix unchanged", func(t *testing.T) {
		c := mat.NewSymDense(2, []float64{1, 0.4, 0.4, 1})
		out, changed := nearestPSDCorrelation(c)
		assert.False(t, changed)
		assert.Equal(t, 0.4, out.At(0, 1))
	})

	t.Run("indefinite matrix repaired", func(t *testing.T) {
		c := mat.NewSymDense(3, []float64{
			1, 0.9, -0.9,
			0.9, 1, 0.9,
			-0.9, 0.9, 1,
		})
		out, changed := nearestPSDCorrelation(c)
		require.True(t, changed)

		var eig mat.EigenSym
		require.True(t, eig.Factorize(out, false))
		assert.GreaterOrEqual(t, floats.Min(eig.Values(nil)), -1e-9)
		for i := 0; i < 3; i++ {
			assert.Equal(t, 1.0, out.At(i, i))
		}
	})
}

func TestNormalizeReturns(t *testing.T) {
	pm := []ProjectMetrics{{ExpectedReturn: 10}, {ExpectedReturn: 30}, {ExpectedReturn: 20}}
	assert.Equal(t, []float64{0, 1, 0.5}, normalizeReturns(pm))

	flat := []ProjectMetrics{{ExpectedReturn: 5}, {ExpectedReturn: 5}}
	assert.Equal(t, []float64{0, 0}, normalizeReturns(flat))
}
