package optimization

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// eigenvalues below this are clipped when repairing the correlation matrix
const minEigenvalue = 0.0

// RiskModel holds the inter-project correlation and covariance used by the optimizer
type RiskModel struct {
	Correlation *mat.SymDense
	Covariance  *mat.SymDense
	// Repaired is set when the correlation matrix had negative eigenvalues clipped
	Repaired bool
}

// RiskModelBuilder derives a RiskModel from project metrics.
//
// Projects carry no return history, so correlation is measured between
// per-project profiles: pillar scores (scaled to [0,1]), normalized expected
// return and risk severity. Two projects with similar profiles are treated as
// exposed to the same drivers.
type RiskModelBuilder struct {
	log zerolog.Logger
}

// NewRiskModelBuilder creates a new risk model builder
func NewRiskModelBuilder(log zerolog.Logger) *RiskModelBuilder {
	return &RiskModelBuilder{
		log: log.With().Str("component", "risk_model").Logger(),
	}
}

// Build computes correlation and covariance for metrics.
// Covariance is Sigma_ij = s_i * s_j * rho_ij with s the risk severity.
func (rb *RiskModelBuilder) Build(metrics []ProjectMetrics) *RiskModel {
	n := len(metrics)
	normalized := normalizeReturns(metrics)

	profiles := make([][]float64, n)
	for i, m := range metrics {
		profiles[i] = []float64{
			m.environmental / 100,
			m.social / 100,
			m.governance / 100,
			normalized[i],
			m.RiskSeverity,
		}
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			corr.SetSym(i, j, profileCorrelation(profiles[i], profiles[j]))
		}
	}

	repaired, changed := nearestPSDCorrelation(corr)
	if changed {
		rb.log.Debug().Int("projects", n).Msg("Clipped negative eigenvalues in correlation matrix")
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, metrics[i].RiskSeverity*metrics[j].RiskSeverity*repaired.At(i, j))
		}
	}

	return &RiskModel{Correlation: repaired, Covariance: cov, Repaired: changed}
}

// PortfolioVariance returns w' Sigma w
func (m *RiskModel) PortfolioVariance(weights []float64) float64 {
	w := mat.NewVecDense(len(weights), weights)
	return math.Max(0, mat.Inner(w, m.Covariance, w))
}

// PortfolioRisk returns sqrt(w' Sigma w)
func (m *RiskModel) PortfolioRisk(weights []float64) float64 {
	return math.Sqrt(m.PortfolioVariance(weights))
}

// profileCorrelation is the Pearson correlation of two profiles, 0 when either is constant
func profileCorrelation(a, b []float64) float64 {
	if isConstant(a) || isConstant(b) {
		return 0
	}
	rho := stat.Correlation(a, b, nil)
	if math.IsNaN(rho) {
		return 0
	}
	return math.Max(-1, math.Min(1, rho))
}

func isConstant(x []float64) bool {
	return floats.Max(x)-floats.Min(x) < 1e-12
}

// nearestPSDCorrelation clips negative eigenvalues and rescales to a unit diagonal.
// The input is returned unchanged when it is already positive semi-definite.
func nearestPSDCorrelation(c *mat.SymDense) (*mat.SymDense, bool) {
	n := c.SymmetricDim()

	var eig mat.EigenSym
	if ok := eig.Factorize(c, true); !ok {
		// identity is always a valid correlation matrix
		id := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			id.SetSym(i, i, 1)
		}
		return id, true
	}

	values := eig.Values(nil)
	if floats.Min(values) >= -1e-12 {
		return c, false
	}
	for i, v := range values {
		if v < minEigenvalue {
			values[i] = minEigenvalue
		}
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	var scaled, rebuilt mat.Dense
	scaled.Mul(&vectors, mat.NewDiagDense(n, values))
	rebuilt.Mul(&scaled, vectors.T())

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			di := math.Sqrt(math.Max(rebuilt.At(i, i), 1e-12))
			dj := math.Sqrt(math.Max(rebuilt.At(j, j), 1e-12))
			v := 0.5 * (rebuilt.At(i, j) + rebuilt.At(j, i)) / (di * dj)
			if i == j {
				v = 1
			}
			out.SetSym(i, j, math.Max(-1, math.Min(1, v)))
		}
	}
	return out, true
}

// normalizeReturns scales expected returns to [0,1]; all zeros when they are equal
func normalizeReturns(metrics []ProjectMetrics) []float64 {
	out := make([]float64, len(metrics))
	if len(metrics) == 0 {
		return out
	}
	lo, hi := metrics[0].ExpectedReturn, metrics[0].ExpectedReturn
	for _, m := range metrics[1:] {
		lo = math.Min(lo, m.ExpectedReturn)
		hi = math.Max(hi, m.ExpectedReturn)
	}
	if hi-lo < 1e-12 {
		return out
	}
	for i, m := range metrics {
		out[i] = (m.ExpectedReturn - lo) / (hi - lo)
	}
	return out
}
