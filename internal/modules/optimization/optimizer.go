package optimization

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/metrics"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
)

var tracer = otel.Tracer("greenfolio/optimization")

// DefaultReturnTilt weighs normalized expected return against variance in the objective
const DefaultReturnTilt = 0.05

// Config tunes the optimizer
type Config struct {
	ReturnTilt    float64
	MaxIterations int // inner solver iterations per outer round
}

// Optimizer turns scored projects into a capital allocation. It is stateless and safe for concurrent use.
type Optimizer struct {
	solver      *MVOptimizer
	riskBuilder *RiskModelBuilder
	tilt        float64
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Optimizer {
	tilt := cfg.ReturnTilt
	if tilt < 0 || math.IsNaN(tilt) {
		tilt = DefaultReturnTilt
	}
	return &Optimizer{
		solver:      NewMVOptimizer(cfg.MaxIterations),
		riskBuilder: NewRiskModelBuilder(log),
		tilt:        tilt,
		metrics:     m,
		log:         log.With().Str("component", "optimizer").Logger(),
	}
}

// weighting is the outcome of the weight assignment step
type weighting struct {
	weights []float64
	method  Method
	reason  string
}

// Optimize allocates the budget across projects under c.
// Infeasible constraints do not fail the call: the result falls back to equal
// weights and is flagged Degraded. A feasible allocation is never degraded, even
// when the solver stops before its tolerances are met.
func (o *Optimizer) Optimize(ctx context.Context, projects []ScoredProject, c Constraints) (Result, error) {
	if len(projects) == 0 {
		return Result{}, domain.ErrEmptyInput
	}
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	_, span := tracer.Start(ctx, "optimization.Optimize")
	defer span.End()
	start := time.Now()

	pm := deriveAll(projects)
	model := o.riskBuilder.Build(pm)

	var wt weighting
	if len(pm) == 1 {
		// nothing to solve; constraints are only reported
		wt = weighting{weights: []float64{1}, method: MethodSingle}
		wt.reason = violatedConstraint(pm, model, wt.weights, c)
	} else {
		wt = o.assignWeights(pm, model, c)
	}

	result := buildResult(projects, pm, model, wt, totalBudget(pm, c))

	span.SetAttributes(
		attribute.Int("projects", len(projects)),
		attribute.String("method", string(result.Method)),
		attribute.Bool("degraded", result.Degraded),
	)
	o.metrics.Optimization(string(result.Method), result.Degraded, time.Since(start))

	if result.Degraded {
		o.log.Warn().
			Int("projects", len(projects)).
			Str("reason", result.DegradedReason).
			Msg("Allocation degraded")
	} else {
		o.log.Debug().
			Int("projects", len(projects)).
			Str("method", string(result.Method)).
			Float64("risk", result.Risk).
			Float64("esg_score", result.ESGScore).
			Msg("Allocation computed")
	}

	return result, nil
}

func (o *Optimizer) assignWeights(pm []ProjectMetrics, model *RiskModel, c Constraints) weighting {
	n := len(pm)
	equal := equalWeights(n)

	if identicalMetrics(pm) {
		if reason := violatedConstraint(pm, model, equal, c); reason != "" {
			return weighting{weights: equal, method: MethodEqualWeight, reason: reason}
		}
		return weighting{weights: equal, method: MethodOptimized}
	}

	esg := make([]float64, n)
	for i, m := range pm {
		esg[i] = m.ESGScore
	}

	if c.MinESGScore != nil {
		if best := floats.Max(esg); best < *c.MinESGScore {
			return weighting{
				weights: equal,
				method:  MethodEqualWeight,
				reason:  fmt.Sprintf("minimum ESG score %.2f exceeds best project score %.2f", *c.MinESGScore, best),
			}
		}
	}

	feasible := func(w []float64) bool { return violatedConstraint(pm, model, w, c) == "" }

	var anchor []float64
	if c.MinESGScore != nil || c.MaxRisk != nil {
		var reason string
		if anchor, reason = o.feasibleAnchor(pm, model, esg, c); anchor == nil {
			return weighting{weights: equal, method: MethodEqualWeight, reason: reason}
		}
	}

	tilt := normalizeReturns(pm)
	floats.Scale(o.tilt, tilt)

	problem := Problem{Sigma: model.Covariance, Tilt: tilt, ESG: esg, MinESG: c.MinESGScore}
	if c.MaxRisk != nil {
		maxVar := *c.MaxRisk * *c.MaxRisk
		problem.MaxVariance = &maxVar
	}

	sol := o.solver.Solve(problem)
	w := cleanWeights(sol.Weights)
	if anchor != nil {
		w = pullToFeasible(w, anchor, feasible)
	}
	if feasible(equal) && problem.objective(equal) < problem.objective(w) {
		w = equal
	}
	if !sol.Converged {
		o.log.Debug().
			Int("iterations", sol.Iterations).
			Float64("violation", sol.Violation).
			Msg("Solver stopped early, keeping best feasible weights")
	}

	return weighting{weights: w, method: MethodOptimized}
}

// feasibleAnchor returns weights satisfying c, or nil and the reason none were found.
// The ESG floor is linear and the risk cap convex, so the feasible set is convex and
// any allocation can be pulled onto it along the segment to the anchor.
func (o *Optimizer) feasibleAnchor(pm []ProjectMetrics, model *RiskModel, esg []float64, c Constraints) ([]float64, string) {
	n := len(esg)
	vertex := make([]float64, n)
	vertex[floats.MaxIdx(esg)] = 1
	if c.MaxRisk == nil {
		return vertex, ""
	}

	minVar := o.solver.Solve(Problem{Sigma: model.Covariance, Tilt: make([]float64, n), ESG: esg, MinESG: c.MinESGScore})
	w := cleanWeights(minVar.Weights)
	if c.MinESGScore != nil {
		floor := Constraints{MinESGScore: c.MinESGScore}
		w = pullToFeasible(w, vertex, func(v []float64) bool {
			return violatedConstraint(pm, model, v, floor) == ""
		})
	}

	for _, candidate := range [][]float64{w, vertex, equalWeights(n)} {
		if violatedConstraint(pm, model, candidate, c) == "" {
			return candidate, ""
		}
	}
	if c.MinESGScore != nil {
		return nil, fmt.Sprintf("minimum attainable risk %.4f at ESG score %.2f exceeds maximum risk %.4f",
			model.PortfolioRisk(w), *c.MinESGScore, *c.MaxRisk)
	}
	return nil, fmt.Sprintf("minimum attainable risk %.4f exceeds maximum risk %.4f", model.PortfolioRisk(w), *c.MaxRisk)
}

// pullToFeasible bisects along the segment from w to anchor for the feasible point closest to w.
// anchor must be feasible.
func pullToFeasible(w, anchor []float64, feasible func([]float64) bool) []float64 {
	if feasible(w) {
		return w
	}
	at := func(t float64) []float64 {
		out := make([]float64, len(w))
		for i := range out {
			out[i] = (1-t)*w[i] + t*anchor[i]
		}
		return out
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if feasible(at(mid)) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return at(hi)
}

// violatedConstraint describes the first constraint weights break, or returns ""
func violatedConstraint(pm []ProjectMetrics, model *RiskModel, weights []float64, c Constraints) string {
	if c.MinESGScore != nil {
		esg := 0.0
		for i, m := range pm {
			esg += weights[i] * m.ESGScore
		}
		if esg < *c.MinESGScore-1e-9 {
			return fmt.Sprintf("portfolio ESG score %.2f below minimum %.2f", esg, *c.MinESGScore)
		}
	}
	if c.MaxRisk != nil {
		if r := model.PortfolioRisk(weights); r > *c.MaxRisk+1e-9 {
			return fmt.Sprintf("portfolio risk %.4f exceeds maximum %.4f", r, *c.MaxRisk)
		}
	}
	return ""
}

func buildResult(projects []ScoredProject, pm []ProjectMetrics, model *RiskModel, wt weighting, budget float64) Result {
	result := Result{
		Allocations: make([]Allocation, len(projects)),
		TotalBudget: budget,
		Method:      wt.method,
		Degraded:    wt.reason != "",
	}
	if result.Degraded {
		result.DegradedReason = wt.reason
		if result.Method != MethodSingle {
			result.Method = MethodEqualWeight
		}
	}

	for i, p := range projects {
		w := wt.weights[i]
		result.Allocations[i] = Allocation{
			ProjectID: p.Project.ID,
			Name:      p.Project.Name,
			Weight:    w,
			Amount:    w * budget,
		}
		result.ExpectedReturn += w * pm[i].ExpectedReturn
		result.ESGScore += w * pm[i].ESGScore
	}
	result.Risk = model.PortfolioRisk(wt.weights)
	return result
}

// totalBudget is min(maxBudget, sum of budgets)
func totalBudget(pm []ProjectMetrics, c Constraints) float64 {
	sum := 0.0
	for _, m := range pm {
		sum += m.Budget
	}
	if c.MaxBudget != nil && *c.MaxBudget < sum {
		return *c.MaxBudget
	}
	return sum
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// cleanWeights zeroes numerical dust and renormalizes to sum 1
func cleanWeights(w []float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		if v < 1e-10 || math.IsNaN(v) {
			v = 0
		}
		out[i] = math.Min(v, 1)
		sum += out[i]
	}
	if sum <= 0 {
		return equalWeights(len(w))
	}
	floats.Scale(1/sum, out)
	return out
}

func identicalMetrics(pm []ProjectMetrics) bool {
	const eps = 1e-12
	first := pm[0]
	for _, m := range pm[1:] {
		if math.Abs(m.ExpectedReturn-first.ExpectedReturn) > eps ||
			math.Abs(m.RiskSeverity-first.RiskSeverity) > eps ||
			math.Abs(m.ESGScore-first.ESGScore) > eps ||
			math.Abs(m.environmental-first.environmental) > eps ||
			math.Abs(m.social-first.social) > eps ||
			math.Abs(m.governance-first.governance) > eps {
			return false
		}
	}
	return true
}

// Validate rejects negative or non-finite bounds
func (c Constraints) Validate() error {
	if c.MaxBudget != nil && (!isFinite(*c.MaxBudget) || *c.MaxBudget <= 0) {
		return domain.NewValidationError("constraints.maxBudget", "must be a positive number")
	}
	if c.MinESGScore != nil && (!isFinite(*c.MinESGScore) || *c.MinESGScore < 0 || *c.MinESGScore > 100) {
		return domain.NewValidationError("constraints.minESGScore", "must be between 0 and 100")
	}
	if c.MaxRisk != nil && (!isFinite(*c.MaxRisk) || *c.MaxRisk < 0) {
		return domain.NewValidationError("constraints.maxRisk", "must be a non-negative number")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
