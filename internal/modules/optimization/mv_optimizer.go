package optimization

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// ESG constraint residuals are measured in units of 100 score points
	esgScale = 100.0

	feasibilityTol = 1e-6
	multiplierTol  = 1e-5

	// stationarity and objective stall are measured relative to max(1, |f|)
	stationarityTol = 1e-7
	objectiveTol    = 1e-10

	// softmax cannot represent exact zeros, so warm starts lift them
	warmStartFloor   = 1e-6
	polishIterations = 500

	maxOuterRounds  = 30
	initialPenalty  = 10.0
	maxPenalty      = 1e9
	penaltyGrowth   = 10.0
	minStep         = 1e-16
	defaultMaxInner = 5000
)

// MVOptimizer solves
//
//	minimize    w' Sigma w - tilt' w
//	subject to  sum(w) = 1, 0 <= w_i <= 1
//	            esg' w >= minESG            (optional)
//	            w' Sigma w <= maxVariance   (optional)
//
// The two inequality constraints go through an augmented Lagrangian. Each inner
// round minimizes over a softmax parametrisation of the simplex with gonum's
// BFGS, then polishes with projected gradient steps using exact Euclidean
// projection onto the simplex.
type MVOptimizer struct {
	maxIterations int
}

// NewMVOptimizer creates a solver capped at maxIterations inner steps per outer round
func NewMVOptimizer(maxIterations int) *MVOptimizer {
	if maxIterations <= 0 {
		maxIterations = defaultMaxInner
	}
	return &MVOptimizer{maxIterations: maxIterations}
}

// Problem is one quadratic program instance
type Problem struct {
	Sigma       *mat.SymDense
	Tilt        []float64
	ESG         []float64
	MinESG      *float64
	MaxVariance *float64
}

// Solution is the solver output
type Solution struct {
	Weights    []float64
	Converged  bool
	Iterations int
	// Violation is the largest scaled constraint residual at Weights
	Violation float64
}

// augmented Lagrangian state for the inequality constraints
type alState struct {
	rho    float64
	yESG   float64
	yRisk  float64
	sigmaW *mat.VecDense
}

// Solve runs the solver starting from equal weights
func (mvo *MVOptimizer) Solve(p Problem) Solution {
	n := p.Sigma.SymmetricDim()
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	st := &alState{rho: initialPenalty, sigmaW: mat.NewVecDense(n, nil)}
	constrained := p.MinESG != nil || p.MaxVariance != nil

	total := 0
	innerConverged := false
	prevViolation := math.Inf(1)
	for round := 0; round < maxOuterRounds; round++ {
		var iters int
		w, innerConverged, iters = mvo.minimize(p, st, w)
		total += iters

		gESG, gRisk := p.residuals(w, st)
		violation := math.Max(0, math.Max(gESG, gRisk))
		if !constrained {
			return Solution{Weights: w, Converged: innerConverged, Iterations: total}
		}

		newESG := math.Max(0, st.yESG+st.rho*gESG)
		newRisk := math.Max(0, st.yRisk+st.rho*gRisk)
		multiplierShift := math.Max(math.Abs(newESG-st.yESG), math.Abs(newRisk-st.yRisk))
		st.yESG, st.yRisk = newESG, newRisk

		if innerConverged && violation <= feasibilityTol && multiplierShift <= multiplierTol*math.Max(1, math.Max(newESG, newRisk)) {
			return Solution{Weights: w, Converged: true, Iterations: total, Violation: violation}
		}

		if violation > 0.25*prevViolation && st.rho < maxPenalty {
			st.rho *= penaltyGrowth
		}
		prevViolation = violation
	}

	// multipliers still moving, but a feasible stationary point is good enough
	gESG, gRisk := p.residuals(w, st)
	violation := math.Max(0, math.Max(gESG, gRisk))
	return Solution{
		Weights:    w,
		Converged:  innerConverged && violation <= feasibilityTol,
		Iterations: total,
		Violation:  violation,
	}
}

// residuals returns the scaled constraint values g(w), positive when violated.
// st.sigmaW is left holding Sigma w.
func (p Problem) residuals(w []float64, st *alState) (gESG, gRisk float64) {
	gESG, gRisk = math.Inf(-1), math.Inf(-1)
	wv := mat.NewVecDense(len(w), w)
	st.sigmaW.MulVec(p.Sigma, wv)
	if p.MinESG != nil {
		gESG = (*p.MinESG - floats.Dot(p.ESG, w)) / esgScale
	}
	if p.MaxVariance != nil {
		gRisk = floats.Dot(w, st.sigmaW.RawVector().Data) - *p.MaxVariance
	}
	return gESG, gRisk
}

// lagrangian evaluates the augmented objective and, when grad is non-nil, its gradient
func (p Problem) lagrangian(w []float64, st *alState, grad []float64) float64 {
	gESG, gRisk := p.residuals(w, st)
	sw := st.sigmaW.RawVector().Data

	variance := floats.Dot(w, sw)
	value := variance - floats.Dot(p.Tilt, w)

	// psi(g) = max(0, y + rho*g)^2 / (2 rho) - y^2 / (2 rho)
	multESG, multRisk := 0.0, 0.0
	if p.MinESG != nil {
		multESG = math.Max(0, st.yESG+st.rho*gESG)
		value += (multESG*multESG - st.yESG*st.yESG) / (2 * st.rho)
	}
	if p.MaxVariance != nil {
		multRisk = math.Max(0, st.yRisk+st.rho*gRisk)
		value += (multRisk*multRisk - st.yRisk*st.yRisk) / (2 * st.rho)
	}

	if grad != nil {
		for i := range grad {
			grad[i] = 2*sw[i]*(1+multRisk) - p.Tilt[i]
			if multESG > 0 {
				grad[i] -= multESG * p.ESG[i] / esgScale
			}
		}
	}
	return value
}

// minimize finds a stationary point of the augmented objective over the simplex.
// BFGS runs in softmax coordinates, where the simplex is unconstrained; a projected
// gradient polish then lands exactly on the faces softmax can only approach.
func (mvo *MVOptimizer) minimize(p Problem, st *alState, start []float64) ([]float64, bool, int) {
	n := len(start)
	z0 := make([]float64, n)
	for i, v := range start {
		z0[i] = math.Log(math.Max(v, warmStartFloor))
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			return p.lagrangian(softmax(z), st, nil)
		},
		Grad: func(grad, z []float64) {
			w := softmax(z)
			gw := make([]float64, n)
			p.lagrangian(w, st, gw)
			// chain rule through softmax: dL/dz_j = w_j (dL/dw_j - w'dL/dw)
			mean := floats.Dot(w, gw)
			for j := range grad {
				grad[j] = w[j] * (gw[j] - mean)
			}
		},
	}

	result, err := optimize.Minimize(problem, z0, mvo.settings(), &optimize.BFGS{})
	if err != nil && (result == nil || result.F > problem.Func(z0)) {
		result, err = optimize.Minimize(problem, z0, mvo.settings(), &optimize.NelderMead{})
	}

	w := append([]float64(nil), start...)
	settled := false
	iters := 0
	if result != nil {
		iters = result.MajorIterations
		if result.F <= p.lagrangian(w, st, nil) {
			w = softmax(result.X)
		}
		settled = err == nil && (result.Status == optimize.Success ||
			result.Status == optimize.GradientThreshold ||
			result.Status == optimize.FunctionConvergence)
	}

	budget := polishIterations
	if !settled {
		budget = mvo.maxIterations
	}
	w, residual, steps, before, after := p.polish(st, w, budget)

	scale := math.Max(1, math.Abs(after))
	converged := residual <= stationarityTol*scale || (settled && before-after <= objectiveTol*scale)
	return w, converged, iters + steps
}

func (mvo *MVOptimizer) settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations:   mvo.maxIterations,
		GradientThreshold: 1e-12,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   1e-13,
			Iterations: 20,
		},
	}
}

// polish runs projected gradient with Armijo backtracking on the augmented objective.
// It returns the weights, their gradient mapping norm, the steps taken and the objective before and after.
func (p Problem) polish(st *alState, start []float64, maxSteps int) ([]float64, float64, int, float64, float64) {
	n := len(start)
	w := append([]float64(nil), start...)
	projectSimplex(w)
	grad := make([]float64, n)
	cand := make([]float64, n)
	step := 1.0

	before := p.lagrangian(w, st, grad)
	value := before
	steps := 0
	for ; steps < maxSteps; steps++ {
		if gradientMapping(w, grad) <= stationarityTol*math.Max(1, math.Abs(value)) {
			break
		}

		accepted := false
		for step >= minStep {
			for i := range cand {
				cand[i] = w[i] - step*grad[i]
			}
			projectSimplex(cand)

			// sufficient decrease: f(x+) <= f(x) + g'd + |d|^2 / (2 step)
			var gd, dd float64
			for i := range cand {
				d := cand[i] - w[i]
				gd += grad[i] * d
				dd += d * d
			}
			if p.lagrangian(cand, st, nil) <= value+gd+dd/(2*step)+1e-15 {
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			break
		}

		copy(w, cand)
		value = p.lagrangian(w, st, grad)
		step = math.Min(step*2, 1e6)
	}
	return w, gradientMapping(w, grad), steps, before, value
}

// gradientMapping is the infinity-norm distance a unit projected gradient step moves w
func gradientMapping(w, grad []float64) float64 {
	next := make([]float64, len(w))
	for i := range next {
		next[i] = w[i] - grad[i]
	}
	projectSimplex(next)
	return floats.Distance(next, w, math.Inf(1))
}

// softmax maps z onto the interior of the simplex
func softmax(z []float64) []float64 {
	w := make([]float64, len(z))
	top := floats.Max(z)
	for i, v := range z {
		w[i] = math.Exp(v - top)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}

// objective is the unpenalized w' Sigma w - tilt' w
func (p Problem) objective(w []float64) float64 {
	wv := mat.NewVecDense(len(w), w)
	return mat.Inner(wv, p.Sigma, wv) - floats.Dot(p.Tilt, w)
}

// projectSimplex replaces v with its Euclidean projection onto {w >= 0, sum(w) = 1}
func projectSimplex(v []float64) {
	n := len(v)
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	var cumsum, theta float64
	for j := 0; j < n; j++ {
		cumsum += u[j]
		t := (cumsum - 1) / float64(j+1)
		if u[j]-t > 0 {
			theta = t
		}
	}
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}
