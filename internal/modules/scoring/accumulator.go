package scoring

import "math"

// accumulator sums weighted sub-factor scores and the weights of the sub-factors that were present.
// Absent sub-factors contribute to neither sum.
type accumulator struct {
	pillar    Pillar
	weighted  float64
	weightSum float64
	factors   map[string]float64
}

func newAccumulator(p Pillar) *accumulator {
	return &accumulator{pillar: p, factors: make(map[string]float64)}
}

func (a *accumulator) add(name string, weight float64, value float64, present bool) {
	if !present {
		return
	}
	v := clampScore(value)
	a.weighted += weight * v
	a.weightSum += weight
	a.factors[name] = v
}

func (a *accumulator) result() PillarScore {
	value := 0.0
	if a.weightSum > 0 {
		value = clampScore(a.weighted / a.weightSum)
	}
	return PillarScore{Pillar: a.pillar, Value: value, Factors: a.factors}
}

// clampScore bounds v to [0,100]; NaN and ±Inf collapse to 0
func clampScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
