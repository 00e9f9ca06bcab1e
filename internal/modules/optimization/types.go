// Package optimization allocates a capital budget across scored projects with a
// constrained mean-variance program and sweeps it across risk levels.
package optimization

import (
	"fmt"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/scoring"
)

// Method names the path that produced an allocation
type Method string

const (
	MethodSingle      Method = "single"
	MethodOptimized   Method = "optimized"
	MethodEqualWeight Method = "equal_weight"
)

// Constraints bound an allocation. A nil field is unconstrained.
type Constraints struct {
	MaxBudget   *float64 `json:"maxBudget,omitempty"`
	MinESGScore *float64 `json:"minESGScore,omitempty"`
	MaxRisk     *float64 `json:"maxRisk,omitempty"`
}

// WithMaxRisk returns a copy of c with MaxRisk replaced
func (c Constraints) WithMaxRisk(level float64) Constraints {
	c.MaxRisk = &level
	return c
}

// ScoredProject pairs a project with its score
type ScoredProject struct {
	Project domain.Project
	Score   scoring.Result
}

// ProjectMetrics is the per-project optimizer input. It lives for one Optimize call.
type ProjectMetrics struct {
	ProjectID      string
	ExpectedReturn float64
	RiskSeverity   float64
	ESGScore       float64
	Budget         float64

	// pillar scores feed the correlation profile
	environmental float64
	social        float64
	governance    float64
}

// Allocation is one project's share of the budget
type Allocation struct {
	ProjectID string  `json:"projectId"`
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	Amount    float64 `json:"amount"`
}

// Result is an allocation plus portfolio-level metrics
type Result struct {
	Allocations    []Allocation `json:"allocation"`
	ExpectedReturn float64      `json:"expectedReturn"`
	Risk           float64      `json:"risk"`
	ESGScore       float64      `json:"esgScore"`
	TotalBudget    float64      `json:"totalBudget"`
	Method         Method       `json:"method"`
	Degraded       bool         `json:"degraded"`
	DegradedReason string       `json:"degradedReason,omitempty"`
}

// Err returns ErrOptimizationInfeasible wrapped with the reason when the result is degraded
func (r Result) Err() error {
	if !r.Degraded {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrOptimizationInfeasible, r.DegradedReason)
}

// Scenario is one point of a risk sweep
type Scenario struct {
	RiskLevel float64 `json:"riskLevel"`
	Result
}
