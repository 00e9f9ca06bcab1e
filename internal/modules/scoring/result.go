// Package scoring turns raw project metrics into environmental, social and governance
// pillar scores on a 0-100 scale, normalising each pillar over the sub-factors actually reported.
package scoring

import (
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/risk"
)

// Pillar is one of the three ESG categories
type Pillar string

const (
	PillarEnvironmental Pillar = "environmental"
	PillarSocial        Pillar = "social"
	PillarGovernance    Pillar = "governance"
)

// Sub-factor names reported in PillarScore.Factors
const (
	FactorCarbonReduction      = "carbonReduction"
	FactorEnergyEfficiency     = "energyEfficiency"
	FactorWaterConservation    = "waterConservation"
	FactorWasteReduction       = "wasteReduction"
	FactorJobCreation          = "jobCreation"
	FactorCommunityImpact      = "communityImpact"
	FactorSocialInfrastructure = "socialInfrastructure"
	FactorTransparency         = "transparency"
	FactorCompliance           = "compliance"
	FactorRiskManagement       = "riskManagement"
)

// Total score weights
const (
	WeightEnvironmental = 0.4
	WeightSocial        = 0.3
	WeightGovernance    = 0.3
)

// PillarScore is a pillar value plus the score of every sub-factor that was present
type PillarScore struct {
	Pillar  Pillar             `json:"pillar"`
	Value   float64            `json:"value"`
	Factors map[string]float64 `json:"factors"`
}

// Factor returns the score of a sub-factor, or 0 if it was not present
func (p PillarScore) Factor(name string) float64 {
	return p.Factors[name]
}

// Result is the immutable outcome of scoring one project
type Result struct {
	ProjectID     string        `json:"projectId"`
	Environmental PillarScore   `json:"environmental"`
	Social        PillarScore   `json:"social"`
	Governance    PillarScore   `json:"governance"`
	Total         float64       `json:"total"`
	Risk          risk.Analysis `json:"risk"`
	// UnavailableBenchmarks names the lookups that failed or timed out
	UnavailableBenchmarks []string `json:"unavailableBenchmarks,omitempty"`
}

// PillarAverage is the unweighted mean of the three pillars, used as the allocation ESG score
func (r Result) PillarAverage() float64 {
	return (r.Environmental.Value + r.Social.Value + r.Governance.Value) / 3
}

// Snapshot converts the result into the form persisted with a project
func (r Result) Snapshot(at time.Time) domain.ScoreSnapshot {
	return domain.ScoreSnapshot{
		Environmental: r.Environmental.Value,
		Social:        r.Social.Value,
		Governance:    r.Governance.Value,
		Total:         r.Total,
		LastUpdated:   at,
	}
}
