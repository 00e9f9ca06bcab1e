package optimization

import (
	"github.com/aristath/greenfolio/internal/modules/scoring"
)

// Expected return blend, in impact points per million invested
const (
	returnWeightEnergy        = 0.4
	returnWeightSocial        = 0.3
	returnWeightEnvironmental = 0.3

	budgetUnit = 1_000_000.0
)

// DeriveMetrics computes the optimizer input for one scored project
func DeriveMetrics(sp ScoredProject) ProjectMetrics {
	s := sp.Score
	impact := returnWeightEnergy*s.Environmental.Factor(scoring.FactorEnergyEfficiency) +
		returnWeightSocial*s.Social.Value +
		returnWeightEnvironmental*s.Environmental.Value

	var expected float64
	if millions := sp.Project.Budget / budgetUnit; millions > 0 {
		expected = impact / millions
	}

	return ProjectMetrics{
		ProjectID:      sp.Project.ID,
		ExpectedReturn: expected,
		RiskSeverity:   s.Risk.MeanSeverity,
		ESGScore:       s.PillarAverage(),
		Budget:         sp.Project.Budget,
		environmental:  s.Environmental.Value,
		social:         s.Social.Value,
		governance:     s.Governance.Value,
	}
}

func deriveAll(projects []ScoredProject) []ProjectMetrics {
	out := make([]ProjectMetrics, len(projects))
	for i, p := range projects {
		out[i] = DeriveMetrics(p)
	}
	return out
}
