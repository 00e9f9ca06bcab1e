// Package risk aggregates a project's risk register into severity and mitigation figures.
package risk

import (
	"math"

	"github.com/aristath/greenfolio/internal/domain"
)

// CategoryGroup holds the risks sharing one category label
type CategoryGroup struct {
	Category string        `json:"category"`
	Risks    []domain.Risk `json:"risks"`
}

// Analysis is the aggregate view of a risk list.
// Severity of a single risk is likelihood × impact, with both clamped to [0,1].
type Analysis struct {
	MeanSeverity       float64         `json:"meanSeverity"`
	MaxSeverity        float64         `json:"maxSeverity"`
	MitigationCoverage float64         `json:"mitigationCoverage"` // fraction of risks with a mitigation strategy
	Count              int             `json:"count"`
	Categories         []CategoryGroup `json:"categories"` // ordered by first appearance
}

// Analyze computes the risk aggregate. An empty list yields zero severity and zero coverage.
func Analyze(risks []domain.Risk) Analysis {
	a := Analysis{
		Count:      len(risks),
		Categories: []CategoryGroup{},
	}
	if len(risks) == 0 {
		return a
	}

	index := make(map[string]int)
	var total float64
	var mitigated int
	for _, r := range risks {
		sev := Severity(r)
		total += sev
		if sev > a.MaxSeverity {
			a.MaxSeverity = sev
		}
		if r.HasMitigation() {
			mitigated++
		}

		i, ok := index[r.Category]
		if !ok {
			i = len(a.Categories)
			index[r.Category] = i
			a.Categories = append(a.Categories, CategoryGroup{Category: r.Category})
		}
		a.Categories[i].Risks = append(a.Categories[i].Risks, r)
	}

	n := float64(len(risks))
	a.MeanSeverity = total / n
	a.MitigationCoverage = float64(mitigated) / n
	return a
}

// Severity returns likelihood × impact for a single risk
func Severity(r domain.Risk) float64 {
	return clampUnit(r.Likelihood) * clampUnit(r.Impact)
}

// ManagementScore is the governance risk-management sub-factor on a 0-100 scale:
// 60% severity score (100 - mean×10, floored at 0) and 40% mitigation coverage.
func (a Analysis) ManagementScore() float64 {
	severityScore := math.Max(0, 100-a.MeanSeverity*10)
	mitigationScore := a.MitigationCoverage * 100
	return 0.6*severityScore + 0.4*mitigationScore
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
