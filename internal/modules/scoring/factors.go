package scoring

import (
	"math"

	"github.com/aristath/greenfolio/internal/domain"
)

// Environmental sub-factor weights
const (
	weightCarbon = 0.4
	weightEnergy = 0.3
	weightWater  = 0.15
	weightWaste  = 0.15
)

// Social sub-factor weights
const (
	weightJobs           = 0.3
	weightCommunity      = 0.3
	weightInfrastructure = 0.4
)

// Governance sub-factor weights
const (
	weightTransparency   = 0.4
	weightCompliance     = 0.3
	weightRiskManagement = 0.3
)

func carbonFactor(amount, sectorAverage float64) float64 {
	return math.Min(100, amount/sectorAverage*70)
}

// energyEfficiencyFactor is present only when both fields are reported and usage is positive
func energyEfficiencyFactor(e *domain.EnergyEfficiency) (float64, bool) {
	if e == nil || e.CurrentUsage == nil || e.ProjectedSavings == nil || *e.CurrentUsage <= 0 {
		return 0, false
	}
	return math.Min(100, *e.ProjectedSavings / *e.CurrentUsage * 100), true
}

func waterFactor(amount, regionalAverage, stressLevel float64) float64 {
	stress := math.Max(0, math.Min(1, stressLevel))
	return math.Min(100, (amount/regionalAverage*70)*(1+stress*0.3))
}

func wasteFactor(amount float64) float64 {
	return math.Min(100, amount*0.1)
}

// jobsPerMillion normalises job creation by budget in millions
func jobsPerMillion(jobs, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return jobs / (budget / 1e6)
}

func jobCreationFactor(perMillion, industryAverage float64) float64 {
	return math.Min(100, perMillion/industryAverage*70)
}

// jobCreationFallback scores job creation without a benchmark
func jobCreationFallback(perMillion float64) float64 {
	return math.Min(100, perMillion*5)
}

// communityImpactFactor averages reach and depth. It is present only when at least one community is served.
func communityImpactFactor(s domain.SocialMetrics) (float64, bool) {
	if s.CommunitiesServed == nil || *s.CommunitiesServed <= 0 {
		return 0, false
	}
	communities := *s.CommunitiesServed
	reach := math.Min(100, communities*10)
	depth := 0.0
	if s.BeneficiariesCount != nil {
		depth = math.Min(100, *s.BeneficiariesCount/communities*0.1)
	}
	return (reach + depth) / 2, true
}

// socialInfrastructureFactor is 100 × true flags / defined flags, 0 when no flag is defined
func socialInfrastructureFactor(s domain.SocialMetrics) float64 {
	var defined, set int
	for _, flag := range []*bool{s.HealthcareAccess, s.EducationInitiatives, s.AffordableHousing} {
		if flag == nil {
			continue
		}
		defined++
		if *flag {
			set++
		}
	}
	if defined == 0 {
		return 0
	}
	return 100 * float64(set) / float64(defined)
}

// frequencyMultiplier rewards frequent reporting
func frequencyMultiplier(f domain.ReportingFrequency) float64 {
	switch f {
	case domain.ReportingMonthly:
		return 1.2
	case domain.ReportingQuarterly:
		return 1.1
	case domain.ReportingSemiAnnual:
		return 1.0
	case domain.ReportingAnnual:
		return 0.9
	default:
		return 0.8
	}
}

func transparencyFactor(g domain.GovernanceMetrics) float64 {
	if g.TransparencyScore == nil {
		return 0
	}
	return math.Min(100, *g.TransparencyScore*frequencyMultiplier(g.ReportingFrequency))
}

func complianceFactor(g domain.GovernanceMetrics) float64 {
	base := 0.0
	switch g.ComplianceStatus {
	case domain.ComplianceCompliant:
		base = 70
	case domain.CompliancePending:
		base = 40
	}
	bonus := math.Min(30, float64(len(g.Certifications))*10)
	return math.Min(100, base+bonus)
}
