package testing

import (
	"time"

	"github.com/aristath/greenfolio/internal/domain"
)

// NewProjectFixture returns a fully populated renewable energy project
func NewProjectFixture(id string) domain.Project {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.Project{
		ID:          id,
		Name:        "Solar farm " + id,
		Description: "Utility scale solar with battery storage",
		Sector:      domain.SectorRenewableEnergy,
		Budget:      2_000_000,
		Location:    domain.Location{Country: "KE", Region: "Rift Valley", City: "Nakuru"},
		Environmental: domain.EnvironmentalMetrics{
			CarbonReduction:   &domain.CarbonReduction{Amount: domain.Ptr(800.0), Methodology: "GHG Protocol"},
			EnergyEfficiency:  &domain.EnergyEfficiency{CurrentUsage: domain.Ptr(1000.0), ProjectedSavings: domain.Ptr(400.0), Unit: "MWh"},
			WaterConservation: &domain.Quantity{Amount: domain.Ptr(500_000.0), Unit: "m3"},
			WasteReduction:    &domain.Quantity{Amount: domain.Ptr(300.0), Unit: "t"},
		},
		Social: domain.SocialMetrics{
			JobsCreated:          domain.Ptr(40.0),
			CommunitiesServed:    domain.Ptr(5.0),
			BeneficiariesCount:   domain.Ptr(2500.0),
			HealthcareAccess:     domain.Ptr(true),
			EducationInitiatives: domain.Ptr(true),
			AffordableHousing:    domain.Ptr(false),
		},
		Governance: domain.GovernanceMetrics{
			TransparencyScore:  domain.Ptr(75.0),
			ComplianceStatus:   domain.ComplianceCompliant,
			ReportingFrequency: domain.ReportingQuarterly,
			Certifications:     []domain.Certification{{Name: "ISO 14001", Issuer: "ISO"}},
		},
		Risks: []domain.Risk{
			{Category: "market", Likelihood: 0.3, Impact: 0.5, Description: "Tariff changes", MitigationStrategy: "Long-term PPA"},
			{Category: "operational", Likelihood: 0.2, Impact: 0.4, Description: "Panel degradation"},
		},
		Status:    domain.StatusProposed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMinimalProjectFixture returns a project carrying only the required fields
func NewMinimalProjectFixture(id string, sector domain.Sector, budget float64) domain.Project {
	return domain.Project{
		ID:     id,
		Name:   "Project " + id,
		Sector: sector,
		Budget: budget,
		Status: domain.StatusProposed,
	}
}
