// Package domain provides the project model shared by scoring, risk analysis and allocation.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Sector is the enumerated industry category of a project
type Sector string

const (
	SectorRenewableEnergy        Sector = "renewable_energy"
	SectorSustainableAgriculture Sector = "sustainable_agriculture"
	SectorCleanTransportation    Sector = "clean_transportation"
	SectorGreenBuilding          Sector = "green_building"
	SectorWasteManagement        Sector = "waste_management"
	SectorWaterManagement        Sector = "water_management"
	SectorOther                  Sector = "other"
)

// Sectors lists every known sector in declaration order
var Sectors = []Sector{
	SectorRenewableEnergy,
	SectorSustainableAgriculture,
	SectorCleanTransportation,
	SectorGreenBuilding,
	SectorWasteManagement,
	SectorWaterManagement,
	SectorOther,
}

// Valid reports whether s is a known sector
func (s Sector) Valid() bool {
	for _, known := range Sectors {
		if s == known {
			return true
		}
	}
	return false
}

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	StatusProposed  ProjectStatus = "proposed"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusSuspended ProjectStatus = "suspended"
)

// Valid reports whether s is a known status
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusActive, StatusCompleted, StatusSuspended:
		return true
	}
	return false
}

// ComplianceStatus is the regulatory compliance state reported by a project
type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	CompliancePending      ComplianceStatus = "pending"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

// Valid reports whether c is a known compliance status
func (c ComplianceStatus) Valid() bool {
	switch c {
	case ComplianceCompliant, CompliancePending, ComplianceNonCompliant:
		return true
	}
	return false
}

// ReportingFrequency is the cadence at which a project publishes reports
type ReportingFrequency string

const (
	ReportingMonthly    ReportingFrequency = "monthly"
	ReportingQuarterly  ReportingFrequency = "quarterly"
	ReportingSemiAnnual ReportingFrequency = "semi_annual"
	ReportingAnnual     ReportingFrequency = "annual"
)

// Valid reports whether f is a known reporting frequency
func (f ReportingFrequency) Valid() bool {
	switch f {
	case ReportingMonthly, ReportingQuarterly, ReportingSemiAnnual, ReportingAnnual:
		return true
	}
	return false
}

// Coordinates is a WGS84 point
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location identifies where a project operates. Region drives water-stress lookups.
type Location struct {
	Country     string       `json:"country"`
	Region      string       `json:"region,omitempty"`
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Key returns a stable lookup key for region-dependent benchmarks
func (l Location) Key() string {
	country := strings.ToUpper(strings.TrimSpace(l.Country))
	region := strings.ToLower(strings.TrimSpace(l.Region))
	if region == "" {
		return country
	}
	return country + "/" + region
}

// CarbonReduction is the reported reduction in tonnes of CO2
type CarbonReduction struct {
	Amount      *float64 `json:"amount,omitempty"`
	Methodology string   `json:"methodology,omitempty"`
}

// EnergyEfficiency compares current consumption with projected savings
type EnergyEfficiency struct {
	CurrentUsage     *float64 `json:"currentUsage,omitempty"`
	ProjectedSavings *float64 `json:"projectedSavings,omitempty"`
	Unit             string   `json:"unit,omitempty"`
}

// Quantity is an amount with a free-form unit
type Quantity struct {
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

// EnvironmentalMetrics groups the environmental inputs. Every field is optional.
type EnvironmentalMetrics struct {
	CarbonReduction           *CarbonReduction  `json:"carbonReduction,omitempty"`
	EnergyEfficiency          *EnergyEfficiency `json:"energyEfficiency,omitempty"`
	WaterConservation         *Quantity         `json:"waterConservation,omitempty"`
	WasteReduction            *Quantity         `json:"wasteReduction,omitempty"`
	RenewableEnergyGeneration *Quantity         `json:"renewableEnergyGeneration,omitempty"`
}

// SocialMetrics groups the social inputs. Every field is optional.
type SocialMetrics struct {
	JobsCreated          *float64 `json:"jobsCreated,omitempty"`
	CommunitiesServed    *float64 `json:"communitiesServed,omitempty"`
	BeneficiariesCount   *float64 `json:"beneficiariesCount,omitempty"`
	HealthcareAccess     *bool    `json:"healthcareAccess,omitempty"`
	EducationInitiatives *bool    `json:"educationInitiatives,omitempty"`
	AffordableHousing    *bool    `json:"affordableHousing,omitempty"`
}

// Certification is a third-party certificate held by the project
type Certification struct {
	Name       string     `json:"name"`
	Issuer     string     `json:"issuer,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// GovernanceMetrics groups the governance inputs
type GovernanceMetrics struct {
	TransparencyScore  *float64           `json:"transparencyScore,omitempty"`
	ComplianceStatus   ComplianceStatus   `json:"complianceStatus,omitempty"`
	ReportingFrequency ReportingFrequency `json:"reportingFrequency,omitempty"`
	Certifications     []Certification    `json:"certifications,omitempty"`
}

// Risk is a single identified project risk. Likelihood and impact are in [0,1].
type Risk struct {
	Category           string  `json:"category"`
	Likelihood         float64 `json:"likelihood"`
	Impact             float64 `json:"impact"`
	Description        string  `json:"description,omitempty"`
	MitigationStrategy string  `json:"mitigationStrategy,omitempty"`
}

// HasMitigation reports whether a mitigation strategy was supplied
func (r Risk) HasMitigation() bool {
	return strings.TrimSpace(r.MitigationStrategy) != ""
}

// ScoreSnapshot is the last computed score persisted alongside a project
type ScoreSnapshot struct {
	Environmental float64   `json:"environmental"`
	Social        float64   `json:"social"`
	Governance    float64   `json:"governance"`
	Total         float64   `json:"total"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Project is an investment candidate. The scoring and allocation code treats it as read-only.
type Project struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Sector        Sector               `json:"sector"`
	Budget        float64              `json:"budget"`
	Location      Location             `json:"location"`
	StartDate     *time.Time           `json:"startDate,omitempty"`
	EndDate       *time.Time           `json:"endDate,omitempty"`
	Environmental EnvironmentalMetrics `json:"environmentalMetrics"`
	Social        SocialMetrics        `json:"socialMetrics"`
	Governance    GovernanceMetrics    `json:"governanceMetrics"`
	Risks         []Risk               `json:"risks"`
	Status        ProjectStatus        `json:"status"`
	Scores        *ScoreSnapshot       `json:"calculatedScores,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// ScoresStale reports whether the stored score snapshot is missing or older than maxAge
func (p *Project) ScoresStale(now time.Time, maxAge time.Duration) bool {
	if p.Scores == nil || p.Scores.LastUpdated.IsZero() {
		return true
	}
	return now.Sub(p.Scores.LastUpdated) > maxAge
}

// Validate checks the structural requirements a project must meet before it is scored or stored
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if p.Sector == "" {
		return NewValidationError("sector", "is required")
	}
	if !p.Sector.Valid() {
		return NewValidationError("sector", "unknown sector "+string(p.Sector))
	}
	if math.IsNaN(p.Budget) || math.IsInf(p.Budget, 0) || p.Budget <= 0 {
		return NewValidationError("budget", "must be a positive amount")
	}
	if p.Status != "" && !p.Status.Valid() {
		return NewValidationError("status", "unknown status "+string(p.Status))
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return NewValidationError("endDate", "must not be before startDate")
	}

	gov := p.Governance
	if gov.ComplianceStatus != "" && !gov.ComplianceStatus.Valid() {
		return NewValidationError("governanceMetrics.complianceStatus", "unknown compliance status "+string(gov.ComplianceStatus))
	}
	if gov.ReportingFrequency != "" && !gov.ReportingFrequency.Valid() {
		return NewValidationError("governanceMetrics.reportingFrequency", "unknown reporting frequency "+string(gov.ReportingFrequency))
	}
	if gov.TransparencyScore != nil && *gov.TransparencyScore < 0 {
		return NewValidationError("governanceMetrics.transparencyScore", "must not be negative")
	}

	for i, r := range p.Risks {
		if !inUnitInterval(r.Likelihood) {
			return NewValidationError(riskField(i, "likelihood"), "must be within [0,1]")
		}
		if !inUnitInterval(r.Impact) {
			return NewValidationError(riskField(i, "impact"), "must be within [0,1]")
		}
	}

	return nil
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func riskField(i int, name string) string {
	return fmt.Sprintf("risks[%d].%s", i, name)
}

// Ptr returns a pointer to v. Used to populate optional metric fields.
func Ptr[T any](v T) *T {
	return &v
}
