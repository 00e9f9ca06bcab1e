// Package benchmarks supplies the external reference values used to normalise raw project metrics:
// sector carbon-reduction averages, regional water stress and industry job-creation averages.
package benchmarks

import (
	"context"

	"github.com/aristath/greenfolio/internal/domain"
)

// CarbonBenchmark is the reference carbon reduction for a sector, in tonnes of CO2
type CarbonBenchmark struct {
	AverageReduction float64 `json:"averageReduction"`
	BestPractice     float64 `json:"bestPractice"`
}

// WaterStress describes regional water scarcity
type WaterStress struct {
	RegionalAverage float64 `json:"regionalAverage"`
	StressLevel     float64 `json:"stressLevel"` // 0 = no stress, 1 = extreme
}

// Source is the capability interface for benchmark data. Any call may be slow or fail.
type Source interface {
	SectorCarbonBenchmark(ctx context.Context, sector domain.Sector) (CarbonBenchmark, error)
	WaterStress(ctx context.Context, loc domain.Location) (WaterStress, error)
	// IndustryJobCreationAverage returns the average jobs created per million invested
	IndustryJobCreationAverage(ctx context.Context) (float64, error)
}
