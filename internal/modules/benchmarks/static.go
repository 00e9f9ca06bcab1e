package benchmarks

import (
	"context"
	"sync"

	"github.com/aristath/greenfolio/internal/domain"
)

// Reference values used when no benchmark service is configured
const (
	DefaultCarbonAverage      = 1000.0
	DefaultCarbonBestPractice = 2000.0
	DefaultWaterAverage       = 1_000_000.0
	DefaultWaterStress        = 0.7
	DefaultJobCreationAverage = 15.0
)

// StaticSource serves fixed benchmark values with optional per-sector and per-location overrides.
// It backs the CLI, the server when no benchmark URL is set, and tests.
type StaticSource struct {
	mu          sync.RWMutex
	carbon      CarbonBenchmark
	water       WaterStress
	jobs        float64
	sectorCarb  map[domain.Sector]CarbonBenchmark
	regionWater map[string]WaterStress
}

// NewStaticSource creates a static source seeded with the default reference values
func NewStaticSource() *StaticSource {
	return &StaticSource{
		carbon:      CarbonBenchmark{AverageReduction: DefaultCarbonAverage, BestPractice: DefaultCarbonBestPractice},
		water:       WaterStress{RegionalAverage: DefaultWaterAverage, StressLevel: DefaultWaterStress},
		jobs:        DefaultJobCreationAverage,
		sectorCarb:  make(map[domain.Sector]CarbonBenchmark),
		regionWater: make(map[string]WaterStress),
	}
}

// WithSectorCarbon overrides the carbon benchmark for one sector
func (s *StaticSource) WithSectorCarbon(sector domain.Sector, b CarbonBenchmark) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectorCarb[sector] = b
	return s
}

// WithWaterStress overrides water stress for a location key (see domain.Location.Key)
func (s *StaticSource) WithWaterStress(loc domain.Location, w WaterStress) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regionWater[loc.Key()] = w
	return s
}

// WithJobCreationAverage overrides the industry job creation average
func (s *StaticSource) WithJobCreationAverage(avg float64) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = avg
	return s
}

func (s *StaticSource) SectorCarbonBenchmark(_ context.Context, sector domain.Sector) (CarbonBenchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.sectorCarb[sector]; ok {
		return b, nil
	}
	return s.carbon, nil
}

// WaterStress resolves country/region first, then country, then the default
func (s *StaticSource) WaterStress(_ context.Context, loc domain.Location) (WaterStress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.regionWater[loc.Key()]; ok {
		return w, nil
	}
	if w, ok := s.regionWater[domain.Location{Country: loc.Country}.Key()]; ok {
		return w, nil
	}
	return s.water, nil
}

func (s *StaticSource) IndustryJobCreationAverage(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs, nil
}
