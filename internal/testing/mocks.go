package testing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
)

// ErrMockBenchmark is returned by MockBenchmarkSource when configured to fail
var ErrMockBenchmark = errors.New("mock benchmark failure")

// MockBenchmarkSource is a deterministic benchmark source with switchable failures and latency.
// It counts calls so tests can assert on memoisation.
type MockBenchmarkSource struct {
	mu          sync.RWMutex
	carbon      benchmarks.CarbonBenchmark
	water       benchmarks.WaterStress
	jobs        float64
	failCarbon  bool
	failWater   bool
	failJobs    bool
	delay       time.Duration
	carbonCalls atomic.Int64
	waterCalls  atomic.Int64
	jobsCalls   atomic.Int64
}

// NewMockBenchmarkSource returns a source serving the default static benchmark values
func NewMockBenchmarkSource() *MockBenchmarkSource {
	return &MockBenchmarkSource{
		carbon: benchmarks.CarbonBenchmark{AverageReduction: benchmarks.DefaultCarbonAverage, BestPractice: benchmarks.DefaultCarbonBestPractice},
		water:  benchmarks.WaterStress{RegionalAverage: benchmarks.DefaultWaterAverage, StressLevel: benchmarks.DefaultWaterStress},
		jobs:   benchmarks.DefaultJobCreationAverage,
	}
}

// SetFailures toggles failures per lookup kind
func (m *MockBenchmarkSource) SetFailures(carbon, water, jobs bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCarbon, m.failWater, m.failJobs = carbon, water, jobs
}

// SetDelay makes every lookup block for d, ignoring the context
func (m *MockBenchmarkSource) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetCarbon sets the carbon benchmark to return
func (m *MockBenchmarkSource) SetCarbon(b benchmarks.CarbonBenchmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carbon = b
}

// SetWater sets the water stress to return
func (m *MockBenchmarkSource) SetWater(w benchmarks.WaterStress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.water = w
}

// SetJobs sets the job creation average to return
func (m *MockBenchmarkSource) SetJobs(avg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = avg
}

// Calls returns the number of carbon, water and jobs lookups made so far
func (m *MockBenchmarkSource) Calls() (carbon, water, jobs int64) {
	return m.carbonCalls.Load(), m.waterCalls.Load(), m.jobsCalls.Load()
}

func (m *MockBenchmarkSource) wait() {
	m.mu.RLock()
	d := m.delay
	m.mu.RUnlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func (m *MockBenchmarkSource) SectorCarbonBenchmark(_ context.Context, _ domain.Sector) (benchmarks.CarbonBenchmark, error) {
	m.carbonCalls.Add(1)
	m.wait()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failCarbon {
		return benchmarks.CarbonBenchmark{}, ErrMockBenchmark
	}
	return m.carbon, nil
}

func (m *MockBenchmarkSource) WaterStress(_ context.Context, _ domain.Location) (benchmarks.WaterStress, error) {
	m.waterCalls.Add(1)
	m.wait()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWater {
		return benchmarks.WaterStress{}, ErrMockBenchmark
	}
	return m.water, nil
}

func (m *MockBenchmarkSource) IndustryJobCreationAverage(_ context.Context) (float64, error) {
	m.jobsCalls.Add(1)
	m.wait()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failJobs {
		return 0, ErrMockBenchmark
	}
	return m.jobs, nil
}

// MockProjectStore is an in-memory domain.ProjectStore
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	err      error
}

// NewMockProjectStore creates a store seeded with projects
func NewMockProjectStore(projects ...domain.Project) *MockProjectStore {
	m := &MockProjectStore{projects: make(map[string]domain.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

// SetError sets the error to return from every lookup
func (m *MockProjectStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetByID returns a copy of the project or domain.ErrProjectNotFound
func (m *MockProjectStore) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

// Find returns the projects for ids in request order, skipping unknown IDs
func (m *MockProjectStore) Find(_ context.Context, ids []string) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
