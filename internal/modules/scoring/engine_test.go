package scoring

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/metrics"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(src *testingpkg.MockBenchmarkSource) *Engine {
	return NewEngine(src, Config{LookupTimeout: time.Second, Concurrency: 4}, metrics.New(), zerolog.Nop())
}

func TestScore_FullProject(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())
	p := testingpkg.NewProjectFixture("p-1")

	res, err := engine.Score(context.Background(), p)
	require.NoError(t, err)

	carbon := 800.0 / 1000 * 70
	energy := 40.0
	water := 500_000.0 / 1_000_000 * 70 * (1 + 0.7*0.3)
	waste := 30.0
	expectedE := 0.4*carbon + 0.3*energy + 0.15*water + 0.15*waste

	jobs := 20.0 / 15 * 70
	community := (50.0 + 50.0) / 2
	infra := 200.0 / 3
	expectedS := 0.3*jobs + 0.3*community + 0.4*infra

	transparency := 75 * 1.1
	compliance := 80.0
	riskMgmt := 0.6*(100-0.115*10) + 0.4*50
	expectedG := 0.4*transparency + 0.3*compliance + 0.3*riskMgmt

	assert.InDelta(t, expectedE, res.Environmental.Value, 1e-9)
	assert.InDelta(t, expectedS, res.Social.Value, 1e-9)
	assert.InDelta(t, expectedG, res.Governance.Value, 1e-9)
	assert.InDelta(t, 0.4*expectedE+0.3*expectedS+0.3*expectedG, res.Total, 1e-9)

	assert.Equal(t, "p-1", res.ProjectID)
	assert.InDelta(t, energy, res.Environmental.Factor(FactorEnergyEfficiency), 1e-9)
	assert.Len(t, res.Governance.Factors, 3)
	assert.Empty(t, res.UnavailableBenchmarks)
	assert.InDelta(t, (res.Environmental.Value+res.Social.Value+res.Governance.Value)/3, res.PillarAverage(), 1e-9)
}

func TestScore_MissingEnvironmentalMetricsYieldsZero(t *testing.T) {
	src := testingpkg.NewMockBenchmarkSource()
	engine := newTestEngine(src)
	p := testingpkg.NewMinimalProjectFixture("bare", domain.SectorOther, 500_000)

	res, err := engine.Score(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Environmental.Value)
	assert.Empty(t, res.Environmental.Factors)
	// Social infrastructure is always evaluated and scores 0 with no flags
	assert.Equal(t, 0.0, res.Social.Value)
	// Governance: transparency 0, compliance 0, risk management 60 for an empty register
	assert.InDelta(t, 0.3*60, res.Governance.Value, 1e-9)

	carbon, water, jobs := src.Calls()
	assert.Zero(t, carbon+water+jobs, "no lookups for unreported metrics")
}

func TestScore_PartialNormalisation(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())
	p := testingpkg.NewMinimalProjectFixture("waste", domain.SectorWasteManagement, 1_000_000)
	p.Environmental.WasteReduction = &domain.Quantity{Amount: domain.Ptr(500.0)}

	res, err := engine.Score(context.Background(), p)
	require.NoError(t, err)

	assert.InDelta(t, 50, res.Environmental.Value, 1e-9, "scored only on the reported sub-factor")
}

func TestScore_BenchmarkFailuresDropSubFactors(t *testing.T) {
	src := testingpkg.NewMockBenchmarkSource()
	src.SetFailures(true, true, true)
	engine := newTestEngine(src)
	p := testingpkg.NewProjectFixture("p-1")

	res, err := engine.Score(context.Background(), p)
	require.NoError(t, err)

	assert.NotContains(t, res.Environmental.Factors, FactorCarbonReduction)
	assert.NotContains(t, res.Environmental.Factors, FactorWaterConservation)
	assert.InDelta(t, (0.3*40+0.15*30)/0.45, res.Environmental.Value, 1e-9)

	// Job creation falls back to the local formula: min(100, 20 × 5)
	assert.InDelta(t, 100, res.Social.Factor(FactorJobCreation), 1e-9)

	assert.ElementsMatch(t, []string{BenchmarkSectorCarbon, BenchmarkWaterStress, BenchmarkJobCreation}, res.UnavailableBenchmarks)
}

func TestScore_NonPositiveBenchmarkIsAbsent(t *testing.T) {
	src := testingpkg.NewMockBenchmarkSource()
	src.SetJobs(0)
	engine := newTestEngine(src)
	p := testingpkg.NewProjectFixture("p-1")

	res, err := engine.Score(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 100, res.Social.Factor(FactorJobCreation), 1e-9)
	assert.Contains(t, res.UnavailableBenchmarks, BenchmarkJobCreation)
}

func TestScore_SlowBenchmarkTimesOut(t *testing.T) {
	src := testingpkg.NewMockBenchmarkSource()
	src.SetDelay(300 * time.Millisecond)
	engine := NewEngine(src, Config{LookupTimeout: 10 * time.Millisecond}, nil, zerolog.Nop())

	start := time.Now()
	res, err := engine.Score(context.Background(), testingpkg.NewProjectFixture("slow"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.NotContains(t, res.Environmental.Factors, FactorCarbonReduction)
	assert.Len(t, res.UnavailableBenchmarks, 3)
}

func TestScore_InvalidProject(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())
	p := testingpkg.NewProjectFixture("p-1")
	p.Budget = 0

	_, err := engine.Score(context.Background(), p)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "budget", verr.Field)
}

func TestScore_Idempotent(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())
	p := testingpkg.NewProjectFixture("p-1")

	first, err := engine.Score(context.Background(), p)
	require.NoError(t, err)
	second, err := engine.Score(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScore_AlwaysBounded(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())
	rng := rand.New(rand.NewSource(7))
	big := func() *float64 { return domain.Ptr(rng.Float64() * 1e7) }

	for i := 0; i < 200; i++ {
		p := testingpkg.NewMinimalProjectFixture("r", domain.Sectors[rng.Intn(len(domain.Sectors))], 1+rng.Float64()*1e7)
		p.Environmental = domain.EnvironmentalMetrics{
			CarbonReduction:   &domain.CarbonReduction{Amount: big()},
			EnergyEfficiency:  &domain.EnergyEfficiency{CurrentUsage: domain.Ptr(rng.Float64()), ProjectedSavings: big()},
			WaterConservation: &domain.Quantity{Amount: big()},
			WasteReduction:    &domain.Quantity{Amount: domain.Ptr(-rng.Float64() * 100)},
		}
		p.Social = domain.SocialMetrics{
			JobsCreated:        big(),
			CommunitiesServed:  domain.Ptr(rng.Float64() * 3),
			BeneficiariesCount: big(),
			HealthcareAccess:   domain.Ptr(rng.Intn(2) == 0),
		}
		p.Governance = domain.GovernanceMetrics{
			TransparencyScore:  big(),
			ComplianceStatus:   domain.ComplianceCompliant,
			ReportingFrequency: domain.ReportingMonthly,
			Certifications:     make([]domain.Certification, rng.Intn(6)),
		}
		p.Risks = []domain.Risk{{Category: "x", Likelihood: rng.Float64(), Impact: rng.Float64()}}

		res, err := engine.Score(context.Background(), p)
		require.NoError(t, err)
		for _, v := range []float64{res.Environmental.Value, res.Social.Value, res.Governance.Value, res.Total} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestScoreBatch(t *testing.T) {
	src := testingpkg.NewMockBenchmarkSource()
	engine := newTestEngine(src)

	projects := make([]domain.Project, 12)
	for i := range projects {
		projects[i] = testingpkg.NewProjectFixture(string(rune('a' + i)))
		projects[i].Budget = float64(i+1) * 1_000_000
	}

	results, err := engine.ScoreBatch(context.Background(), projects)
	require.NoError(t, err)
	require.Len(t, results, len(projects))

	for i, res := range results {
		assert.Equal(t, projects[i].ID, res.ProjectID, "order preserved")
		single, err := engine.Score(context.Background(), projects[i])
		require.NoError(t, err)
		assert.InDelta(t, single.Total, res.Total, 1e-9)
	}

	// 12 batch lookups collapse to one per key, plus one per key for each of the 12 single scores
	carbon, water, jobs := src.Calls()
	assert.Equal(t, int64(13), carbon)
	assert.Equal(t, int64(13), water)
	assert.Equal(t, int64(13), jobs)
}

func TestScoreBatch_Errors(t *testing.T) {
	engine := newTestEngine(testingpkg.NewMockBenchmarkSource())

	_, err := engine.ScoreBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	bad := testingpkg.NewProjectFixture("bad")
	bad.Name = ""
	_, err = engine.ScoreBatch(context.Background(), []domain.Project{testingpkg.NewProjectFixture("ok"), bad})
	assert.True(t, domain.IsValidation(err))
}

func TestResultSnapshot(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Result{
		Environmental: PillarScore{Value: 10},
		Social:        PillarScore{Value: 20},
		Governance:    PillarScore{Value: 30},
		Total:         19,
	}
	snap := r.Snapshot(at)
	assert.Equal(t, domain.ScoreSnapshot{Environmental: 10, Social: 20, Governance: 30, Total: 19, LastUpdated: at}, snap)
	assert.InDelta(t, 20, r.PillarAverage(), 1e-9)
}
