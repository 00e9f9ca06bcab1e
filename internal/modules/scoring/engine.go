package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/metrics"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/risk"
	"github.com/aristath/greenfolio/internal/workers"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("greenfolio/scoring")

// Benchmark lookup names reported in Result.UnavailableBenchmarks
const (
	BenchmarkSectorCarbon = "sectorCarbon"
	BenchmarkWaterStress  = "waterStress"
	BenchmarkJobCreation  = "jobCreation"
)

// Config tunes the engine
type Config struct {
	LookupTimeout time.Duration // per benchmark lookup
	Concurrency   int           // projects scored in parallel by ScoreBatch
}

// Engine scores projects against a benchmark source. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	source  benchmarks.Source
	timeout time.Duration
	pool    *workers.Pool
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewEngine creates a scoring engine
func NewEngine(source benchmarks.Source, cfg Config, m *metrics.Metrics, log zerolog.Logger) *Engine {
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = benchmarks.DefaultLookupTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Engine{
		source:  source,
		timeout: timeout,
		pool:    workers.NewPool(concurrency),
		metrics: m,
		log:     log.With().Str("component", "scoring").Logger(),
	}
}

// Score computes the ESG score of a single project.
// It only fails for structurally invalid projects; benchmark failures drop the affected sub-factor.
func (e *Engine) Score(ctx context.Context, p domain.Project) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	memo := benchmarks.NewMemo(e.source, e.timeout, e.metrics)
	return e.score(ctx, memo, p), nil
}

// ScoreBatch scores projects concurrently, sharing one memoised benchmark view across the batch.
// Results are returned in input order.
func (e *Engine) ScoreBatch(ctx context.Context, projects []domain.Project) ([]Result, error) {
	if len(projects) == 0 {
		return nil, domain.ErrEmptyInput
	}
	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return nil, fmt.Errorf("project %q: %w", projects[i].ID, err)
		}
	}

	ctx, span := tracer.Start(ctx, "scoring.ScoreBatch",
		trace.WithAttributes(attribute.Int("projects", len(projects))))
	defer span.End()

	memo := benchmarks.NewMemo(e.source, e.timeout, e.metrics)
	results := workers.Map(e.pool, projects, func(_ int, p domain.Project) Result {
		return e.score(ctx, memo, p)
	}, nil)

	e.log.Debug().Int("projects", len(projects)).Msg("Scored batch")
	return results, nil
}

func (e *Engine) score(ctx context.Context, src benchmarks.Source, p domain.Project) Result {
	ctx, span := tracer.Start(ctx, "scoring.Score",
		trace.WithAttributes(
			attribute.String("project.id", p.ID),
			attribute.String("project.sector", string(p.Sector)),
		))
	defer span.End()
	start := time.Now()

	res := Result{ProjectID: p.ID, Risk: risk.Analyze(p.Risks)}
	var unavailable []string
	markUnavailable := func(name string, err error) {
		unavailable = append(unavailable, name)
		e.log.Warn().Err(err).Str("project_id", p.ID).Str("benchmark", name).Msg("Benchmark unavailable, dropping sub-factor")
	}

	res.Environmental = e.environmental(ctx, src, p, markUnavailable)
	res.Social = e.social(ctx, src, p, markUnavailable)
	res.Governance = governance(p, res.Risk)
	res.Total = clampScore(
		res.Environmental.Value*WeightEnvironmental +
			res.Social.Value*WeightSocial +
			res.Governance.Value*WeightGovernance)
	res.UnavailableBenchmarks = unavailable

	span.SetAttributes(attribute.Float64("score.total", res.Total))
	e.metrics.ProjectScored(time.Since(start))
	return res
}

func (e *Engine) environmental(ctx context.Context, src benchmarks.Source, p domain.Project, markUnavailable func(string, error)) PillarScore {
	acc := newAccumulator(PillarEnvironmental)
	env := p.Environmental

	if env.CarbonReduction != nil && env.CarbonReduction.Amount != nil {
		b, err := src.SectorCarbonBenchmark(ctx, p.Sector)
		switch {
		case err != nil:
			markUnavailable(BenchmarkSectorCarbon, err)
		case b.AverageReduction > 0:
			acc.add(FactorCarbonReduction, weightCarbon, carbonFactor(*env.CarbonReduction.Amount, b.AverageReduction), true)
		default:
			markUnavailable(BenchmarkSectorCarbon, fmt.Errorf("%w: non-positive sector average", domain.ErrBenchmarkUnavailable))
		}
	}

	energy, ok := energyEfficiencyFactor(env.EnergyEfficiency)
	acc.add(FactorEnergyEfficiency, weightEnergy, energy, ok)

	if env.WaterConservation != nil && env.WaterConservation.Amount != nil {
		w, err := src.WaterStress(ctx, p.Location)
		switch {
		case err != nil:
			markUnavailable(BenchmarkWaterStress, err)
		case w.RegionalAverage > 0:
			acc.add(FactorWaterConservation, weightWater, waterFactor(*env.WaterConservation.Amount, w.RegionalAverage, w.StressLevel), true)
		default:
			markUnavailable(BenchmarkWaterStress, fmt.Errorf("%w: non-positive regional average", domain.ErrBenchmarkUnavailable))
		}
	}

	if env.WasteReduction != nil && env.WasteReduction.Amount != nil {
		acc.add(FactorWasteReduction, weightWaste, wasteFactor(*env.WasteReduction.Amount), true)
	}

	return acc.result()
}

func (e *Engine) social(ctx context.Context, src benchmarks.Source, p domain.Project, markUnavailable func(string, error)) PillarScore {
	acc := newAccumulator(PillarSocial)
	soc := p.Social

	if soc.JobsCreated != nil {
		perMillion := jobsPerMillion(*soc.JobsCreated, p.Budget)
		avg, err := src.IndustryJobCreationAverage(ctx)
		if err == nil && avg <= 0 {
			err = fmt.Errorf("%w: non-positive industry average", domain.ErrBenchmarkUnavailable)
		}
		if err != nil {
			markUnavailable(BenchmarkJobCreation, err)
			acc.add(FactorJobCreation, weightJobs, jobCreationFallback(perMillion), true)
		} else {
			acc.add(FactorJobCreation, weightJobs, jobCreationFactor(perMillion, avg), true)
		}
	}

	community, ok := communityImpactFactor(soc)
	acc.add(FactorCommunityImpact, weightCommunity, community, ok)

	acc.add(FactorSocialInfrastructure, weightInfrastructure, socialInfrastructureFactor(soc), true)

	return acc.result()
}

func governance(p domain.Project, analysis risk.Analysis) PillarScore {
	acc := newAccumulator(PillarGovernance)
	acc.add(FactorTransparency, weightTransparency, transparencyFactor(p.Governance), true)
	acc.add(FactorCompliance, weightCompliance, complianceFactor(p.Governance), true)
	acc.add(FactorRiskManagement, weightRiskManagement, analysis.ManagementScore(), true)
	return acc.result()
}
