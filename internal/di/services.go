package di

import (
	"context"
	"fmt"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/metrics"
	"github.com/aristath/greenfolio/internal/modules/analysis"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/optimization"
	"github.com/aristath/greenfolio/internal/modules/projects"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/aristath/greenfolio/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates the benchmark source, repositories and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.Metrics = metrics.New()
	container.BenchmarkCache = benchmarks.NewSQLiteCache(container.CacheDB.Conn())
	container.BenchmarkSource = newBenchmarkSource(container, cfg, log)

	container.ProjectRepo = projects.NewRepository(container.ProjectsDB.Conn(), log)

	container.ScoringEngine = scoring.NewEngine(container.BenchmarkSource, scoring.Config{
		LookupTimeout: cfg.Benchmark.Timeout,
		Concurrency:   cfg.Scoring.Concurrency,
	}, container.Metrics, log)

	container.Optimizer = optimization.NewOptimizer(optimization.Config{
		ReturnTilt:    cfg.Optimizer.ReturnTilt,
		MaxIterations: cfg.Optimizer.MaxIterations,
	}, container.Metrics, log)
	container.ScenarioGenerator = optimization.NewScenarioGenerator(container.Optimizer, cfg.Scoring.ScenarioConcurrency, log)

	rules, err := analysis.NewRulesEngine(analysis.DefaultRules)
	if err != nil {
		return fmt.Errorf("failed to compile recommendation rules: %w", err)
	}
	container.RulesEngine = rules

	container.ProjectService = projects.NewService(container.ProjectRepo, container.ScoringEngine, cfg.Scoring.MaxAge, log)
	// Analyses always rescore, so they read the repository directly
	container.AnalysisService = analysis.NewService(
		container.ProjectRepo,
		container.ScoringEngine,
		container.Optimizer,
		container.ScenarioGenerator,
		container.RulesEngine,
		log,
	)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Store(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(container.Databases(), store, cfg.DataDir, log)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Database backups enabled")
	}

	log.Info().Int("rules", rules.Len()).Msg("Services initialized")
	return nil
}

// newBenchmarkSource picks the static source or the benchmark service client.
// The client caches in SQLite, layered under Redis when configured.
func newBenchmarkSource(container *Container, cfg *config.Config, log zerolog.Logger) benchmarks.Source {
	if cfg.Benchmark.URL == "" {
		log.Info().Msg("Using static benchmark source")
		return benchmarks.NewStaticSource()
	}

	var cache benchmarks.Cache = container.BenchmarkCache

	if cfg.Redis.Enabled() {
		redisCache, err := benchmarks.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Redis is an optional shared tier
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using SQLite benchmark cache only")
		} else {
			container.RedisCache = redisCache
			cache = benchmarks.NewTieredCache(redisCache, container.BenchmarkCache)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis benchmark cache enabled")
		}
	}

	client := benchmarks.NewHTTPClient(cfg.Benchmark.URL, cache, container.Metrics, log)
	client.SetCacheTTL(cfg.Benchmark.CacheTTL)

	log.Info().Str("url", cfg.Benchmark.URL).Msg("Using benchmark service")
	return client
}
