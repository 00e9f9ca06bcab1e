// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for all databases (always absolute)
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool

	Benchmark BenchmarkConfig
	Redis     RedisConfig
	Scoring   ScoringConfig
	Optimizer OptimizerConfig
	Schedule  ScheduleConfig
	Backup    BackupConfig
}

// BenchmarkConfig selects and tunes the benchmark source
type BenchmarkConfig struct {
	URL      string        // Empty = built-in static benchmarks
	Timeout  time.Duration // Per lookup
	CacheTTL time.Duration
}

// RedisConfig enables the shared benchmark cache when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// ScoringConfig tunes batch scoring and score freshness
type ScoringConfig struct {
	Concurrency         int
	ScenarioConcurrency int
	MaxAge              time.Duration // Stored snapshots older than this are rescored on read
}

// OptimizerConfig tunes the allocation solver
type OptimizerConfig struct {
	ReturnTilt    float64
	MaxIterations int
}

// ScheduleConfig holds cron expressions for background jobs
type ScheduleConfig struct {
	Rescore       string
	CacheCleanup  string
	WALCheckpoint string
}

// BackupConfig enables offsite database backups to S3-compatible storage when Bucket is set
type BackupConfig struct {
	Bucket          string
	Endpoint        string // Empty = AWS; set for R2, MinIO and friends
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int // 0 = keep forever
	Schedule        string
}

// Enabled reports whether a backup bucket was configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("GREENFOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("GO_PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		Benchmark: BenchmarkConfig{
			URL:      getEnv("BENCHMARK_URL", ""),
			Timeout:  getEnvAsDuration("BENCHMARK_TIMEOUT", 3*time.Second),
			CacheTTL: getEnvAsDuration("BENCHMARK_CACHE_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Scoring: ScoringConfig{
			Concurrency:         getEnvAsInt("SCORING_CONCURRENCY", 8),
			ScenarioConcurrency: getEnvAsInt("SCENARIO_CONCURRENCY", 4),
			MaxAge:              getEnvAsDuration("SCORE_MAX_AGE", 24*time.Hour),
		},
		Optimizer: OptimizerConfig{
			ReturnTilt:    getEnvAsFloat("OPTIMIZER_RETURN_TILT", 0.05),
			MaxIterations: getEnvAsInt("OPTIMIZER_MAX_ITERATIONS", 5000),
		},
		Schedule: ScheduleConfig{
			Rescore:       getEnv("RESCORE_SCHEDULE", "@every 1h"),
			CacheCleanup:  getEnv("CACHE_CLEANUP_SCHEDULE", "@daily"),
			WALCheckpoint: getEnv("WAL_CHECKPOINT_SCHEDULE", "@every 6h"),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			Schedule:        getEnv("BACKUP_SCHEDULE", "@daily"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the services cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Benchmark.Timeout <= 0 {
		return fmt.Errorf("BENCHMARK_TIMEOUT must be positive, got %s", c.Benchmark.Timeout)
	}
	if c.Benchmark.CacheTTL <= 0 {
		return fmt.Errorf("BENCHMARK_CACHE_TTL must be positive, got %s", c.Benchmark.CacheTTL)
	}
	if c.Scoring.Concurrency <= 0 {
		return fmt.Errorf("SCORING_CONCURRENCY must be positive, got %d", c.Scoring.Concurrency)
	}
	if c.Scoring.ScenarioConcurrency <= 0 {
		return fmt.Errorf("SCENARIO_CONCURRENCY must be positive, got %d", c.Scoring.ScenarioConcurrency)
	}
	if c.Scoring.MaxAge <= 0 {
		return fmt.Errorf("SCORE_MAX_AGE must be positive, got %s", c.Scoring.MaxAge)
	}
	if c.Optimizer.ReturnTilt < 0 {
		return fmt.Errorf("OPTIMIZER_RETURN_TILT must not be negative, got %v", c.Optimizer.ReturnTilt)
	}
	if c.Optimizer.MaxIterations <= 0 {
		return fmt.Errorf("OPTIMIZER_MAX_ITERATIONS must be positive, got %d", c.Optimizer.MaxIterations)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", c.Backup.RetentionDays)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
