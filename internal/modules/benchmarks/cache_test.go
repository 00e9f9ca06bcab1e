package benchmarks_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteCache(t *testing.T) *benchmarks.SQLiteCache {
	db, cleanup := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanup)
	return benchmarks.NewSQLiteCache(db.Conn())
}

func TestSQLiteCache_FreshAndStale(t *testing.T) {
	cache := newSQLiteCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, "carbon:other", benchmarks.CarbonBenchmark{AverageReduction: 900}, time.Hour))

	fresh, err := cache.GetIfFresh(ctx, "carbon:other")
	require.NoError(t, err)
	require.NotNil(t, fresh)

	var b benchmarks.CarbonBenchmark
	require.NoError(t, json.Unmarshal(fresh, &b))
	assert.Equal(t, 900.0, b.AverageReduction)

	require.NoError(t, cache.Store(ctx, "water:KE", benchmarks.WaterStress{StressLevel: 0.4}, -time.Hour))
	expired, err := cache.GetIfFresh(ctx, "water:KE")
	require.NoError(t, err)
	assert.Nil(t, expired)

	stale, err := cache.Get(ctx, "water:KE")
	require.NoError(t, err)
	assert.NotNil(t, stale)

	missing, err := cache.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, cache.Delete(ctx, "carbon:other"))
	gone, err := cache.Get(ctx, "carbon:other")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSQLiteCache_DeleteExpired(t *testing.T) {
	cache := newSQLiteCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, "old", 1, -48*time.Hour))
	require.NoError(t, cache.Store(ctx, "recent", 2, -time.Minute))
	require.NoError(t, cache.Store(ctx, "fresh", 3, time.Hour))

	deleted, err := cache.DeleteExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	recent, _ := cache.Get(ctx, "recent")
	assert.NotNil(t, recent, "within grace period")
}

func TestCleanupJob(t *testing.T) {
	cache := newSQLiteCache(t)
	require.NoError(t, cache.Store(context.Background(), "ancient", 1, -90*24*time.Hour))

	job := benchmarks.NewCleanupJob(cache, zerolog.Nop())
	assert.Equal(t, "benchmark_cache_cleanup", job.Name())
	require.NoError(t, job.Run())

	data, _ := cache.Get(context.Background(), "ancient")
	assert.Nil(t, data)
}

func TestTieredCache(t *testing.T) {
	first := newSQLiteCache(t)
	second := newSQLiteCache(t)
	tiered := benchmarks.NewTieredCache(first, second)
	ctx := context.Background()

	require.NoError(t, second.Store(ctx, "only-second", 7, time.Hour))
	data, err := tiered.GetIfFresh(ctx, "only-second")
	require.NoError(t, err)
	assert.JSONEq(t, "7", string(data))

	require.NoError(t, tiered.Store(ctx, "both", 9, time.Hour))
	a, _ := first.Get(ctx, "both")
	b, _ := second.Get(ctx, "both")
	assert.NotNil(t, a)
	assert.NotNil(t, b)

	require.NoError(t, second.Store(ctx, "stale", 11, -time.Hour))
	fresh, _ := tiered.GetIfFresh(ctx, "stale")
	assert.Nil(t, fresh)
	stale, _ := tiered.Get(ctx, "stale")
	assert.JSONEq(t, "11", string(stale))
}
