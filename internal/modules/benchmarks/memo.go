package benchmarks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/metrics"
)

// DefaultLookupTimeout bounds a single benchmark lookup
const DefaultLookupTimeout = 3 * time.Second

// Memo decorates a Source for the lifetime of one scoring batch.
// Each distinct key is looked up at most once, concurrent callers for the same key share the
// in-flight call, and every lookup is bounded by a timeout. Failures are memoised too,
// except those caused by the calling context ending: the next caller retries the key.
type Memo struct {
	src     Source
	timeout time.Duration
	metrics *metrics.Metrics

	mu    sync.Mutex
	calls map[string]*memoCall
}

type memoCall struct {
	done chan struct{}
	val  interface{}
	err  error
	// abandoned is set when the owning caller's context ended before the lookup finished
	abandoned bool
}

// NewMemo wraps src. A non-positive timeout falls back to DefaultLookupTimeout.
func NewMemo(src Source, timeout time.Duration, m *metrics.Metrics) *Memo {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Memo{
		src:     src,
		timeout: timeout,
		metrics: m,
		calls:   make(map[string]*memoCall),
	}
}

func (m *Memo) SectorCarbonBenchmark(ctx context.Context, sector domain.Sector) (CarbonBenchmark, error) {
	return memoized(ctx, m, "carbon", string(sector), func(ctx context.Context) (CarbonBenchmark, error) {
		return m.src.SectorCarbonBenchmark(ctx, sector)
	})
}

func (m *Memo) WaterStress(ctx context.Context, loc domain.Location) (WaterStress, error) {
	return memoized(ctx, m, "water", loc.Key(), func(ctx context.Context) (WaterStress, error) {
		return m.src.WaterStress(ctx, loc)
	})
}

func (m *Memo) IndustryJobCreationAverage(ctx context.Context) (float64, error) {
	return memoized(ctx, m, "jobs", "industry", func(ctx context.Context) (float64, error) {
		return m.src.IndustryJobCreationAverage(ctx)
	})
}

func memoized[T any](ctx context.Context, m *Memo, kind, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	fullKey := kind + ":" + key

	m.mu.Lock()
	if c, ok := m.calls[fullKey]; ok {
		m.mu.Unlock()
		m.metrics.BenchmarkLookup(kind, metrics.OutcomeShared)
		select {
		case <-c.done:
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %s: %v", domain.ErrBenchmarkUnavailable, fullKey, ctx.Err())
		}
		if c.abandoned {
			return memoized(ctx, m, kind, key, fn)
		}
		if c.err != nil {
			return zero, c.err
		}
		return c.val.(T), nil
	}
	c := &memoCall{done: make(chan struct{})}
	m.calls[fullKey] = c
	m.mu.Unlock()

	val, err := withTimeout(ctx, m.timeout, fn)
	if err != nil && ctx.Err() != nil {
		m.mu.Lock()
		if m.calls[fullKey] == c {
			delete(m.calls, fullKey)
		}
		m.mu.Unlock()
		c.abandoned = true
		close(c.done)
		return zero, fmt.Errorf("%w: %s: %w", domain.ErrBenchmarkUnavailable, fullKey, ctx.Err())
	}

	switch {
	case err == nil:
		m.metrics.BenchmarkLookup(kind, metrics.OutcomeOK)
	case errors.Is(err, context.DeadlineExceeded):
		m.metrics.BenchmarkLookup(kind, metrics.OutcomeTimeout)
	default:
		m.metrics.BenchmarkLookup(kind, metrics.OutcomeError)
	}
	if err != nil && !errors.Is(err, domain.ErrBenchmarkUnavailable) {
		err = fmt.Errorf("%w: %s: %w", domain.ErrBenchmarkUnavailable, fullKey, err)
	}

	c.val, c.err = val, err
	close(c.done)
	return val, err
}

// withTimeout runs fn in its own goroutine so a source that ignores ctx cannot block the caller
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
