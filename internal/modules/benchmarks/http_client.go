package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/aristath/greenfolio/internal/metrics"
	"github.com/rs/zerolog"
)

// maxResponseBytes caps benchmark response bodies
const maxResponseBytes = 1 << 20

// HTTPClient reads benchmarks from a JSON benchmark service.
// Responses are cached; when the service fails, stale cached data is served instead.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	cache   Cache
	ttl     time.Duration // overrides the per-kind TTLs when set
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewHTTPClient creates a benchmark service client.
// cache is optional - if nil, caching and the stale fallback are disabled.
func NewHTTPClient(baseURL string, cache Cache, m *metrics.Metrics, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		metrics: m,
		log:     log.With().Str("client", "benchmarks").Logger(),
	}
}

// SetCacheTTL applies one TTL to every cached benchmark kind. Zero restores the defaults.
func (c *HTTPClient) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// SectorCarbonBenchmark fetches GET {base}/sectors/{sector}/carbon
func (c *HTTPClient) SectorCarbonBenchmark(ctx context.Context, sector domain.Sector) (CarbonBenchmark, error) {
	var out CarbonBenchmark
	path := "/sectors/" + url.PathEscape(string(sector)) + "/carbon"
	err := c.fetch(ctx, "carbon:"+string(sector), path, TTLSectorCarbon, &out)
	return out, err
}

// WaterStress fetches GET {base}/water-stress?country=&region=
func (c *HTTPClient) WaterStress(ctx context.Context, loc domain.Location) (WaterStress, error) {
	var out WaterStress
	q := url.Values{}
	q.Set("country", loc.Country)
	if loc.Region != "" {
		q.Set("region", loc.Region)
	}
	err := c.fetch(ctx, "water:"+loc.Key(), "/water-stress?"+q.Encode(), TTLWaterStress, &out)
	return out, err
}

type jobCreationResponse struct {
	Average float64 `json:"average"`
}

// IndustryJobCreationAverage fetches GET {base}/industry/job-creation
func (c *HTTPClient) IndustryJobCreationAverage(ctx context.Context) (float64, error) {
	var out jobCreationResponse
	err := c.fetch(ctx, "jobs:industry", "/industry/job-creation", TTLJobCreation, &out)
	return out.Average, err
}

func (c *HTTPClient) fetch(ctx context.Context, key, path string, ttl time.Duration, out interface{}) error {
	if c.cache != nil {
		data, err := c.cache.GetIfFresh(ctx, key)
		if err == nil && data != nil {
			if err := json.Unmarshal(data, out); err == nil {
				c.metrics.BenchmarkCache("hit")
				c.log.Debug().Str("key", key).Msg("Cache hit")
				return nil
			}
		}
		c.metrics.BenchmarkCache("miss")
	}

	body, err := c.get(ctx, path)
	if err == nil {
		err = json.Unmarshal(body, out)
		if err != nil {
			err = fmt.Errorf("failed to parse response: %w", err)
		}
	}
	if err != nil {
		if c.loadStale(ctx, key, out) {
			c.metrics.BenchmarkCache("stale")
			c.log.Warn().Err(err).Str("key", key).Msg("Benchmark service failed, using stale cached value")
			return nil
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrBenchmarkUnavailable, key, err)
	}

	if c.cache != nil {
		if c.ttl > 0 {
			ttl = c.ttl
		}
		if err := c.cache.Store(ctx, key, out, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache benchmark")
		}
	}

	c.log.Debug().Str("key", key).Msg("Fetched benchmark")
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("benchmark service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// loadStale decodes a cached entry even if expired
func (c *HTTPClient) loadStale(ctx context.Context, key string, out interface{}) bool {
	if c.cache == nil {
		return false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
