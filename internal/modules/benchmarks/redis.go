package benchmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// redisStaleWindow is how long an expired entry stays readable through Get
const redisStaleWindow = 30 * 24 * time.Hour

// RedisCache shares benchmark payloads between service instances.
// Entries carry their own expiry so that Get can still serve them after they go stale.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// redisEnvelope is stored msgpack-encoded; Data holds the JSON payload
type redisEnvelope struct {
	Data      json.RawMessage `msgpack:"data"`
	ExpiresAt int64           `msgpack:"expires_at"`
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, prefix: "greenfolio:benchmark:"}, nil
}

// Close releases the client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) makeKey(key string) string {
	return c.prefix + key
}

func (c *RedisCache) Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	payload, err := encodeEnvelope(data, time.Now().Add(ttl))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.makeKey(key), payload, ttl+redisStaleWindow).Err()
}

func (c *RedisCache) GetIfFresh(ctx context.Context, key string) (json.RawMessage, error) {
	env, err := c.load(ctx, key)
	if err != nil || env == nil {
		return nil, err
	}
	if time.Now().Unix() >= env.ExpiresAt {
		return nil, nil
	}
	return env.Data, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, error) {
	env, err := c.load(ctx, key)
	if err != nil || env == nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *RedisCache) load(ctx context.Context, key string) (*redisEnvelope, error) {
	val, err := c.client.Get(ctx, c.makeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(val)
}

func encodeEnvelope(data interface{}, expiresAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal benchmark: %w", err)
	}
	return msgpack.Marshal(redisEnvelope{Data: raw, ExpiresAt: expiresAt.Unix()})
}

func decodeEnvelope(b []byte) (*redisEnvelope, error) {
	var env redisEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("corrupt benchmark cache entry: %w", err)
	}
	return &env, nil
}
