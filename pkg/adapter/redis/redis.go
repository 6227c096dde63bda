// Package redis adapts Redis as a keyv backend. Expiry is delegated to the
// native TTL mechanism; Get reconstructs the deadline from PTTL so the
// client's expiry check stays authoritative even when backend expiry lags.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

const scanBatchSize = 100

type redisStore struct {
	client *redis.Client
}

type config struct {
	client   *redis.Client
	poolSize int
}

type Option func(c *config)

// WithClient uses an already configured client; the URI is ignored.
func WithClient(client *redis.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(size int) Option {
	return func(c *config) {
		c.poolSize = size
	}
}

func init() {
	keyv.RegisterBackend(keyv.BackendRedis, func(cfg keyv.Config) (keyv.Store, error) {
		var options []Option
		if cfg.PoolSize > 0 {
			options = append(options, WithPoolSize(cfg.PoolSize))
		}
		return New(cfg.URI, options...)
	})
}

// New connects to the Redis at uri (e.g. redis://localhost:6379/0).
func New(uri string, options ...Option) (keyv.Store, error) {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}

	if cfg.client != nil {
		return &redisStore{client: cfg.client}, nil
	}

	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyv.ErrConfig, err)
	}
	if cfg.poolSize > 0 {
		opts.PoolSize = cfg.poolSize
	}

	return &redisStore{client: redis.NewClient(opts)}, nil
}

func (r *redisStore) Get(ctx context.Context, rawKey string) (*keyv.Entry, error) {
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, rawKey)
	ttlCmd := pipe.PTTL(ctx, rawKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, keyv.AdapterError(err)
	}

	payload, err := getCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, keyv.ErrNotFound
	}
	if err != nil {
		return nil, keyv.AdapterError(err)
	}

	entry := &keyv.Entry{Payload: payload}
	if ttl, err := ttlCmd.Result(); err == nil && ttl > 0 {
		deadline := time.Now().Add(ttl)
		entry.ExpiresAt = &deadline
	}

	return entry, nil
}

func (r *redisStore) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	var ttl time.Duration
	if expiresAt != nil {
		ttl = time.Until(*expiresAt)
		if ttl <= 0 {
			// Deadline already passed; storing would resurrect a dead entry.
			_, err := r.Remove(ctx, rawKey)
			return err
		}
	}

	if err := r.client.Set(ctx, rawKey, payload, ttl).Err(); err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (r *redisStore) Remove(ctx context.Context, rawKey string) (bool, error) {
	removed, err := r.client.Del(ctx, rawKey).Result()
	if err != nil {
		return false, keyv.AdapterError(err)
	}
	return removed > 0, nil
}

func (r *redisStore) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	if len(rawKeys) == 0 {
		return 0, nil
	}

	removed, err := r.client.Del(ctx, rawKeys...).Result()
	if err != nil {
		return 0, keyv.AdapterError(err)
	}
	return int(removed), nil
}

func (r *redisStore) Clear(ctx context.Context, prefix string) error {
	if prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return keyv.AdapterError(err)
		}
		return nil
	}

	iter := r.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return keyv.AdapterError(err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return keyv.AdapterError(err)
	}

	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return keyv.AdapterError(err)
		}
	}

	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
