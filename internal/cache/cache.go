// Package cache implements the read-through catalogue cache and its
// invalidation bus on top of Redis. The cache is a best-effort read
// accelerator only: correctness decisions (stock checks, promo usage) always
// hit durable storage, and an unreachable Redis degrades every read to a
// miss instead of failing the request.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"hexashop/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Stats is a snapshot of the bus counters.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// Bus is the cache invalidation bus. One instance is constructed per process
// and injected wherever caching or invalidation is needed.
type Bus struct {
	client *redis.Client
	cfg    config.CacheConfig
	logger zerolog.Logger

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64

	promHits          prometheus.Counter
	promMisses        prometheus.Counter
	promInvalidations prometheus.Counter
}

// New creates a cache bus. The client may be nil (cache disabled); the
// registerer receives the bus counters so each test can use a fresh registry.
func New(client *redis.Client, cfg config.CacheConfig, reg prometheus.Registerer, logger zerolog.Logger) *Bus {
	b := &Bus{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "cache-bus").Logger(),
		promHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexashop_cache_hits_total",
			Help: "Number of cache reads served from Redis.",
		}),
		promMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexashop_cache_misses_total",
			Help: "Number of cache reads that fell through to storage.",
		}),
		promInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexashop_cache_invalidations_total",
			Help: "Number of cache entries removed by invalidation sweeps.",
		}),
	}

	if reg != nil {
		reg.MustRegister(b.promHits, b.promMisses, b.promInvalidations)
	}

	return b
}

// BuildKey builds a deterministic composite key under the configured
// namespace prefix. Segments are trimmed, lowercased and space-normalized;
// empty segments are skipped.
func (b *Bus) BuildKey(category string, segments ...string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, b.cfg.Prefix, category)
	for _, s := range segments {
		s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ":")
}

// Get reads a cached payload into v. Returns false on a miss, including
// every degraded case: nil client, unreachable store, decode failure.
func (b *Bus) Get(ctx context.Context, key string, v any) bool {
	if b.client == nil {
		b.miss()
		return false
	}

	payload, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			b.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		b.miss()
		return false
	}

	if err := json.Unmarshal(payload, v); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("cache payload decode failed")
		b.miss()
		return false
	}

	b.hits.Add(1)
	b.promHits.Inc()
	return true
}

// Set stores a payload under the key with the given TTL. Failures are logged
// and swallowed; the cache never fails a request.
func (b *Bus) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if b.client == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("cache payload encode failed")
		return
	}

	if err := b.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate removes all entries matching the pattern and returns the count
// removed.
func (b *Bus) Invalidate(ctx context.Context, pattern string) int {
	if b.client == nil {
		return 0
	}

	deleted := 0
	iter := b.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := b.client.Del(ctx, iter.Val()).Err(); err != nil {
			b.logger.Warn().Err(err).Str("key", iter.Val()).Msg("cache delete failed")
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		b.logger.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation scan failed")
	}

	if deleted > 0 {
		b.invalidations.Add(int64(deleted))
		b.promInvalidations.Add(float64(deleted))
		b.logger.Info().
			Str("pattern", pattern).
			Int("deleted", deleted).
			Msg("cache invalidated")
	}

	return deleted
}

// InvalidateProductCache sweeps every namespace derived from product data.
// Called after any successful product mutation and after every order commit
// that changed stock.
func (b *Bus) InvalidateProductCache(ctx context.Context) int {
	deleted := 0
	for _, ns := range productNamespaces {
		deleted += b.Invalidate(ctx, b.cfg.Prefix+":"+ns+":*")
	}
	return deleted
}

// Clear removes every entry under the namespace prefix and resets the
// counters.
func (b *Bus) Clear(ctx context.Context) int {
	deleted := b.Invalidate(ctx, b.cfg.Prefix+":*")
	b.hits.Store(0)
	b.misses.Store(0)
	b.invalidations.Store(0)
	return deleted
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Hits:          b.hits.Load(),
		Misses:        b.misses.Load(),
		Invalidations: b.invalidations.Load(),
	}
}

// TTLFor returns the configured TTL tier for a key category.
func (b *Bus) TTLFor(category string) time.Duration {
	switch category {
	case CategoryProduct:
		return b.cfg.ProductTTL
	case CategoryCategory:
		return b.cfg.CategoryTTL
	case CategoryBrand:
		return b.cfg.BrandTTL
	case CategorySearch:
		return b.cfg.SearchTTL
	case CategoryFeatured:
		return b.cfg.FeaturedTTL
	case CategoryAdmin:
		return b.cfg.AdminTTL
	case CategoryOrder:
		return b.cfg.OrderTTL
	default:
		return b.cfg.DefaultTTL
	}
}

func (b *Bus) miss() {
	b.misses.Add(1)
	b.promMisses.Inc()
}

// NewClient creates a Redis client for the bus. Connectivity is probed but a
// failed ping only logs a warning: the bus degrades to always-miss until the
// store comes back.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, cache degraded to always-miss")
	} else {
		logger.Info().Str("addr", cfg.Addr).Msg("redis connection established")
	}

	return client
}
