package cache

import (
	"context"
	"log/slog"
)

const (
	LayerLocal = "l1"
	LayerRedis = "l2"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

type observer interface {
	ObserveCache(layer, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(string, string) {}

// TieredOption configures a Tiered cache.
type TieredOption func(*Tiered)

// WithObserver reports every hit, miss and error per layer.
func WithObserver(o observer) TieredOption {
	return func(t *Tiered) {
		t.observer = o
	}
}

// WithLogger sets the logger for Redis failures. Defaults to slog.Default.
func WithLogger(l *slog.Logger) TieredOption {
	return func(t *Tiered) {
		t.logger = l
	}
}

// Tiered checks the local cache first and falls back to Redis, refilling the local cache on
// a Redis hit. Either layer may be nil. Cache failures are logged and treated as misses so the
// caller falls through to the store.
type Tiered struct {
	local    *LocalCache
	remote   *RedisCache
	observer observer
	logger   *slog.Logger
}

// NewTiered combines the given layers.
func NewTiered(local *LocalCache, remote *RedisCache, opts ...TieredOption) *Tiered {
	t := &Tiered{
		local:    local,
		remote:   remote,
		observer: nopObserver{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Get returns the original URL from the first layer that has it.
func (t *Tiered) Get(ctx context.Context, shortCode string) (string, bool) {
	if t.local != nil {
		if originalURL, ok := t.local.Get(shortCode); ok {
			t.observer.ObserveCache(LayerLocal, ResultHit)
			return originalURL, true
		}
		t.observer.ObserveCache(LayerLocal, ResultMiss)
	}

	if t.remote == nil {
		return "", false
	}

	originalURL, ok, err := t.remote.Get(ctx, shortCode)
	if err != nil {
		t.observer.ObserveCache(LayerRedis, ResultError)
		t.logger.WarnContext(ctx, "cache lookup failed", slog.String("short_code", shortCode), slog.Any("err", err))
		return "", false
	}
	if !ok {
		t.observer.ObserveCache(LayerRedis, ResultMiss)
		return "", false
	}

	t.observer.ObserveCache(LayerRedis, ResultHit)
	if t.local != nil {
		t.local.Set(shortCode, originalURL)
	}

	return originalURL, true
}

// Set writes the mapping to every configured layer.
func (t *Tiered) Set(ctx context.Context, shortCode, originalURL string) {
	if t.local != nil {
		t.local.Set(shortCode, originalURL)
	}

	if t.remote != nil {
		if err := t.remote.Set(ctx, shortCode, originalURL); err != nil {
			t.logger.WarnContext(ctx, "cache write failed", slog.String("short_code", shortCode), slog.Any("err", err))
		}
	}
}

// Close releases the local cache. The Redis client is owned by the caller.
func (t *Tiered) Close() {
	if t.local != nil {
		t.local.Close()
	}
}
