package s0_data

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/redis"
)

// CachedProvider serves repeated fetches of the same symbols from Redis
// for one trading day. Errors are never cached.
type CachedProvider struct {
	inner     contracts.SourceProvider
	assetType contracts.AssetType
	cache     *redis.Cache
	ttl       time.Duration
	now       func() time.Time
}

// NewCachedProvider wraps inner. With Redis disabled it is a passthrough.
func NewCachedProvider(inner contracts.SourceProvider, assetType contracts.AssetType, cache *redis.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:     inner,
		assetType: assetType,
		cache:     cache,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Name returns the wrapped provider name.
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Fetch implements contracts.SourceProvider.
func (p *CachedProvider) Fetch(ctx context.Context, symbols []string) ([]contracts.RawRow, error) {
	key := redis.SourceKey(p.inner.Name(), string(p.assetType), p.now().UTC().Format("2006-01-02")) +
		":" + strings.Join(symbols, ",")

	return redis.GetOrSet(ctx, p.cache, key, p.ttl, func() ([]contracts.RawRow, error) {
		return p.inner.Fetch(ctx, symbols)
	})
}
