package graphsource

import (
	"context"
	"time"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// CachedSource keeps successful non-empty fetches for a while. Failures and
// empty results are never cached so the source is retried on the next
// build.
type CachedSource struct {
	next    network.Source
	cache   ports.Cache
	ttl     time.Duration
	metrics *observability.Collector
}

// NewCachedSource wraps next with a TTL cache
func NewCachedSource(next network.Source, cache ports.Cache, ttl time.Duration, metrics *observability.Collector) *CachedSource {
	return &CachedSource{next: next, cache: cache, ttl: ttl, metrics: metrics}
}

func cacheKey(userID string) string {
	return "network:" + userID
}

// FetchNetwork serves from cache when possible
func (s *CachedSource) FetchNetwork(ctx context.Context, userID string) (network.RawNetwork, error) {
	if v, ok := s.cache.Get(ctx, cacheKey(userID)); ok {
		if raw, ok := v.(network.RawNetwork); ok {
			s.metrics.RecordCache(true)
			return raw, nil
		}
	}
	s.metrics.RecordCache(false)

	raw, err := s.next.FetchNetwork(ctx, userID)
	if err != nil || raw.Empty() {
		return raw, err
	}
	_ = s.cache.Set(ctx, cacheKey(userID), raw, s.ttl)
	return raw, nil
}

// Invalidate drops the cached network of userID
func (s *CachedSource) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, cacheKey(userID))
}
