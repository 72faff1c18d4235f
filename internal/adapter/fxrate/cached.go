package fxrate

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
	"github.com/jive/ledgerengine/internal/usecase"
)

const cacheName = "fx_rate"

// CachedProvider memoises another provider's answers per currency pair and
// day. Failures are not cached.
type CachedProvider struct {
	next    usecase.RateProvider
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// NewCachedProvider wraps next with an in-process cache holding rates for ttl.
func NewCachedProvider(next usecase.RateProvider, ttl time.Duration, m *metrics.Metrics) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{
		next:    next,
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
	}
}

// Rate implements usecase.RateProvider.
func (p *CachedProvider) Rate(ctx context.Context, from, to domain.Currency, date time.Time) (decimal.Decimal, error) {
	key := cacheKey(from, to, date)
	if v, found := p.cache.Get(key); found {
		p.observe("hit")
		return v.(decimal.Decimal), nil
	}
	p.observe("miss")

	rate, err := p.next.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}

	p.cache.Set(key, rate, cache.DefaultExpiration)
	return rate, nil
}

// Flush drops every memoised rate.
func (p *CachedProvider) Flush() {
	p.cache.Flush()
}

func (p *CachedProvider) observe(result string) {
	if p.metrics != nil {
		p.metrics.CacheOperations.WithLabelValues(cacheName, result).Inc()
	}
}

func cacheKey(from, to domain.Currency, date time.Time) string {
	return fmt.Sprintf("rate-%s-%s-%s", from, to, date.UTC().Format("2006-01-02"))
}
