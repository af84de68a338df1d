// Package cache keeps recent live results of a Provider for a TTL.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"goldfeed/internal/provider"
)

const (
	DefaultQuoteTTL  = 60 * time.Second
	DefaultSeriesTTL = 5 * time.Minute
)

type quoteEntry struct {
	quote     provider.Quote
	expiresAt time.Time
}

type seriesEntry struct {
	series    provider.Series
	expiresAt time.Time
}

// Provider caches the quote for QuoteTTL and each period's series for
// SeriesTTL. Concurrent misses share one upstream call. Failures are never
// cached. A zero TTL disables caching for that kind.
type Provider struct {
	P         provider.Provider
	QuoteTTL  time.Duration
	SeriesTTL time.Duration
	Clock     clockwork.Clock

	mu     sync.RWMutex
	quote  *quoteEntry
	series map[provider.Period]seriesEntry
	sf     singleflight.Group
}

// New wraps p with the default TTLs.
func New(p provider.Provider) *Provider {
	return &Provider{P: p, QuoteTTL: DefaultQuoteTTL, SeriesTTL: DefaultSeriesTTL}
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	if c.QuoteTTL <= 0 {
		return c.P.FetchQuote(ctx)
	}

	c.mu.RLock()
	e := c.quote
	c.mu.RUnlock()
	if e != nil && c.now().Before(e.expiresAt) {
		return e.quote, nil
	}

	v, err, _ := c.sf.Do("quote", func() (any, error) {
		q, err := c.P.FetchQuote(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.quote = &quoteEntry{quote: q, expiresAt: c.now().Add(c.QuoteTTL)}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return provider.Quote{}, err
	}
	return v.(provider.Quote), nil
}

func (c *Provider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if c.SeriesTTL <= 0 {
		return c.P.FetchSeries(ctx, period)
	}

	c.mu.RLock()
	e, ok := c.series[period]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return clone(e.series), nil
	}

	v, err, _ := c.sf.Do("series:"+string(period), func() (any, error) {
		s, err := c.P.FetchSeries(ctx, period)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.series == nil {
			c.series = make(map[provider.Period]seriesEntry, len(provider.Periods))
		}
		c.series[period] = seriesEntry{series: s, expiresAt: c.now().Add(c.SeriesTTL)}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return provider.Series{}, err
	}
	return clone(v.(provider.Series)), nil
}

// Purge drops every cached value.
func (c *Provider) Purge() {
	c.mu.Lock()
	c.quote = nil
	c.series = nil
	c.mu.Unlock()
}

// clone gives each caller its own points slice.
func clone(s provider.Series) provider.Series {
	s.Points = slices.Clone(s.Points)
	return s
}
