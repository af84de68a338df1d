// Package market is the read surface for presentation code: the current
// quote, historical series, example signals and news, and range stats.
// Nothing here returns an error.
package market

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/content"
	"goldfeed/internal/fallback"
	"goldfeed/internal/poller"
	"goldfeed/internal/provider"
)

type Service struct {
	chain  *fallback.Chain
	clock  clockwork.Clock
	poller *poller.Poller
	maxAge time.Duration
}

type Option func(*Service)

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPoller serves GetCurrentQuote from p while its snapshot is younger
// than maxAge.
func WithPoller(p *poller.Poller, maxAge time.Duration) Option {
	return func(s *Service) {
		s.poller = p
		s.maxAge = maxAge
	}
}

func New(chain *fallback.Chain, opts ...Option) *Service {
	s := &Service{chain: chain, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCurrentQuote always returns a usable quote, live or synthetic.
func (s *Service) GetCurrentQuote(ctx context.Context) provider.Quote {
	if s.poller != nil {
		if snap := s.poller.Snapshot(); !snap.Stale(s.clock.Now(), s.maxAge) {
			return snap.Quote
		}
	}
	q, _ := s.chain.Quote(ctx)
	return q
}

// GetHistoricalSeries accepts any period string; empty or unknown values
// mean provider.DefaultPeriod.
func (s *Service) GetHistoricalSeries(ctx context.Context, period string) provider.Series {
	series, _ := s.chain.Series(ctx, provider.ParsePeriod(period))
	return series
}

func (s *Service) GetSignals() []content.Signal { return content.Signals() }

func (s *Service) GetNews() []content.NewsItem { return content.News(s.clock.Now()) }
