// Package providertest has a scriptable Provider for tests.
package providertest

import (
	"context"
	"sync/atomic"
	"time"

	"goldfeed/internal/provider"
)

// Stub answers with QuoteFn/SeriesFn and counts calls. A nil func yields a
// transport failure.
type Stub struct {
	ID       string
	QuoteFn  func(ctx context.Context) (provider.Quote, error)
	SeriesFn func(ctx context.Context, period provider.Period) (provider.Series, error)

	QuoteCalls  atomic.Int64
	SeriesCalls atomic.Int64
}

func (s *Stub) Name() string { return s.ID }

func (s *Stub) FetchQuote(ctx context.Context) (provider.Quote, error) {
	s.QuoteCalls.Add(1)
	if s.QuoteFn == nil {
		return provider.Quote{}, provider.Transport(s.ID, context.DeadlineExceeded)
	}
	return s.QuoteFn(ctx)
}

func (s *Stub) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	s.SeriesCalls.Add(1)
	if s.SeriesFn == nil {
		return provider.Series{}, provider.Transport(s.ID, context.DeadlineExceeded)
	}
	return s.SeriesFn(ctx, period)
}

// Failing never answers.
func Failing(id string) *Stub { return &Stub{ID: id} }

// Fixed answers with price for quotes and a three-point series.
func Fixed(id string, price float64) *Stub {
	return &Stub{
		ID: id,
		QuoteFn: func(context.Context) (provider.Quote, error) {
			return provider.Quote{Price: price, Timestamp: time.Now(), Source: id}, nil
		},
		SeriesFn: func(_ context.Context, period provider.Period) (provider.Series, error) {
			return Series(id, period, price), nil
		},
	}
}

// Series builds a valid ascending series of three daily points.
func Series(id string, period provider.Period, price float64) provider.Series {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return provider.Series{
		Period: period,
		Points: []provider.SeriesPoint{
			{Date: t0, Price: price},
			{Date: t0.AddDate(0, 0, 1), Price: price + 1},
			{Date: t0.AddDate(0, 0, 2), Price: price + 2},
		},
		Source:  id,
		Success: true,
	}
}
