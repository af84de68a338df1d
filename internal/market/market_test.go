package market

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"goldfeed/internal/fallback"
	"goldfeed/internal/poller"
	"goldfeed/internal/provider"
	"goldfeed/internal/provider/providertest"
	"goldfeed/internal/provider/synthetic"
)

func chainOf(ps ...provider.Provider) *fallback.Chain {
	gen := synthetic.New(synthetic.DefaultConfig(), synthetic.WithRand(rand.New(rand.NewSource(1))))
	return fallback.New(gen, ps)
}

func TestGetCurrentQuote_NeverFails(t *testing.T) {
	svc := New(chainOf(providertest.Failing("a"), providertest.Failing("b"), providertest.Failing("c")))

	q := svc.GetCurrentQuote(t.Context())
	require.Equal(t, provider.SourceSynthetic, q.Source)
	require.NoError(t, provider.ValidateQuote(q))
}

func TestGetHistoricalSeries_DefaultsPeriod(t *testing.T) {
	svc := New(chainOf(providertest.Failing("a")))

	for _, in := range []string{"", "5Y", "weekly"} {
		s := svc.GetHistoricalSeries(t.Context(), in)
		require.Equal(t, provider.Period1M, s.Period)
		require.Len(t, s.Points, 30)
		require.False(t, s.Success)
	}

	live := New(chainOf(providertest.Fixed("live", 2700)))
	s := live.GetHistoricalSeries(t.Context(), "1w")
	require.Equal(t, provider.Period1W, s.Period)
	require.True(t, s.Success)
	require.Equal(t, "live", s.Source)
}

func TestGetCurrentQuote_UsesFreshPollerSnapshot(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	live := providertest.Fixed("live", 2700)
	chain := chainOf(live)
	p := poller.New(chain, poller.WithClock(fc))
	svc := New(chain, WithClock(fc), WithPoller(p, time.Minute))

	// still loading: falls through to the chain
	require.Equal(t, "live", svc.GetCurrentQuote(t.Context()).Source)
	require.Equal(t, int64(1), live.QuoteCalls.Load())

	_, ran := p.Refresh(t.Context())
	require.True(t, ran)
	require.Equal(t, int64(2), live.QuoteCalls.Load())

	svc.GetCurrentQuote(t.Context())
	require.Equal(t, int64(2), live.QuoteCalls.Load(), "fresh snapshot should be served")

	fc.Advance(2 * time.Minute)
	svc.GetCurrentQuote(t.Context())
	require.Equal(t, int64(3), live.QuoteCalls.Load())
}

func TestGetSignalsAndNews(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	svc := New(chainOf(), WithClock(fc))

	require.Len(t, svc.GetSignals(), 3)
	news := svc.GetNews()
	require.Len(t, news, 5)
	require.True(t, news[0].Date.Equal(fc.Now()))
}

func TestGetMarketStats(t *testing.T) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	var points []provider.SeriesPoint
	for i := 364; i >= 0; i-- {
		price := 2600.0
		switch {
		case i == 300:
			price = 1900
		case i == 20:
			price = 2500
		case i == 3:
			price = 2750
		}
		points = append(points, provider.SeriesPoint{Date: end.AddDate(0, 0, -i), Price: price})
	}
	yearly := &providertest.Stub{
		ID: "live",
		QuoteFn: func(context.Context) (provider.Quote, error) {
			return provider.Quote{Price: 2700, Timestamp: end, Source: "live"}, nil
		},
		SeriesFn: func(_ context.Context, period provider.Period) (provider.Series, error) {
			require.Equal(t, provider.Period1Y, period)
			return provider.Series{Period: period, Points: points, Source: "live", Success: true}, nil
		},
	}

	st := New(chainOf(yearly)).GetMarketStats(t.Context())
	require.Equal(t, 2700.0, st.CurrentPrice)
	require.Equal(t, Range{Low: 2686.5, High: 2713.5}, st.DayRange)
	require.Equal(t, Range{Low: 2600, High: 2750}, st.WeekRange)
	require.Equal(t, Range{Low: 2500, High: 2750}, st.MonthRange)
	require.Equal(t, Range{Low: 1900, High: 2750}, st.YearRange)
	require.True(t, st.Success)
	require.Equal(t, "live", st.Source)
}

func TestGetMarketStats_Synthetic(t *testing.T) {
	st := New(chainOf(providertest.Failing("a"))).GetMarketStats(t.Context())
	require.False(t, st.Success)
	require.Equal(t, provider.SourceSynthetic, st.Source)
	for _, r := range []Range{st.DayRange, st.WeekRange, st.MonthRange, st.YearRange} {
		require.LessOrEqual(t, r.Low, st.CurrentPrice)
		require.GreaterOrEqual(t, r.High, st.CurrentPrice)
	}
}
