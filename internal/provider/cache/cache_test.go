package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldfeed/internal/provider"
	"goldfeed/internal/provider/providertest"
)

func TestFetchQuote_CachesUntilTTL(t *testing.T) {
	fc := clockwork.NewFakeClock()
	stub := providertest.Fixed("yahoo", 2700)
	c := New(stub)
	c.Clock = fc

	for i := 0; i < 3; i++ {
		q, err := c.FetchQuote(t.Context())
		require.NoError(t, err)
		require.Equal(t, 2700.0, q.Price)
	}
	require.Equal(t, int64(1), stub.QuoteCalls.Load())

	fc.Advance(DefaultQuoteTTL)
	_, err := c.FetchQuote(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(2), stub.QuoteCalls.Load())
}

func TestFetchQuote_FailuresAreNotCached(t *testing.T) {
	stub := providertest.Failing("yahoo")
	c := New(stub)

	for i := 0; i < 2; i++ {
		_, err := c.FetchQuote(t.Context())
		require.True(t, provider.IsKind(err, provider.KindTransport))
	}
	require.Equal(t, int64(2), stub.QuoteCalls.Load())
}

func TestFetchSeries_PerPeriod(t *testing.T) {
	fc := clockwork.NewFakeClock()
	stub := providertest.Fixed("backend", 2700)
	c := &Provider{P: stub, SeriesTTL: time.Minute, Clock: fc}

	s1, err := c.FetchSeries(t.Context(), provider.Period1W)
	require.NoError(t, err)
	_, err = c.FetchSeries(t.Context(), provider.Period1W)
	require.NoError(t, err)
	_, err = c.FetchSeries(t.Context(), provider.Period1Y)
	require.NoError(t, err)
	require.Equal(t, int64(2), stub.SeriesCalls.Load())

	// callers get their own copy
	s1.Points[0].Price = -1
	s2, err := c.FetchSeries(t.Context(), provider.Period1W)
	require.NoError(t, err)
	require.Equal(t, 2700.0, s2.Points[0].Price)

	fc.Advance(time.Minute)
	_, err = c.FetchSeries(t.Context(), provider.Period1W)
	require.NoError(t, err)
	require.Equal(t, int64(3), stub.SeriesCalls.Load())

	c.Purge()
	_, err = c.FetchSeries(t.Context(), provider.Period1Y)
	require.NoError(t, err)
	require.Equal(t, int64(4), stub.SeriesCalls.Load())
}

func TestFetchQuote_CoalescesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	stub := &providertest.Stub{
		ID: "yahoo",
		QuoteFn: func(context.Context) (provider.Quote, error) {
			<-release
			return provider.Quote{Price: 2700, Timestamp: time.Now(), Source: "yahoo"}, nil
		},
	}
	c := New(stub)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := c.FetchQuote(t.Context())
			assert.NoError(t, err)
			assert.Equal(t, 2700.0, q.Price)
		}()
	}
	require.Eventually(t, func() bool { return stub.QuoteCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int64(1), stub.QuoteCalls.Load())
}

func TestZeroTTLPassesThrough(t *testing.T) {
	stub := providertest.Fixed("coinbase", 2700)
	c := &Provider{P: stub}

	_, _ = c.FetchQuote(t.Context())
	_, _ = c.FetchQuote(t.Context())
	_, _ = c.FetchSeries(t.Context(), provider.Period1M)
	_, _ = c.FetchSeries(t.Context(), provider.Period1M)
	require.Equal(t, int64(2), stub.QuoteCalls.Load())
	require.Equal(t, int64(2), stub.SeriesCalls.Load())
	require.Equal(t, "coinbase", c.Name())
}
