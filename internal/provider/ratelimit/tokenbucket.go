package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/provider"
)

// TokenBucket is a token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
	rate     float64
	capacity float64
	clock    clockwork.Clock

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewTokenBucket starts full. A nil clock means the real clock.
func NewTokenBucket(tokensPerSecond float64, burst int, clock clockwork.Clock) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		clock:    clock,
		tokens:   float64(burst),
		last:     clock.Now(),
	}
}

// take removes one token if available, otherwise reports how long until one is.
func (tb *TokenBucket) take() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	d := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
	if d <= 0 {
		d = time.Millisecond
	}
	return d, false
}

// Wait blocks until one token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context, name string) error {
	for {
		d, ok := tb.take()
		if ok {
			return nil
		}
		if err := sleep(ctx, tb.clock, name, d); err != nil {
			return err
		}
	}
}

// TokenBucketProvider wraps a Provider and gates calls using a token bucket.
type TokenBucketProvider struct {
	P  provider.Provider
	TB *TokenBucket
}

func (t *TokenBucketProvider) Name() string { return t.P.Name() }

func (t *TokenBucketProvider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx, t.P.Name()); err != nil {
			return provider.Quote{}, err
		}
	}
	return t.P.FetchQuote(ctx)
}

func (t *TokenBucketProvider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx, t.P.Name()); err != nil {
			return provider.Series{}, err
		}
	}
	return t.P.FetchSeries(ctx, period)
}
