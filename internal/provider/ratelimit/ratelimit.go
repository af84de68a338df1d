// Package ratelimit gates calls to a Provider so that free-tier upstreams
// stay inside their quota.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/provider"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Each caller reserves the next free slot, so concurrent callers are spaced
// out rather than released together. A wait cut short by ctx is reported as
// a transport failure and hands its slot back when no later caller has
// reserved behind it.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration
	Clock    clockwork.Clock

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) FetchQuote(ctx context.Context) (provider.Quote, error) {
	if err := m.wait(ctx); err != nil {
		return provider.Quote{}, err
	}
	return m.P.FetchQuote(ctx)
}

func (m *MinInterval) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if err := m.wait(ctx); err != nil {
		return provider.Series{}, err
	}
	return m.P.FetchSeries(ctx, period)
}

func (m *MinInterval) wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	clock := m.clock()

	m.mu.Lock()
	now := clock.Now()
	slot := m.next
	if slot.Before(now) {
		slot = now
	}
	m.next = slot.Add(m.Interval)
	m.mu.Unlock()

	if err := sleep(ctx, clock, m.P.Name(), slot.Sub(now)); err != nil {
		m.mu.Lock()
		if m.next.Equal(slot.Add(m.Interval)) {
			m.next = slot
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MinInterval) clock() clockwork.Clock {
	if m.Clock == nil {
		return clockwork.NewRealClock()
	}
	return m.Clock
}

func sleep(ctx context.Context, clock clockwork.Clock, name string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return provider.AsFailure(name, ctx.Err())
	case <-t.Chan():
		return nil
	}
}
