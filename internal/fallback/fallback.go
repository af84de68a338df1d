// Package fallback asks providers for a quote or series in a fixed order and
// falls back to synthetic data when none of them delivers.
package fallback

import (
	"context"
	"fmt"
	"log"
	"time"

	"goldfeed/internal/provider"
	"goldfeed/internal/provider/synthetic"
)

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 5 * time.Second

// Attempt records one provider call. Err is nil for the call that won.
type Attempt struct {
	Provider string
	Err      error
	Elapsed  time.Duration
}

// Chain tries providers strictly in order; the first valid result wins and
// later providers are not called. Adapters are never run concurrently.
type Chain struct {
	providers []provider.Provider
	gen       *synthetic.Generator
	timeout   time.Duration
}

type Option func(*Chain)

// WithTimeout sets the per-provider deadline. Non-positive keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(gen *synthetic.Generator, providers []provider.Provider, opts ...Option) *Chain {
	if gen == nil {
		gen = synthetic.New(synthetic.DefaultConfig())
	}
	c := &Chain{providers: providers, gen: gen, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names lists the providers in the order they are tried.
func (c *Chain) Names() []string {
	out := make([]string, len(c.providers))
	for i, p := range c.providers {
		out[i] = p.Name()
	}
	return out
}

// Quote returns the first valid quote, or a synthetic one. It never fails.
func (c *Chain) Quote(ctx context.Context) (provider.Quote, []Attempt) {
	attempts := make([]Attempt, 0, len(c.providers))
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		q, err := c.tryQuote(ctx, p)
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err, Elapsed: time.Since(start)})
		if err == nil {
			return q, attempts
		}
		log.Printf("fallback: %v", err)
	}
	log.Printf("fallback: no provider produced a quote after %d attempts, using synthetic data", len(attempts))
	return c.gen.Quote(), attempts
}

// Series returns the first valid series for period, or a synthetic one.
// Unknown periods are treated as provider.DefaultPeriod. It never fails.
func (c *Chain) Series(ctx context.Context, period provider.Period) (provider.Series, []Attempt) {
	if !period.Valid() {
		period = provider.DefaultPeriod
	}
	attempts := make([]Attempt, 0, len(c.providers))
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		s, err := c.trySeries(ctx, p, period)
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err, Elapsed: time.Since(start)})
		if err == nil {
			return s, attempts
		}
		if !provider.IsKind(err, provider.KindUnsupported) {
			log.Printf("fallback: %v", err)
		}
	}
	log.Printf("fallback: no provider produced a %s series after %d attempts, using synthetic data", period, len(attempts))
	return c.gen.Series(period), attempts
}

func (c *Chain) tryQuote(ctx context.Context, p provider.Provider) (q provider.Quote, err error) {
	name := p.Name()
	defer func() {
		if r := recover(); r != nil {
			q, err = provider.Quote{}, provider.Contract(name, fmt.Errorf("panic: %v", r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q, err = p.FetchQuote(callCtx)
	if err != nil {
		return provider.Quote{}, provider.AsFailure(name, err)
	}
	if verr := provider.ValidateQuote(q); verr != nil {
		return provider.Quote{}, provider.Contract(name, verr)
	}
	return q, nil
}

func (c *Chain) trySeries(ctx context.Context, p provider.Provider, period provider.Period) (s provider.Series, err error) {
	name := p.Name()
	defer func() {
		if r := recover(); r != nil {
			s, err = provider.Series{}, provider.Contract(name, fmt.Errorf("panic: %v", r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err = p.FetchSeries(callCtx, period)
	if err != nil {
		return provider.Series{}, provider.AsFailure(name, err)
	}
	if !provider.ValidSeries(s) {
		return provider.Series{}, provider.Contract(name, fmt.Errorf("invalid series: %d points, not strictly ascending or non-positive", len(s.Points)))
	}
	s.Period = period
	s.Success = true
	if s.Source == "" {
		s.Source = name
	}
	return s, nil
}
