// Package synthetic fabricates plausible quotes and series for when no live
// source answers. Nothing in this package returns an error or panics.
package synthetic

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/provider"
)

// MinimalPrice is the constant used when generation itself fails.
const MinimalPrice = 3405.00

type Config struct {
	BasePrice    float64 `json:"base_price" yaml:"base_price" validate:"gt=0"`
	PriceJitter  float64 `json:"price_jitter" yaml:"price_jitter" validate:"gte=0"`   // full width of the price band
	ChangeJitter float64 `json:"change_jitter" yaml:"change_jitter" validate:"gte=0"` // full width of the change band
	Drift        float64 `json:"drift" yaml:"drift" validate:"gte=0"`                 // price lost per step back in time
	VolumeMin    int64   `json:"volume_min" yaml:"volume_min" validate:"gte=0"`
	VolumeMax    int64   `json:"volume_max" yaml:"volume_max" validate:"gtefield=VolumeMin"`
}

func DefaultConfig() Config {
	return Config{
		BasePrice:    3438.00,
		PriceJitter:  10,
		ChangeJitter: 20,
		Drift:        0.05,
		VolumeMin:    5000,
		VolumeMax:    20000,
	}
}

type Generator struct {
	cfg   Config
	clock clockwork.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Generator)

// WithRand sets the random source, for reproducible output.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

func WithClock(c clockwork.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

func New(cfg Config, opts ...Option) *Generator {
	def := DefaultConfig()
	if !(cfg.BasePrice > 0) {
		cfg.BasePrice = def.BasePrice
	}
	if cfg.PriceJitter < 0 {
		cfg.PriceJitter = 0
	}
	if cfg.ChangeJitter < 0 {
		cfg.ChangeJitter = 0
	}
	if cfg.VolumeMin < 0 {
		cfg.VolumeMin = 0
	}
	if cfg.VolumeMax < cfg.VolumeMin {
		cfg.VolumeMax = cfg.VolumeMin
	}
	g := &Generator{cfg: cfg, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// BasePrice is the price the generated values are centered on.
func (g *Generator) BasePrice() float64 { return g.cfg.BasePrice }

// Quote returns base +/- PriceJitter/2 with a random change. A draw that
// rounds to a non-positive price is replaced by the base price.
func (g *Generator) Quote() (q provider.Quote) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("synthetic: quote generation failed: %v", r)
			q = minimalQuote()
		}
	}()

	var price, change float64
	g.locked(func() {
		price = g.cfg.BasePrice + g.uniform(g.cfg.PriceJitter)
		change = g.uniform(g.cfg.ChangeJitter)
	})

	price = provider.RoundCents(price)
	if price <= 0 {
		price = g.cfg.BasePrice
	}
	change = provider.RoundCents(change)
	return provider.Quote{
		Price:         price,
		Change:        provider.Float(change),
		ChangePercent: provider.Float(provider.RoundCents(change / g.cfg.BasePrice * 100)),
		Timestamp:     g.clock.Now(),
		Source:        provider.SourceSynthetic,
	}
}

// Series walks back from now in steps of the period's unit and returns the
// points in ascending date order. Unknown periods use provider.DefaultPeriod.
func (g *Generator) Series(period provider.Period) (s provider.Series) {
	if !period.Valid() {
		period = provider.DefaultPeriod
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("synthetic: series generation failed: %v", r)
			s = minimalSeries(period, g.cfg.BasePrice)
		}
	}()

	span := period.Span()
	now := g.clock.Now().Truncate(time.Minute)
	points := make([]provider.SeriesPoint, 0, span.Count)

	g.locked(func() {
		for i := 0; i < span.Count; i++ {
			price := provider.RoundCents(g.cfg.BasePrice + g.uniform(g.cfg.PriceJitter) - g.cfg.Drift*float64(i))
			if price <= 0 {
				price = g.cfg.BasePrice
			}
			vol := g.cfg.VolumeMin
			if spread := g.cfg.VolumeMax - g.cfg.VolumeMin; spread > 0 {
				vol += g.rnd.Int63n(spread + 1)
			}
			points = append(points, provider.SeriesPoint{
				Date:   now.Add(-time.Duration(i) * span.Unit),
				Price:  price,
				Volume: provider.Int(vol),
			})
		}
	})

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return provider.Series{
		Period:  period,
		Points:  points,
		Source:  provider.SourceSynthetic,
		Success: false,
	}
}

func (g *Generator) locked(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// uniform draws from [-width/2, width/2). Callers hold g.mu.
func (g *Generator) uniform(width float64) float64 {
	return (g.rnd.Float64() - 0.5) * width
}

func minimalQuote() provider.Quote {
	return provider.Quote{
		Price:         MinimalPrice,
		Change:        provider.Float(0),
		ChangePercent: provider.Float(0),
		Timestamp:     time.Now(),
		Source:        provider.SourceSynthetic,
	}
}

func minimalSeries(period provider.Period, base float64) provider.Series {
	if !(base > 0) {
		base = MinimalPrice
	}
	unit := period.Span().Unit
	now := time.Now().Truncate(time.Minute)
	points := make([]provider.SeriesPoint, 3)
	for i := range points {
		points[i] = provider.SeriesPoint{Date: now.Add(-time.Duration(2-i) * unit), Price: base}
	}
	return provider.Series{Period: period, Points: points, Source: provider.SourceSynthetic}
}
