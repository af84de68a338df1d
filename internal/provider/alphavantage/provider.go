package alphavantage

import (
	"context"
	stderrors "errors"
	"time"

	"goldfeed/internal/provider"
)

type Config struct {
	Name string // display name, default: alphavantage
	From string // default: XAU
	To   string // default: USD
}

// Provider adapts a Client to provider.Provider.
type Provider struct {
	cfg    Config
	client *Client
	now    func() time.Time
}

func New(cfg Config, client *Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "alphavantage"
	}
	if cfg.From == "" {
		cfg.From = "XAU"
	}
	if cfg.To == "" {
		cfg.To = "USD"
	}
	return &Provider{cfg: cfg, client: client, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	rate, err := p.client.CurrencyExchangeRate(ctx, p.cfg.From, p.cfg.To)
	if err != nil {
		return provider.Quote{}, p.failure(err)
	}
	ts := rate.RefreshedAt
	if ts.IsZero() {
		ts = p.now()
	}
	q := provider.Quote{
		Price:     rate.Rate.Round(2).InexactFloat64(),
		Timestamp: ts,
		Source:    p.Name(),
	}
	if err := provider.ValidateQuote(q); err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

// compactSize is how many daily bars FX_DAILY returns without outputsize=full.
const compactSize = 100

func (p *Provider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if !period.Valid() {
		period = provider.DefaultPeriod
	}
	var (
		bars []Bar
		err  error
	)
	if period == provider.Period1D {
		bars, err = p.client.FXIntraday(ctx, p.cfg.From, p.cfg.To, "60min")
	} else {
		bars, err = p.client.FXDaily(ctx, p.cfg.From, p.cfg.To, period.Span().Count > compactSize)
	}
	if err != nil {
		return provider.Series{}, p.failure(err)
	}

	points := make([]provider.SeriesPoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, provider.SeriesPoint{Date: b.Time, Price: b.Close.Round(2).InexactFloat64()})
	}
	points = provider.NormalizeSeries(points, period)
	if len(points) == 0 {
		return provider.Series{}, provider.Schema(p.Name(), "no usable bars for %s", period)
	}
	return provider.Series{Period: period, Points: points, Source: p.Name(), Success: true}, nil
}

func (p *Provider) failure(err error) *provider.Failure {
	if stderrors.Is(err, ErrMalformed) {
		return &provider.Failure{Provider: p.Name(), Kind: provider.KindSchema, Err: err}
	}
	return provider.AsFailure(p.Name(), err)
}
