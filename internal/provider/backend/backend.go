// Package backend reads quotes from the project's own optional price backend.
package backend

import (
	"context"
	"net/url"
	"strings"
	"time"

	"goldfeed/internal/httpx"
	"goldfeed/internal/provider"
)

type Config struct {
	Name    string
	BaseURL string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "backend"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = httpx.New(0)
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

type quoteResponse struct {
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
	Timestamp     string   `json:"timestamp"`
	Success       *bool    `json:"success"`
	Error         string   `json:"error"`
}

type seriesResponse struct {
	Prices []struct {
		Date   string   `json:"date"`
		Price  *float64 `json:"price"`
		Volume *int64   `json:"volume"`
	} `json:"prices"`
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (p *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	if p.cfg.BaseURL == "" {
		return provider.Quote{}, provider.Unsupported(p.Name(), "quote without base url")
	}
	var body quoteResponse
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL+"/get_gold_price", &body); err != nil {
		return provider.Quote{}, provider.FromHTTP(p.Name(), err)
	}
	// success:false means the backend itself fell back to made-up numbers
	if body.Success != nil && !*body.Success {
		return provider.Quote{}, provider.Schema(p.Name(), "backend reported success=false: %s", body.Error)
	}
	if body.Price == nil {
		return provider.Quote{}, provider.Schema(p.Name(), "missing price")
	}

	ts, ok := provider.ParseTime(body.Timestamp)
	if !ok {
		ts = p.now()
	}
	q := provider.Quote{
		Price:     *body.Price,
		Timestamp: ts,
		Source:    p.Name(),
	}
	if body.Change != nil && body.ChangePercent != nil {
		q.Change = provider.Float(provider.RoundCents(*body.Change))
		q.ChangePercent = provider.Float(provider.RoundCents(*body.ChangePercent))
	}
	if err := provider.ValidateQuote(q); err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

func (p *Provider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if p.cfg.BaseURL == "" {
		return provider.Series{}, provider.Unsupported(p.Name(), "series without base url")
	}
	u := p.cfg.BaseURL + "/get_historical_prices?" + url.Values{"period": {string(period)}}.Encode()
	var body seriesResponse
	if err := p.client.GetJSON(ctx, u, &body); err != nil {
		return provider.Series{}, provider.FromHTTP(p.Name(), err)
	}
	if body.Success != nil && !*body.Success {
		return provider.Series{}, provider.Schema(p.Name(), "backend reported success=false: %s", body.Error)
	}

	points := make([]provider.SeriesPoint, 0, len(body.Prices))
	for _, row := range body.Prices {
		d, ok := provider.ParseTime(row.Date)
		if !ok || row.Price == nil {
			continue
		}
		points = append(points, provider.SeriesPoint{Date: d, Price: *row.Price, Volume: row.Volume})
	}
	points = provider.NormalizeSeries(points, period)
	if len(points) == 0 {
		return provider.Series{}, provider.Schema(p.Name(), "no usable points for %s", period)
	}
	return provider.Series{Period: period, Points: points, Source: p.Name(), Success: true}, nil
}
