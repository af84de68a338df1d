// Package yahoo adapts the Yahoo Finance v8 chart API. A Multiplier lets an
// ETF proxy such as GLD stand in for spot gold.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"goldfeed/internal/httpx"
	"goldfeed/internal/provider"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

type Config struct {
	Name    string
	BaseURL string
	Symbol  string
	// Multiplier converts the symbol's price into USD per troy ounce.
	// GC=F is already quoted that way; one GLD share is roughly 1/10 oz.
	Multiplier float64
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Symbol == "" {
		cfg.Symbol = "GC=F"
	}
	if !(cfg.Multiplier > 0) {
		cfg.Multiplier = 1
	}
	if hc == nil {
		hc = httpx.New(0)
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
		PreviousClose      *float64 `json:"previousClose"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// ranges maps a Period to Yahoo's (interval, range). Ranges are wide enough
// to cover the period's point count; NormalizeSeries trims the excess.
var ranges = map[provider.Period][2]string{
	provider.Period1D: {"60m", "5d"},
	provider.Period1W: {"1d", "1mo"},
	provider.Period1M: {"1d", "3mo"},
	provider.Period3M: {"1d", "6mo"},
	provider.Period6M: {"1d", "1y"},
	provider.Period1Y: {"1d", "2y"},
}

func (p *Provider) chart(ctx context.Context, interval, rng string) (chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.cfg.BaseURL, url.PathEscape(p.cfg.Symbol),
		url.Values{"interval": {interval}, "range": {rng}}.Encode())
	var body chartResponse
	if err := p.client.GetJSON(ctx, u, &body); err != nil {
		return chartResult{}, provider.FromHTTP(p.Name(), err)
	}
	if e := body.Chart.Error; e != nil {
		return chartResult{}, provider.Schema(p.Name(), "chart error %s: %s", e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return chartResult{}, provider.Schema(p.Name(), "no chart result for %s", p.cfg.Symbol)
	}
	return body.Chart.Result[0], nil
}

func (p *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	res, err := p.chart(ctx, "1d", "5d")
	if err != nil {
		return provider.Quote{}, err
	}

	price, ts := 0.0, time.Time{}
	if v := res.Meta.RegularMarketPrice; v != nil {
		price = *v
		if res.Meta.RegularMarketTime > 0 {
			ts = time.Unix(res.Meta.RegularMarketTime, 0).UTC()
		}
	} else if pts := res.points(); len(pts) > 0 {
		last := pts[len(pts)-1]
		price, ts = last.Price, last.Date
	}
	if !(price > 0) {
		return provider.Quote{}, provider.Schema(p.Name(), "no market price for %s", p.cfg.Symbol)
	}
	if ts.IsZero() {
		ts = p.now().UTC()
	}

	ref := 0.0
	if v := res.Meta.PreviousClose; v != nil {
		ref = *v
	} else if v := res.Meta.ChartPreviousClose; v != nil {
		ref = *v
	}

	m := p.cfg.Multiplier
	q := provider.Quote{
		Price:     provider.RoundCents(price * m),
		Timestamp: ts,
		Source:    p.Name(),
	}
	q.Change, q.ChangePercent = provider.Change(price*m, ref*m)
	if err := provider.ValidateQuote(q); err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

func (p *Provider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	r, ok := ranges[period]
	if !ok {
		period = provider.DefaultPeriod
		r = ranges[period]
	}
	res, err := p.chart(ctx, r[0], r[1])
	if err != nil {
		return provider.Series{}, err
	}

	points := res.points()
	for i := range points {
		points[i].Price = provider.RoundCents(points[i].Price * p.cfg.Multiplier)
	}
	points = provider.NormalizeSeries(points, period)
	if len(points) == 0 {
		return provider.Series{}, provider.Schema(p.Name(), "no usable bars for %s", period)
	}
	return provider.Series{Period: period, Points: points, Source: p.Name(), Success: true}, nil
}

// points pairs timestamps with closes, skipping null bars.
func (r chartResult) points() []provider.SeriesPoint {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]provider.SeriesPoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		pt := provider.SeriesPoint{Date: time.Unix(ts, 0).UTC(), Price: *q.Close[i]}
		if i < len(q.Volume) && q.Volume[i] != nil && *q.Volume[i] >= 0 {
			pt.Volume = provider.Int(int64(math.Round(*q.Volume[i])))
		}
		out = append(out, pt)
	}
	return out
}
