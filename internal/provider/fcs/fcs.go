// Package fcs adapts the FCS forex API (fcsapi.com) for the XAU/USD pair.
// Every call needs an access key, passed as the access_key query parameter.
package fcs

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"goldfeed/internal/httpx"
	"goldfeed/internal/provider"
)

const DefaultBaseURL = "https://fcsapi.com"

type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	Symbol  string // default: XAU/USD
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "fcs"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Symbol == "" {
		cfg.Symbol = "XAU/USD"
	}
	if hc == nil {
		hc = httpx.New(0)
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

// FCS reports numbers as strings and signals API errors in-band with
// status=false and a msg.
type latestResponse struct {
	Status   *bool  `json:"status"`
	Msg      string `json:"msg"`
	Response []struct {
		Symbol        string `json:"s"`
		Price         string `json:"price"`
		Change        string `json:"chg"`
		ChangePercent string `json:"chp"`
		Time          string `json:"tm"`
	} `json:"response"`
}

type historyResponse struct {
	Status   *bool  `json:"status"`
	Msg      string `json:"msg"`
	Response []struct {
		Close string `json:"c"`
		Date  string `json:"date"`
	} `json:"response"`
}

// historyPeriods maps our periods onto FCS candle sizes.
var historyPeriods = map[provider.Period]string{
	provider.Period1D: "1h",
}

func (p *Provider) endpoint(path string, params url.Values) string {
	params.Set("symbol", p.cfg.Symbol)
	params.Set("access_key", p.cfg.APIKey)
	return p.cfg.BaseURL + path + "?" + params.Encode()
}

func (p *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	if p.cfg.APIKey == "" {
		return provider.Quote{}, provider.Unsupported(p.Name(), "quote without access key")
	}
	var body latestResponse
	if err := p.client.GetJSON(ctx, p.endpoint("/api-v3/forex/latest", url.Values{}), &body); err != nil {
		return provider.Quote{}, provider.FromHTTP(p.Name(), err)
	}
	if body.Status != nil && !*body.Status {
		return provider.Quote{}, provider.Schema(p.Name(), "status=false: %s", body.Msg)
	}
	if len(body.Response) == 0 {
		return provider.Quote{}, provider.Schema(p.Name(), "empty response")
	}
	row := body.Response[0]
	if row.Price == "" {
		return provider.Quote{}, provider.Schema(p.Name(), "missing price")
	}
	price, err := number(row.Price)
	if err != nil {
		return provider.Quote{}, provider.Schema(p.Name(), "bad price %q", row.Price)
	}

	ts, ok := provider.ParseTime(row.Time)
	if !ok {
		ts = p.now()
	}
	q := provider.Quote{
		Price:     price.Round(2).InexactFloat64(),
		Timestamp: ts,
		Source:    p.Name(),
	}
	chg, errChg := number(row.Change)
	chp, errChp := number(row.ChangePercent)
	if errChg == nil && errChp == nil {
		q.Change = provider.Float(chg.Round(2).InexactFloat64())
		q.ChangePercent = provider.Float(chp.Round(2).InexactFloat64())
	}
	if err := provider.ValidateQuote(q); err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

func (p *Provider) FetchSeries(ctx context.Context, period provider.Period) (provider.Series, error) {
	if p.cfg.APIKey == "" {
		return provider.Series{}, provider.Unsupported(p.Name(), "series without access key")
	}
	candle, ok := historyPeriods[period]
	if !ok {
		candle = "1d"
	}
	var body historyResponse
	if err := p.client.GetJSON(ctx, p.endpoint("/api-v3/forex/history", url.Values{"period": {candle}}), &body); err != nil {
		return provider.Series{}, provider.FromHTTP(p.Name(), err)
	}
	if body.Status != nil && !*body.Status {
		return provider.Series{}, provider.Schema(p.Name(), "status=false: %s", body.Msg)
	}

	points := make([]provider.SeriesPoint, 0, len(body.Response))
	for _, row := range body.Response {
		d, ok := provider.ParseTime(row.Date)
		if !ok {
			continue
		}
		c, err := number(row.Close)
		if err != nil {
			continue
		}
		points = append(points, provider.SeriesPoint{Date: d, Price: c.Round(2).InexactFloat64()})
	}
	points = provider.NormalizeSeries(points, period)
	if len(points) == 0 {
		return provider.Series{}, provider.Schema(p.Name(), "no usable points for %s", period)
	}
	return provider.Series{Period: period, Points: points, Source: p.Name(), Success: true}, nil
}

// number parses FCS figures such as "2701.33", "+13.23" and "+0.49%".
func number(s string) (decimal.Decimal, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	return provider.ParseDecimal(strings.TrimPrefix(s, "+"))
}
