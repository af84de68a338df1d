// Package coinbase derives a gold quote from Coinbase's public USD exchange
// rates. The API offers no history.
package coinbase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"goldfeed/internal/httpx"
	"goldfeed/internal/provider"
)

const DefaultBaseURL = "https://api.coinbase.com"

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
		cfg.Name = "coinbase"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = httpx.New(0)
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

type ratesResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

// FetchQuote inverts the USD->XAU rate into USD per ounce.
func (p *Provider) FetchQuote(ctx context.Context) (provider.Quote, error) {
	var body ratesResponse
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL+"/v2/exchange-rates?currency=USD", &body); err != nil {
		return provider.Quote{}, provider.FromHTTP(p.Name(), err)
	}
	raw, ok := body.Data.Rates["XAU"]
	if !ok {
		return provider.Quote{}, provider.Schema(p.Name(), "no XAU rate")
	}
	rate, err := provider.ParseDecimal(raw)
	if err != nil {
		return provider.Quote{}, provider.Schema(p.Name(), "bad XAU rate %q", raw)
	}
	if !rate.IsPositive() {
		return provider.Quote{}, provider.Schema(p.Name(), "non-positive XAU rate %q", raw)
	}

	q := provider.Quote{
		Price:     decimal.NewFromInt(1).Div(rate).Round(2).InexactFloat64(),
		Timestamp: p.now(),
		Source:    p.Name(),
	}
	if err := provider.ValidateQuote(q); err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

func (p *Provider) FetchSeries(context.Context, provider.Period) (provider.Series, error) {
	return provider.Series{}, provider.Unsupported(p.Name(), "series")
}
