package config

import (
	"log"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/httpx"
	"goldfeed/internal/provider"
	"goldfeed/internal/provider/alphavantage"
	"goldfeed/internal/provider/backend"
	"goldfeed/internal/provider/cache"
	"goldfeed/internal/provider/coinbase"
	"goldfeed/internal/provider/fcs"
	"goldfeed/internal/provider/ratelimit"
	"goldfeed/internal/provider/yahoo"
)

// BuildProviders instantiates the enabled providers in Providers.Order, each
// wrapped with its rate limiter and cache. Providers that cannot be built
// are logged and skipped.
func (c Config) BuildProviders(hc *httpx.Client, clock clockwork.Clock) []provider.Provider {
	if hc == nil {
		hc = httpx.New(c.Timeout())
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := c.Providers
	var out []provider.Provider
	for _, name := range p.Order {
		switch name {
		case NameBackend:
			if !p.Backend.Enabled {
				continue
			}
			if p.Backend.BaseURL == "" {
				log.Println("warning: backend enabled but base_url not set; skipping")
				continue
			}
			be := backend.New(backend.Config{Name: NameBackend, BaseURL: p.Backend.BaseURL}, hc)
			out = append(out, decorate(be, p.Backend.Limits, clock))
		case NameYahoo, NameYahooETF:
			y := p.Yahoo
			if name == NameYahooETF {
				y = p.YahooETF
			}
			if !y.Enabled {
				continue
			}
			yp := yahoo.New(yahoo.Config{Name: name, BaseURL: y.BaseURL, Symbol: y.Symbol, Multiplier: y.Multiplier}, hc)
			out = append(out, decorate(yp, y.Limits, clock))
		case NameCoinbase:
			if !p.Coinbase.Enabled {
				continue
			}
			cb := coinbase.New(coinbase.Config{Name: NameCoinbase, BaseURL: p.Coinbase.BaseURL}, hc)
			out = append(out, decorate(cb, p.Coinbase.Limits, clock))
		case NameFCS:
			if !p.FCS.Enabled {
				continue
			}
			if p.FCS.APIKey == "" {
				log.Println("warning: fcs enabled but FCS_API_KEY not set; skipping")
				continue
			}
			fp := fcs.New(fcs.Config{Name: NameFCS, BaseURL: p.FCS.BaseURL, APIKey: p.FCS.APIKey}, hc)
			out = append(out, decorate(fp, p.FCS.Limits, clock))
		case NameAlphaVantage:
			av := p.AlphaVantage
			if !av.Enabled {
				continue
			}
			if av.APIKey == "" {
				log.Println("warning: alphavantage enabled but ALPHA_VANTAGE_API_KEY not set; skipping")
				continue
			}
			opts := []alphavantage.ClientOption{
				alphavantage.WithHTTPClient(hc.HTTP),
				alphavantage.WithHeader(http.Header{"User-Agent": []string{hc.UserAgent}}),
				alphavantage.WithEntitlement(av.Entitlement),
			}
			if av.BaseURL != "" {
				opts = append(opts, alphavantage.WithBaseURL(av.BaseURL))
			}
			client, err := alphavantage.NewClient(av.APIKey, opts...)
			if err != nil {
				log.Printf("alphavantage client error: %v", err)
				continue
			}
			ap := alphavantage.New(alphavantage.Config{Name: NameAlphaVantage, From: av.From, To: av.To}, client)
			out = append(out, decorate(ap, av.Limits, clock))
		}
	}
	return out
}

// decorate prefers a token bucket when a per-minute rate is set, falling
// back to a fixed interval, then puts the cache outermost so hits never
// spend rate budget.
func decorate(p provider.Provider, l Limits, clock clockwork.Clock) provider.Provider {
	if l.MaxRequestsPerMinute > 0 {
		burst := l.Burst
		if burst <= 0 {
			burst = 1
		}
		rate := float64(l.MaxRequestsPerMinute) / 60.0
		p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst, clock)}
	} else if l.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(l.MinRequestIntervalSec) * time.Second, Clock: clock}
	}
	if l.QuoteCacheTTLSec > 0 || l.SeriesCacheTTLSec > 0 {
		p = &cache.Provider{
			P:         p,
			QuoteTTL:  time.Duration(l.QuoteCacheTTLSec) * time.Second,
			SeriesTTL: time.Duration(l.SeriesCacheTTLSec) * time.Second,
			Clock:     clock,
		}
	}
	return p
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSec) * time.Second
}

func (c Config) MaxAge() time.Duration {
	return time.Duration(c.Poller.MaxAgeSec) * time.Second
}
