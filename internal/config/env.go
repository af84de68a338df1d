package config

import (
	"fmt"
	"os"
	"strings"
)

func applyEnv(cfg *Config) {
	if v := os.Getenv("GOLDFEED_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PROVIDER_ORDER"); v != "" {
		cfg.Providers.Order = splitCSV(v)
	}
	envInt("PROVIDER_TIMEOUT_SEC", 1, &cfg.Providers.TimeoutSec)
	if v := os.Getenv("POLL_SCHEDULE"); v != "" {
		cfg.Poller.Schedule = v
	}
	envInt("POLL_MAX_AGE_SEC", 1, &cfg.Poller.MaxAgeSec)

	p := &cfg.Providers
	envBool("BACKEND_ENABLED", &p.Backend.Enabled)
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		p.Backend.BaseURL = v
	}
	envLimits("BACKEND", &p.Backend.Limits)

	envBool("YAHOO_ENABLED", &p.Yahoo.Enabled)
	if v := os.Getenv("YAHOO_SYMBOL"); v != "" {
		p.Yahoo.Symbol = v
	}
	envLimits("YAHOO", &p.Yahoo.Limits)

	envBool("YAHOO_ETF_ENABLED", &p.YahooETF.Enabled)
	if v := os.Getenv("YAHOO_ETF_SYMBOL"); v != "" {
		p.YahooETF.Symbol = v
	}
	if v := os.Getenv("YAHOO_ETF_MULTIPLIER"); v != "" {
		var x float64
		fmt.Sscanf(v, "%g", &x)
		if x > 0 {
			p.YahooETF.Multiplier = x
		}
	}
	envLimits("YAHOO_ETF", &p.YahooETF.Limits)

	envBool("COINBASE_ENABLED", &p.Coinbase.Enabled)
	envLimits("COINBASE", &p.Coinbase.Limits)

	envBool("FCS_ENABLED", &p.FCS.Enabled)
	if v := os.Getenv("FCS_API_KEY"); v != "" {
		p.FCS.APIKey = v
	}
	envLimits("FCS", &p.FCS.Limits)

	envBool("ALPHA_VANTAGE_ENABLED", &p.AlphaVantage.Enabled)
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		p.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_ENTITLEMENT"); v != "" {
		p.AlphaVantage.Entitlement = v
	}
	envLimits("ALPHA_VANTAGE", &p.AlphaVantage.Limits)
}

func envLimits(prefix string, l *Limits) {
	envInt(prefix+"_MAX_RPM", 0, &l.MaxRequestsPerMinute)
	envInt(prefix+"_MIN_INTERVAL_SEC", 0, &l.MinRequestIntervalSec)
	envInt(prefix+"_BURST", 1, &l.Burst)
	envInt(prefix+"_QUOTE_CACHE_TTL_SEC", 0, &l.QuoteCacheTTLSec)
	envInt(prefix+"_SERIES_CACHE_TTL_SEC", 0, &l.SeriesCacheTTLSec)
}

// envInt sets dst when key holds an integer >= min.
func envInt(key string, min int, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x >= min {
		*dst = x
	}
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
