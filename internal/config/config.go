package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"goldfeed/internal/provider/synthetic"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Provider names accepted in providers.order.
const (
	NameBackend      = "backend"
	NameYahoo        = "yahoo"
	NameYahooETF     = "yahoo-etf"
	NameCoinbase     = "coinbase"
	NameFCS          = "fcs"
	NameAlphaVantage = "alphavantage"
)

// defaultBackendURL is used when no backend base URL is configured.
var defaultBackendURL = map[string]string{
	EnvDevelopment: "http://localhost:8080",
	EnvProduction:  "https://xauusd.example.com",
}

// Limits are the rate-limit and cache knobs every provider shares.
type Limits struct {
	MaxRequestsPerMinute  int `json:"max_requests_per_minute" yaml:"max_requests_per_minute" validate:"gte=0"`
	MinRequestIntervalSec int `json:"min_request_interval_sec" yaml:"min_request_interval_sec" validate:"gte=0"`
	Burst                 int `json:"burst" yaml:"burst" validate:"gte=0"`
	QuoteCacheTTLSec      int `json:"quote_cache_ttl_sec" yaml:"quote_cache_ttl_sec" validate:"gte=0"`
	SeriesCacheTTLSec     int `json:"series_cache_ttl_sec" yaml:"series_cache_ttl_sec" validate:"gte=0"`
}

type Backend struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Limits  `yaml:",inline"`
}

type Yahoo struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	BaseURL    string  `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Symbol     string  `json:"symbol" yaml:"symbol" validate:"required"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier" validate:"gt=0"`
	Limits     `yaml:",inline"`
}

type Coinbase struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Limits  `yaml:",inline"`
}

type FCS struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Limits  `yaml:",inline"`
}

type AlphaVantage struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	From    string `json:"from" yaml:"from" validate:"required"`
	To      string `json:"to" yaml:"to" validate:"required"`
	// Entitlement is only for premium keys: realtime or delayed.
	Entitlement string `json:"entitlement" yaml:"entitlement" validate:"omitempty,oneof=realtime delayed"`
	Limits      `yaml:",inline"`
}

type Providers struct {
	// Order is the fallback priority; the first valid answer wins.
	Order        []string     `json:"order" yaml:"order" validate:"unique,dive,oneof=backend yahoo yahoo-etf coinbase fcs alphavantage"`
	TimeoutSec   int          `json:"timeout_sec" yaml:"timeout_sec" validate:"gt=0"`
	Backend      Backend      `json:"backend" yaml:"backend"`
	Yahoo        Yahoo        `json:"yahoo" yaml:"yahoo"`
	YahooETF     Yahoo        `json:"yahoo_etf" yaml:"yahoo_etf"`
	Coinbase     Coinbase     `json:"coinbase" yaml:"coinbase"`
	FCS          FCS          `json:"fcs" yaml:"fcs"`
	AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
}

type Poller struct {
	// Schedule is a cron spec or descriptor such as "@every 30s".
	Schedule string `json:"schedule" yaml:"schedule" validate:"required"`
	// MaxAgeSec is how old a polled quote may be before reads bypass it.
	MaxAgeSec int `json:"max_age_sec" yaml:"max_age_sec" validate:"gt=0"`
}

type Config struct {
	Env       string           `json:"env" yaml:"env" validate:"oneof=development production"`
	Providers Providers        `json:"providers" yaml:"providers"`
	Poller    Poller           `json:"poller" yaml:"poller"`
	Synthetic synthetic.Config `json:"synthetic" yaml:"synthetic"`
}

func Default() Config {
	return Config{
		Env: EnvDevelopment,
		Providers: Providers{
			Order:      []string{NameBackend, NameYahoo, NameYahooETF, NameCoinbase, NameFCS, NameAlphaVantage},
			TimeoutSec: 5,
			Backend: Backend{
				Enabled: true,
				Limits:  Limits{QuoteCacheTTLSec: 60, SeriesCacheTTLSec: 300},
			},
			Yahoo: Yahoo{
				Enabled:    true,
				Symbol:     "GC=F",
				Multiplier: 1,
				Limits:     Limits{MaxRequestsPerMinute: 30, Burst: 5, QuoteCacheTTLSec: 60, SeriesCacheTTLSec: 300},
			},
			YahooETF: Yahoo{
				Enabled:    true,
				Symbol:     "GLD",
				Multiplier: 10,
				Limits:     Limits{MaxRequestsPerMinute: 30, Burst: 5, QuoteCacheTTLSec: 60, SeriesCacheTTLSec: 300},
			},
			Coinbase: Coinbase{
				Enabled: true,
				Limits:  Limits{QuoteCacheTTLSec: 60},
			},
			FCS: FCS{
				Enabled: true,
				// free plan: 500 requests per month
				Limits: Limits{MinRequestIntervalSec: 10, QuoteCacheTTLSec: 300, SeriesCacheTTLSec: 3600},
			},
			AlphaVantage: AlphaVantage{
				Enabled: true,
				From:    "XAU",
				To:      "USD",
				// free tier: 25 requests per day
				Limits: Limits{MinRequestIntervalSec: 12, QuoteCacheTTLSec: 300, SeriesCacheTTLSec: 3600},
			},
		},
		Poller:    Poller{Schedule: "@every 30s", MaxAgeSec: 60},
		Synthetic: synthetic.DefaultConfig(),
	}
}

// Load reads a JSON or YAML (by extension) config from path on top of the
// defaults. An empty path tries config.json then config.yaml in the working
// directory; a missing file is not an error. Environment variables override
// file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	cfg.resolve()
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// resolve fills values that depend on other settings.
func (c *Config) resolve() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Providers.Backend.BaseURL == "" {
		c.Providers.Backend.BaseURL = defaultBackendURL[c.Env]
	}
}

var validate = validator.New()

// Validate checks struct tags and that the poll schedule parses.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cron.ParseStandard(c.Poller.Schedule); err != nil {
		return fmt.Errorf("invalid config: poller.schedule %q: %w", c.Poller.Schedule, err)
	}
	return nil
}
