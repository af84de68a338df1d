// Package content holds the fixed example trading signals and news items
// shown next to the quote. None of it is derived from live prices.
package content

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

type SignalType string

const (
	Buy  SignalType = "buy"
	Sell SignalType = "sell"
	Hold SignalType = "hold"
)

type Signal struct {
	Type      SignalType `json:"type" validate:"oneof=buy sell hold"`
	Strength  int        `json:"strength" validate:"min=1,max=5"`
	Timeframe string     `json:"timeframe" validate:"required"`
	Reason    string     `json:"reason" validate:"required"`
	Price     float64    `json:"price" validate:"gt=0"`
	Target    float64    `json:"target" validate:"gt=0"`
	StopLoss  float64    `json:"stopLoss" validate:"gt=0"`
}

type Impact string

const (
	Low    Impact = "low"
	Medium Impact = "medium"
	High   Impact = "high"
)

type NewsItem struct {
	ID       int       `json:"id" validate:"gt=0"`
	Title    string    `json:"title" validate:"required"`
	Summary  string    `json:"summary" validate:"required"`
	Source   string    `json:"source" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Impact   Impact    `json:"impact" validate:"oneof=low medium high"`
	URL      string    `json:"url" validate:"required,url"`
	Category string    `json:"category" validate:"oneof=economic market geopolitical"`
}

var signals = []Signal{
	{Buy, 4, "short-term (1-5 days)", "Golden cross on 4H chart, RSI showing oversold conditions", 2302.45, 2320.00, 2290.00},
	{Hold, 3, "medium-term (1-2 weeks)", "Price consolidating near previous resistance, waiting for breakout confirmation", 2302.45, 2325.00, 2285.00},
	{Sell, 2, "short-term (1-5 days)", "Short-term overbought on hourly chart, potential pullback expected", 2302.45, 2295.00, 2310.00},
}

// Signals returns the example signals. The slice is the caller's to keep.
func Signals() []Signal { return slices.Clone(signals) }

const newsURL = "https://lnk.brokerinspect.com/trade-gold"

type newsTemplate struct {
	title, summary, source string
	impact                 Impact
	category               string
}

var news = []newsTemplate{
	{
		"Fed Minutes Signal Rates to Stay Higher for Longer, Gold Prices React",
		"The Federal Reserve meeting minutes indicated that interest rates may stay elevated longer than expected, putting pressure on non-yielding assets like gold.",
		"Financial Times", High, "economic",
	},
	{
		"Rising Inflation in Eurozone Boosts Gold's Appeal as Hedge",
		"Higher than expected inflation figures from Europe have increased gold's attractiveness as an inflation hedge, pushing prices higher.",
		"Bloomberg", Medium, "economic",
	},
	{
		"Central Banks Continue Gold Buying Spree in Q1 2025",
		"Central banks globally have continued their significant gold purchases in the first quarter, supporting prices and reflecting ongoing dedollarization trends.",
		"Reuters", Medium, "market",
	},
	{
		"Gold Technical Analysis: Breakout Above Key Resistance Level",
		"Gold prices have broken above a significant technical resistance level, suggesting potential for further upside movement in the near term.",
		"Trading View", Medium, "market",
	},
	{
		"Geopolitical Tensions in Middle East Support Safe Haven Demand",
		"Escalating conflicts in the Middle East have increased demand for gold as investors seek safe haven assets amid rising uncertainty.",
		"Wall Street Journal", High, "geopolitical",
	},
}

// News returns the example news items, newest first, dated one day apart
// ending at now.
func News(now time.Time) []NewsItem {
	out := make([]NewsItem, len(news))
	for i, n := range news {
		out[i] = NewsItem{
			ID:       i + 1,
			Title:    n.title,
			Summary:  n.summary,
			Source:   n.source,
			Date:     now.Add(-time.Duration(i) * 24 * time.Hour),
			Impact:   n.impact,
			URL:      newsURL,
			Category: n.category,
		}
	}
	return out
}

var validate = validator.New()

// Validate checks a Signal or NewsItem against its struct tags.
func Validate(v any) error { return validate.Struct(v) }
