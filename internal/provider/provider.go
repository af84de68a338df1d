package provider

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// SourceSynthetic identifies values produced by the synthetic generator.
const SourceSynthetic = "synthetic"

// Quote is the normalized point-in-time reading returned by all providers.
// Change and ChangePercent are nil when the upstream does not report them.
type Quote struct {
	Price         float64   `json:"price" validate:"gt=0"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp" validate:"required"`
	Source        string    `json:"source" validate:"required"`
}

// SeriesPoint is one sample of a historical series.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Volume *int64    `json:"volume,omitempty"`
}

// Series is a historical sequence for one Period, strictly ascending by Date.
// Success is false when the points were generated rather than fetched.
type Series struct {
	Period  Period        `json:"period"`
	Points  []SeriesPoint `json:"prices"`
	Source  string        `json:"source"`
	Success bool          `json:"success"`
}

// Provider wraps exactly one upstream quote source. Every failure path is
// reported as a *Failure.
type Provider interface {
	Name() string
	FetchQuote(ctx context.Context) (Quote, error)
	FetchSeries(ctx context.Context, period Period) (Series, error)
}

var validate = validator.New()

// ValidateQuote reports whether q is structurally usable: a finite positive
// price, a timestamp and a source.
func ValidateQuote(q Quote) error {
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return Schema(q.Source, "price is not finite")
	}
	if err := validate.Struct(q); err != nil {
		return Schema(q.Source, err.Error())
	}
	return nil
}

// ValidSeries reports whether s has at least one point, positive prices and
// strictly ascending dates.
func ValidSeries(s Series) bool {
	if len(s.Points) == 0 {
		return false
	}
	for i, p := range s.Points {
		if !(p.Price > 0) || math.IsInf(p.Price, 0) {
			return false
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			return false
		}
	}
	return true
}

// Float returns a pointer to v, for optional quote fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional volumes.
func Int(v int64) *int64 { return &v }
