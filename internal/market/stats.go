package market

import (
	"context"
	"time"

	"goldfeed/internal/provider"
)

type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Stats summarizes recent price ranges. Success is false when the yearly
// series behind it was synthetic.
type Stats struct {
	DayRange     Range     `json:"day_range"`
	WeekRange    Range     `json:"week_range"`
	MonthRange   Range     `json:"month_range"`
	YearRange    Range     `json:"year_range"`
	CurrentPrice float64   `json:"current_price"`
	Source       string    `json:"source"`
	Success      bool      `json:"success"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// dayBand is the half-width of the day range around the current price.
const dayBand = 0.005

// GetMarketStats derives ranges from the 1Y series and the current quote.
// Every range contains the current price.
func (s *Service) GetMarketStats(ctx context.Context) Stats {
	q := s.GetCurrentQuote(ctx)
	series, _ := s.chain.Series(ctx, provider.Period1Y)

	cur := q.Price
	return Stats{
		DayRange: Range{
			Low:  provider.RoundCents(cur * (1 - dayBand)),
			High: provider.RoundCents(cur * (1 + dayBand)),
		},
		WeekRange:    window(series.Points, 7*24*time.Hour, cur),
		MonthRange:   window(series.Points, 30*24*time.Hour, cur),
		YearRange:    window(series.Points, 365*24*time.Hour, cur),
		CurrentPrice: cur,
		Source:       series.Source,
		Success:      series.Success,
		UpdatedAt:    s.clock.Now(),
	}
}

// window returns the low/high of cur and every point within span of the
// newest point. Points are ascending.
func window(points []provider.SeriesPoint, span time.Duration, cur float64) Range {
	r := Range{Low: cur, High: cur}
	if len(points) == 0 {
		return r
	}
	cutoff := points[len(points)-1].Date.Add(-span)
	for i := len(points) - 1; i >= 0 && points[i].Date.After(cutoff); i-- {
		p := points[i].Price
		if p < r.Low {
			r.Low = p
		}
		if p > r.High {
			r.High = p
		}
	}
	r.Low, r.High = provider.RoundCents(r.Low), provider.RoundCents(r.High)
	return r
}
