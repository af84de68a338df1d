package provider

import (
	"sort"
	"strings"
	"time"
)

// Period is a named historical range.
type Period string

const (
	Period1D Period = "1D"
	Period1W Period = "1W"
	Period1M Period = "1M"
	Period3M Period = "3M"
	Period6M Period = "6M"
	Period1Y Period = "1Y"
)

// DefaultPeriod is used when a period is omitted or not recognized.
const DefaultPeriod = Period1M

// Span is the canonical (point-count, spacing) pair for a Period.
type Span struct {
	Count int
	Unit  time.Duration
}

const day = 24 * time.Hour

var spans = map[Period]Span{
	Period1D: {Count: 24, Unit: time.Hour},
	Period1W: {Count: 7, Unit: day},
	Period1M: {Count: 30, Unit: day},
	Period3M: {Count: 90, Unit: day},
	Period6M: {Count: 180, Unit: day},
	Period1Y: {Count: 365, Unit: day},
}

// Periods lists the recognized periods, shortest first.
var Periods = []Period{Period1D, Period1W, Period1M, Period3M, Period6M, Period1Y}

// ParsePeriod maps s onto a Period, case-insensitively. Empty or unknown
// input yields DefaultPeriod.
func ParsePeriod(s string) Period {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := spans[p]; ok {
		return p
	}
	return DefaultPeriod
}

// Span returns the (count, unit) pair for p; unknown periods use DefaultPeriod.
func (p Period) Span() Span {
	if s, ok := spans[p]; ok {
		return s
	}
	return spans[DefaultPeriod]
}

// Valid reports whether p is one of the recognized periods.
func (p Period) Valid() bool {
	_, ok := spans[p]
	return ok
}

// NormalizeSeries sorts points ascending by date, drops non-positive prices,
// collapses equal dates (later input wins) and keeps only the most recent
// period.Span().Count points. The input slice is not modified.
func NormalizeSeries(points []SeriesPoint, period Period) []SeriesPoint {
	out := make([]SeriesPoint, 0, len(points))
	for _, p := range points {
		if p.Price > 0 && !p.Date.IsZero() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(p.Date) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}

	if limit := period.Span().Count; len(dedup) > limit {
		dedup = dedup[len(dedup)-limit:]
	}
	return dedup
}
