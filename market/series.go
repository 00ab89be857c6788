package market

import (
	"fmt"
	"sort"
	"time"
)

// BarSeries is an ordered sequence of bars for a single symbol.
// Timestamps are strictly increasing; NewBarSeries enforces this.
type BarSeries struct {
	Symbol string
	Bars   []Bar

	// BadRows counts input rows that were skipped during CSV loading
	// (unparseable timestamps or price fields).
	BadRows int
}

// NewBarSeries validates ordering and wraps the bars. The slice is not
// copied; callers must not mutate it afterwards.
func NewBarSeries(symbol string, bars []Bar) (*BarSeries, error) {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("market: bars out of order at index %d (%s then %s)",
				i, bars[i-1].Time.Format(time.RFC3339), bars[i].Time.Format(time.RFC3339))
		}
	}
	return &BarSeries{Symbol: symbol, Bars: bars}, nil
}

func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Interval infers the bar spacing as the median of consecutive
// timestamp deltas. Returns 0 when the series has fewer than two bars.
func (s *BarSeries) Interval() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	diffs := make([]time.Duration, 0, len(s.Bars)-1)
	for i := 1; i < len(s.Bars); i++ {
		diffs = append(diffs, s.Bars[i].Time.Sub(s.Bars[i-1].Time))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	return diffs[len(diffs)/2]
}

// Span is the elapsed time from the first to the last bar.
func (s *BarSeries) Span() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Time.Sub(s.Bars[0].Time)
}

// Head returns a series over the first percentage% of the bars.
// The underlying bar slice is shared, not copied.
func (s *BarSeries) Head(percentage float64) *BarSeries {
	if percentage >= 100 {
		return s
	}
	if percentage < 0 {
		percentage = 0
	}
	n := int(float64(len(s.Bars)) * percentage / 100.0)
	return &BarSeries{Symbol: s.Symbol, Bars: s.Bars[:n], BadRows: s.BadRows}
}

// Closes returns the close price of every bar.
func (s *BarSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}
