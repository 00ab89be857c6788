package engine

import (
	"sort"
	"time"
)

// EquityPoint is one sample of total portfolio value.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// EquityCurve is the per-bar time series of portfolio value. A run of
// n bars produces n+1 points: one pre-trade sample followed by one per
// processed bar. Timestamps are non-decreasing.
type EquityCurve struct {
	points []EquityPoint
}

// NewEquityCurve wraps pre-built samples, mainly for analytics over
// curves loaded back from a journal. The slice is not copied.
func NewEquityCurve(points []EquityPoint) *EquityCurve {
	return &EquityCurve{points: points}
}

func (c *EquityCurve) append(t time.Time, v float64) {
	c.points = append(c.points, EquityPoint{Time: t, Value: v})
}

func (c *EquityCurve) reset() {
	c.points = c.points[:0]
}

func (c *EquityCurve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.points)
}

// Points returns the samples in order. Callers must not mutate them.
func (c *EquityCurve) Points() []EquityPoint {
	if c == nil {
		return nil
	}
	return c.points
}

// Values returns just the portfolio values, in sample order.
func (c *EquityCurve) Values() []float64 {
	out := make([]float64, c.Len())
	for i, p := range c.Points() {
		out[i] = p.Value
	}
	return out
}

func (c *EquityCurve) First() (EquityPoint, bool) {
	if c.Len() == 0 {
		return EquityPoint{}, false
	}
	return c.points[0], true
}

func (c *EquityCurve) Last() (EquityPoint, bool) {
	if c.Len() == 0 {
		return EquityPoint{}, false
	}
	return c.points[len(c.points)-1], true
}

// Span is the elapsed time covered by the curve.
func (c *EquityCurve) Span() time.Duration {
	if c.Len() < 2 {
		return 0
	}
	return c.points[len(c.points)-1].Time.Sub(c.points[0].Time)
}

// Interval infers the sample spacing as the median of consecutive
// timestamp deltas, which matches the bar interval of the run that
// produced the curve. Returns 0 with fewer than two samples.
func (c *EquityCurve) Interval() time.Duration {
	if c.Len() < 2 {
		return 0
	}
	diffs := make([]time.Duration, 0, c.Len()-1)
	for i := 1; i < c.Len(); i++ {
		diffs = append(diffs, c.points[i].Time.Sub(c.points[i-1].Time))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	return diffs[len(diffs)/2]
}
