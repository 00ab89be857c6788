package strategies

import "github.com/rustyeddy/backtester/market"

// Noop never trades. Useful as a baseline and in tests.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signals(series *market.BarSeries) []float64 {
	return make([]float64, series.Len())
}
