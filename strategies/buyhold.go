package strategies

import "github.com/rustyeddy/backtester/market"

// BuyAndHold goes all-in on the first bar and liquidates on the last.
type BuyAndHold struct{}

func (BuyAndHold) Name() string { return "buy-and-hold" }

func (BuyAndHold) Signals(series *market.BarSeries) []float64 {
	n := series.Len()
	if n == 0 {
		return nil
	}
	signals := make([]float64, n)
	signals[0] = 1
	signals[n-1] = -1
	return signals
}
