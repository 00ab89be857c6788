package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Grid trades a price ladder anchored at the last trade price: a drop
// of BuyThreshold buys a 0.1 step, a rise of SellThreshold sells one.
// Its internal step counter saturates at ±0.9 and snaps back to flat
// once it pins against a bound; the counter is the strategy's own
// bookkeeping and may go negative even though the engine clamps the
// executed ratio at zero.
type Grid struct {
	BuyThreshold  float64 // fractional drop that triggers a buy, e.g. 0.005
	SellThreshold float64 // fractional rise that triggers a sell
}

const gridStep = 0.1

func (s *Grid) Name() string {
	return fmt.Sprintf("grid(%.3f/%.3f)", s.BuyThreshold, s.SellThreshold)
}

func (s *Grid) Signals(series *market.BarSeries) []float64 {
	n := series.Len()
	if n == 0 {
		return nil
	}
	signals := make([]float64, n)

	position := 0.0
	lastTradePrice := series.Bars[0].Close

	for i := 1; i < n; i++ {
		price := series.Bars[i].Close
		changePct := (price - lastTradePrice) / lastTradePrice

		switch {
		case changePct <= -s.BuyThreshold && position < 0.9:
			signals[i] = gridStep
			position += gridStep
			lastTradePrice = price

		case changePct >= s.SellThreshold && position > -0.9:
			signals[i] = -gridStep
			position -= gridStep
			lastTradePrice = price

		case position <= -0.999 || position >= 0.999:
			signals[i] = -position
			position = 0
			lastTradePrice = price
		}
	}
	return signals
}
