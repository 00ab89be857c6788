package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// RSIReversal buys when RSI recovers up through the oversold threshold
// and sells when it falls back through the overbought threshold.
type RSIReversal struct {
	Period     int
	Oversold   float64
	Overbought float64
	Scale      float64
}

func (s *RSIReversal) Name() string {
	return fmt.Sprintf("rsi(%d)", s.Period)
}

func (s *RSIReversal) Signals(series *market.BarSeries) []float64 {
	signals := make([]float64, series.Len())

	rsi := indicators.NewRSI(s.Period)
	var prev float64
	havePrev := false
	for i, bar := range series.Bars {
		rsi.Update(bar)
		if !rsi.Ready() {
			continue
		}

		cur := rsi.Value()
		if havePrev {
			switch {
			case prev < s.Oversold && cur >= s.Oversold:
				signals[i] = s.Scale
			case prev > s.Overbought && cur <= s.Overbought:
				signals[i] = -s.Scale
			}
		}
		prev = cur
		havePrev = true
	}
	return signals
}
