package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// SMACross emits +Scale when the short SMA crosses above the long SMA
// and -Scale when it crosses below. Zero until both averages are warm.
type SMACross struct {
	Short int
	Long  int
	Scale float64
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma-cross(%d/%d)", s.Short, s.Long)
}

func (s *SMACross) Signals(series *market.BarSeries) []float64 {
	return crossSignals(series, indicators.NewSMA(s.Short), indicators.NewSMA(s.Long), s.Scale)
}

// EMACross is SMACross with exponential averages.
type EMACross struct {
	Short int
	Long  int
	Scale float64
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema-cross(%d/%d)", s.Short, s.Long)
}

func (s *EMACross) Signals(series *market.BarSeries) []float64 {
	return crossSignals(series, indicators.NewEMA(s.Short), indicators.NewEMA(s.Long), s.Scale)
}

func crossSignals(series *market.BarSeries, short, long indicators.Indicator, scale float64) []float64 {
	signals := make([]float64, series.Len())

	var prevShort, prevLong float64
	havePrev := false
	for i, bar := range series.Bars {
		short.Update(bar)
		long.Update(bar)
		if !long.Ready() {
			continue
		}

		cs, cl := short.Value(), long.Value()
		if havePrev {
			switch {
			case cs > cl && prevShort <= prevLong:
				signals[i] = scale
			case cs < cl && prevShort >= prevLong:
				signals[i] = -scale
			}
		}
		prevShort, prevLong = cs, cl
		havePrev = true
	}
	return signals
}
