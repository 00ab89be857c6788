package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// BollingerBounce buys when the close touches the lower band and sells
// when it touches the upper band.
type BollingerBounce struct {
	Window int
	NumStd float64
	Scale  float64
}

func (s *BollingerBounce) Name() string {
	return fmt.Sprintf("bollinger(%d,%.1f)", s.Window, s.NumStd)
}

func (s *BollingerBounce) Signals(series *market.BarSeries) []float64 {
	signals := make([]float64, series.Len())

	bands := indicators.NewBollinger(s.Window, s.NumStd)
	for i, bar := range series.Bars {
		bands.Update(bar)
		if !bands.Ready() {
			continue
		}

		switch {
		case bar.Close <= bands.Lower():
			signals[i] = s.Scale
		case bar.Close >= bands.Upper():
			signals[i] = -s.Scale
		}
	}
	return signals
}
