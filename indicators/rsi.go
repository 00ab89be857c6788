package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// RSI is a streaming relative strength index using simple rolling
// means of gains and losses over the period (Cutler's variant).
type RSI struct {
	period    int
	prevClose float64
	havePrev  bool
	gains     []float64
	losses    []float64
}

func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		gains:  make([]float64, 0, period),
		losses: make([]float64, 0, period),
	}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

// Warmup is period+1 bars: one to seed the previous close, then period
// price deltas.
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	r.prevClose = 0
	r.havePrev = false
	r.gains = r.gains[:0]
	r.losses = r.losses[:0]
}

func (r *RSI) Update(b market.Bar) {
	if !r.havePrev {
		r.prevClose = b.Close
		r.havePrev = true
		return
	}
	delta := b.Close - r.prevClose
	r.prevClose = b.Close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	r.gains = append(r.gains, gain)
	r.losses = append(r.losses, loss)
	if len(r.gains) > r.period {
		r.gains = r.gains[1:]
		r.losses = r.losses[1:]
	}
}

func (r *RSI) Ready() bool {
	return len(r.gains) >= r.period
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	var avgGain, avgLoss float64
	for i := range r.gains {
		avgGain += r.gains[i]
		avgLoss += r.losses[i]
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat prices, neutral
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
