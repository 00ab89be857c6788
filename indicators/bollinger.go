package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// Bollinger computes rolling bands: a simple moving average plus and
// minus a multiple of the rolling sample standard deviation. Value()
// returns the middle band; Upper and Lower return the outer bands.
type Bollinger struct {
	period int
	numStd float64
	window []float64
}

func NewBollinger(period int, numStd float64) *Bollinger {
	return &Bollinger{
		period: period,
		numStd: numStd,
		window: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.numStd)
}

func (b *Bollinger) Warmup() int { return b.period }

func (b *Bollinger) Reset() {
	b.window = b.window[:0]
}

func (b *Bollinger) Update(bar market.Bar) {
	b.window = append(b.window, bar.Close)
	if len(b.window) > b.period {
		b.window = b.window[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return len(b.window) >= b.period
}

func (b *Bollinger) Value() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean()
}

func (b *Bollinger) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() + b.numStd*b.stddev()
}

func (b *Bollinger) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() - b.numStd*b.stddev()
}

func (b *Bollinger) mean() float64 {
	sum := 0.0
	for _, v := range b.window {
		sum += v
	}
	return sum / float64(len(b.window))
}

// stddev is the sample standard deviation of the window.
func (b *Bollinger) stddev() float64 {
	n := len(b.window)
	if n < 2 {
		return 0
	}
	m := b.mean()
	var ss float64
	for _, v := range b.window {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
