package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// SMA is a streaming simple moving average of close prices.
type SMA struct {
	period int
	window []float64
}

func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", s.period)
}

func (s *SMA) Warmup() int { return s.period }

func (s *SMA) Reset() {
	s.window = s.window[:0]
}

func (s *SMA) Update(b market.Bar) {
	s.window = append(s.window, b.Close)
	if len(s.window) > s.period {
		s.window = s.window[1:]
	}
}

func (s *SMA) Ready() bool {
	return len(s.window) >= s.period
}

func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	sum := 0.0
	for _, v := range s.window {
		sum += v
	}
	return sum / float64(len(s.window))
}
