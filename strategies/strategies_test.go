package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func series(t *testing.T, closes ...float64) *market.BarSeries {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Minute), Close: c}
	}
	s, err := market.NewBarSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func TestNoop(t *testing.T) {
	s := series(t, 1, 2, 3)
	signals := Noop{}.Signals(s)
	assert.Equal(t, []float64{0, 0, 0}, signals)
}

func TestBuyAndHold(t *testing.T) {
	s := series(t, 1, 2, 3)
	assert.Equal(t, []float64{1, 0, -1}, BuyAndHold{}.Signals(s))

	// a single bar cannot both enter and exit; exit wins
	one := series(t, 1)
	assert.Equal(t, []float64{-1}, BuyAndHold{}.Signals(one))

	empty := series(t)
	assert.Empty(t, BuyAndHold{}.Signals(empty))
}

func TestSMACross(t *testing.T) {
	s := series(t, 10, 9, 8, 7, 9, 11, 12)
	strat := &SMACross{Short: 2, Long: 3, Scale: 1}

	signals := strat.Signals(s)
	require.Len(t, signals, s.Len())

	// the short average overtakes the long one on the sixth bar
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1, 0}, signals)
}

func TestEMACrossLength(t *testing.T) {
	s := series(t, 10, 9, 8, 7, 9, 11, 12, 13, 11, 9)
	strat := &EMACross{Short: 2, Long: 3, Scale: 0.5}

	signals := strat.Signals(s)
	require.Len(t, signals, s.Len())
	for _, v := range signals {
		assert.Contains(t, []float64{-0.5, 0, 0.5}, v)
	}
}

func TestRSIReversal(t *testing.T) {
	s := series(t, 10, 9, 8, 7, 6, 7, 8, 9)
	strat := &RSIReversal{Period: 3, Oversold: 30, Overbought: 70, Scale: 1}

	signals := strat.Signals(s)
	require.Len(t, signals, s.Len())

	// the first up tick lifts RSI back through the oversold line
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1, 0, 0}, signals)
}

func TestBollingerBounce(t *testing.T) {
	s := series(t, 10, 10, 10, 20)
	strat := &BollingerBounce{Window: 2, NumStd: 2, Scale: 1}

	signals := strat.Signals(s)
	// zero-width bands at flat prices count as a lower-band touch
	assert.Equal(t, []float64{0, 1, 1, 0}, signals)
}

func TestGrid(t *testing.T) {
	s := series(t, 100, 99, 100, 101)
	strat := &Grid{BuyThreshold: 0.005, SellThreshold: 0.005}

	signals := strat.Signals(s)
	assert.InDeltaSlice(t, []float64{0, 0.1, -0.1, -0.1}, signals, 1e-12)

	empty := series(t)
	assert.Empty(t, strat.Signals(empty))
}

func TestGridAnchorsAtLastTrade(t *testing.T) {
	// a slow drift never 0.5% away from the last trade price stays flat
	s := series(t, 100, 100.1, 100.2, 100.3)
	strat := &Grid{BuyThreshold: 0.005, SellThreshold: 0.005}
	assert.Equal(t, []float64{0, 0, 0, 0}, strat.Signals(s))
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		strat, err := ByName(name, nil)
		require.NoError(t, err, name)
		assert.NotEmpty(t, strat.Name())
	}

	strat, err := ByName("sma-cross", Params{"short_window": 5, "long_window": 15, "k": 0.5})
	require.NoError(t, err)
	sma, ok := strat.(*SMACross)
	require.True(t, ok)
	assert.Equal(t, 5, sma.Short)
	assert.Equal(t, 15, sma.Long)
	assert.InDelta(t, 0.5, sma.Scale, 1e-12)

	_, err = ByName("martingale", nil)
	assert.Error(t, err)
}

func TestSignalsMatchSeriesLength(t *testing.T) {
	s := series(t, 10, 11, 12, 11, 10, 9, 10, 11, 12, 13)
	for _, name := range Names() {
		strat, err := ByName(name, nil)
		require.NoError(t, err)
		assert.Len(t, strat.Signals(s), s.Len(), name)
	}
}
