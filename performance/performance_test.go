package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/engine"
	"github.com/rustyeddy/backtester/market"
)

func minuteCurve(values ...float64) *engine.EquityCurve {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]engine.EquityPoint, len(values))
	for i, v := range values {
		pts[i] = engine.EquityPoint{Time: start.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return engine.NewEquityCurve(pts)
}

func TestAnalyzeEmptyCurve(t *testing.T) {
	assert.Nil(t, Analyze(engine.NewEquityCurve(nil), nil, nil, 10000))

	var r *Report
	assert.Empty(t, r.Map())
}

func TestAnalyzeFullRun(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []market.Bar{
		{Time: start, Close: 100},
		{Time: start.Add(time.Minute), Close: 110},
		{Time: start.Add(2 * time.Minute), Close: 90},
	}
	series, err := market.NewBarSeries("TEST", bars)
	require.NoError(t, err)
	eng, err := engine.New(engine.Config{InitialCapital: 10000, CommissionRate: 0.001}, series)
	require.NoError(t, err)
	require.NoError(t, eng.Run([]float64{1, 0, -1}))

	r := Analyze(eng.EquityCurve(), eng.ClosedPositions(), eng.Trades(), 10000)
	require.NotNil(t, r)

	assert.InDelta(t, -0.1017991, r.TotalReturn, 1e-9)
	assert.InDelta(t, 8982.009, r.FinalCapital, 1e-9)
	assert.InDelta(t, 10000, r.InitialCapital, 1e-9)
	assert.Equal(t, 2, r.TotalTrades)
	assert.Equal(t, 1, r.TotalPositions)
	assert.InDelta(t, -1017.991, r.AvgProfit, 1e-9)
	assert.InDelta(t, -1017.991, r.MaxProfit, 1e-9)
	assert.InDelta(t, -1017.991, r.MaxLoss, 1e-9)
	assert.InDelta(t, 0, r.WinRate, 1e-12)

	// curve spans three minutes of wall clock
	assert.InDelta(t, 3.0/1440.0, r.TimeSpanDays, 1e-12)
	assert.InDelta(t, 365.0*1440.0/3.0, r.AnnualMultiplier, 1e-6)

	// worst leg: 10989 down to 8982.009
	assert.InDelta(t, (8982.009-10989)/10989, r.MaxDrawdown, 1e-9)
	assert.Greater(t, r.AnnualVolatility, 0.0)
}

func TestWeightedWinRate(t *testing.T) {
	closed := []engine.ClosedPosition{
		{NetProfit: 100, BuyPrice: 100, Quantity: 1},
		{NetProfit: -1, BuyPrice: 100, Quantity: 1},
		{NetProfit: -1, BuyPrice: 100, Quantity: 1},
		{NetProfit: -1, BuyPrice: 100, Quantity: 1},
	}
	r := Analyze(minuteCurve(10000, 10097), closed, nil, 10000)
	require.NotNil(t, r)

	// one big win outweighs three small losses
	assert.InDelta(t, 100.0/103.0, r.WinRate, 1e-12)
	assert.Equal(t, 4, r.TotalPositions)
	assert.InDelta(t, 97.0/4.0, r.AvgProfit, 1e-12)
	assert.InDelta(t, 97.0/400.0, r.AvgProfitPercentage, 1e-12)
	assert.InDelta(t, 100, r.MaxProfit, 1e-12)
	assert.InDelta(t, -1, r.MaxLoss, 1e-12)
}

func TestAnnualizationFromSpan(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := []engine.EquityPoint{
		{Time: start, Value: 10000},
		{Time: start.Add(365 * 24 * time.Hour), Value: 11000},
	}
	r := Analyze(engine.NewEquityCurve(pts), nil, nil, 10000)
	require.NotNil(t, r)

	assert.InDelta(t, 0.1, r.TotalReturn, 1e-12)
	assert.InDelta(t, 365, r.TimeSpanDays, 1e-9)
	assert.InDelta(t, 1, r.AnnualMultiplier, 1e-9)
	assert.InDelta(t, 0.1, r.AnnualReturn, 1e-9)
	// a single return sample has no dispersion
	assert.InDelta(t, 0, r.AnnualVolatility, 1e-12)
	assert.InDelta(t, 0, r.SharpeRatio, 1e-12)
}

func TestFlatCurve(t *testing.T) {
	r := Analyze(minuteCurve(10000, 10000, 10000, 10000), nil, nil, 10000)
	require.NotNil(t, r)

	assert.InDelta(t, 0, r.TotalReturn, 1e-12)
	assert.InDelta(t, 0, r.AnnualReturn, 1e-12)
	assert.InDelta(t, 0, r.AnnualVolatility, 1e-12)
	assert.InDelta(t, 0, r.SharpeRatio, 1e-12)
	assert.InDelta(t, 0, r.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0, r.WinRate, 1e-12)
}

func TestMaxDrawdownCumulative(t *testing.T) {
	r := Analyze(minuteCurve(10000, 11000, 5500, 6600), nil, nil, 10000)
	require.NotNil(t, r)
	assert.InDelta(t, -0.5, r.MaxDrawdown, 1e-12)
}

func TestDeadTime(t *testing.T) {
	r := Analyze(minuteCurve(10000, 5, 0.05, 0.01), nil, nil, 10000)
	require.NotNil(t, r)
	assert.Equal(t, 2*time.Minute, r.DeadTime)
	assert.InDelta(t, 2, r.DeadTimeMinutes, 1e-12)

	alive := Analyze(minuteCurve(10000, 10100, 10200), nil, nil, 10000)
	require.NotNil(t, alive)
	assert.Equal(t, 2*time.Minute, alive.DeadTime)
}

func TestReportMapKeys(t *testing.T) {
	r := Analyze(minuteCurve(10000, 10100), nil, nil, 10000)
	require.NotNil(t, r)

	m := r.Map()
	for _, key := range []string{
		"total_return", "annual_return", "annual_volatility", "sharpe_ratio",
		"max_drawdown", "win_rate", "total_trades", "total_positions",
		"avg_profit", "avg_profit_percentage", "max_profit", "max_loss",
		"final_capital", "initial_capital", "time_span_days",
		"annual_multiplier", "dead_time", "dead_time_minutes",
	} {
		assert.Contains(t, m, key)
	}
	assert.InDelta(t, 0.01, m["total_return"].(float64), 1e-12)
}
