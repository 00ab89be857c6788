// Package performance derives return, risk, and win-rate statistics
// from a finished equity curve and realized-P&L ledger. Analyze is a
// pure function over immutable run output: calling it twice on the
// same inputs yields the same report.
package performance

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/rustyeddy/backtester/engine"
)

const (
	daysPerYear = 365

	// deadEquityThreshold is the absolute portfolio value below which
	// the account is considered bankrupt for dead-time purposes. It is
	// a fixed currency-unit cutoff, not scaled to initial capital.
	deadEquityThreshold = 0.1
)

// Report holds every metric computed from one run. DeadTime carries a
// duration; everything else is numeric.
type Report struct {
	TotalReturn      float64
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	MaxDrawdown      float64

	WinRate             float64 // magnitude-weighted: Σ wins / Σ |P&L|
	TotalTrades         int
	TotalPositions      int
	AvgProfit           float64
	AvgProfitPercentage float64
	MaxProfit           float64
	MaxLoss             float64

	FinalCapital     float64
	InitialCapital   float64
	TimeSpanDays     float64
	AnnualMultiplier float64

	DeadTime        time.Duration
	DeadTimeMinutes float64
}

// Analyze computes the full report. It returns nil when the equity
// curve is empty or absent. Degenerate inputs never raise: a zero time
// span zeroes the annualized metrics, zero closed positions zero the
// win-rate family.
func Analyze(curve *engine.EquityCurve, closed []engine.ClosedPosition, trades []engine.Trade, initialCapital float64) *Report {
	if curve.Len() == 0 {
		return nil
	}

	pts := curve.Points()
	first := pts[0]
	last := pts[len(pts)-1]

	r := &Report{
		TotalReturn:    (last.Value - initialCapital) / initialCapital,
		TotalTrades:    len(trades),
		FinalCapital:   last.Value,
		InitialCapital: initialCapital,
	}

	returns := barReturns(pts)

	span := last.Time.Sub(first.Time)
	totalDays := span.Seconds() / 86400
	if len(pts) > 1 && totalDays > 0 {
		r.TimeSpanDays = totalDays
		r.AnnualMultiplier = daysPerYear / totalDays
		r.AnnualReturn = math.Pow(1+r.TotalReturn, r.AnnualMultiplier) - 1
		r.AnnualVolatility = annualVolatility(returns, curve.Interval())
	}

	if r.AnnualVolatility > 0 {
		r.SharpeRatio = r.AnnualReturn / r.AnnualVolatility
	}

	r.MaxDrawdown = maxDrawdown(returns)

	analyzePositions(r, closed)

	r.DeadTime = deadTime(pts)
	r.DeadTimeMinutes = r.DeadTime.Seconds() / 60

	return r
}

// barReturns is the percentage change between consecutive curve
// samples.
func barReturns(pts []engine.EquityPoint) []float64 {
	if len(pts) < 2 {
		return nil
	}
	out := make([]float64, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		prev := pts[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (pts[i].Value-prev)/prev)
	}
	return out
}

// annualVolatility scales the sample standard deviation of per-bar
// returns by sqrt(bars per year), with bars-per-year derived from the
// actual inferred bar spacing rather than a fixed constant.
func annualVolatility(returns []float64, interval time.Duration) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0
	}
	if interval <= 0 {
		interval = time.Minute
	}
	barsPerYear := daysPerYear * 24 * time.Hour.Seconds() / interval.Seconds()
	return sd * math.Sqrt(barsPerYear)
}

// maxDrawdown is the deepest peak-to-trough decline of the cumulative
// product of (1 + per-bar return), as a non-positive fraction of the
// running peak.
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := math.Inf(-1)
	mdd := 0.0
	for _, ret := range returns {
		cum *= 1 + ret
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < mdd {
			mdd = dd
		}
	}
	return mdd
}

func analyzePositions(r *Report, closed []engine.ClosedPosition) {
	r.TotalPositions = len(closed)
	if len(closed) == 0 {
		return
	}

	var wins, losses float64
	var totalCost float64
	profits := make([]float64, len(closed))
	r.MaxProfit = closed[0].NetProfit
	r.MaxLoss = closed[0].NetProfit
	for i, cp := range closed {
		profits[i] = cp.NetProfit
		if cp.NetProfit > 0 {
			wins += cp.NetProfit
		} else {
			losses += -cp.NetProfit
		}
		totalCost += cp.BuyPrice * cp.Quantity
		if cp.NetProfit > r.MaxProfit {
			r.MaxProfit = cp.NetProfit
		}
		if cp.NetProfit < r.MaxLoss {
			r.MaxLoss = cp.NetProfit
		}
	}

	if wins+losses > 0 {
		r.WinRate = wins / (wins + losses)
	}
	r.AvgProfit, _ = stats.Mean(profits)
	if totalCost != 0 {
		r.AvgProfitPercentage = (wins - losses) / totalCost
	}
}

// deadTime is the elapsed time from the first sample to the first one
// below deadEquityThreshold, or the full span when equity never dies.
func deadTime(pts []engine.EquityPoint) time.Duration {
	first := pts[0].Time
	for _, p := range pts {
		if p.Value < deadEquityThreshold {
			return p.Time.Sub(first)
		}
	}
	return pts[len(pts)-1].Time.Sub(first)
}

// Map renders the report as a metric-name to value mapping, the shape
// consumed by tabulation and export tooling. A nil report yields an
// empty map.
func (r *Report) Map() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return map[string]any{
		"total_return":          r.TotalReturn,
		"annual_return":         r.AnnualReturn,
		"annual_volatility":     r.AnnualVolatility,
		"sharpe_ratio":          r.SharpeRatio,
		"max_drawdown":          r.MaxDrawdown,
		"win_rate":              r.WinRate,
		"total_trades":          r.TotalTrades,
		"total_positions":       r.TotalPositions,
		"avg_profit":            r.AvgProfit,
		"avg_profit_percentage": r.AvgProfitPercentage,
		"max_profit":            r.MaxProfit,
		"max_loss":              r.MaxLoss,
		"final_capital":         r.FinalCapital,
		"initial_capital":       r.InitialCapital,
		"time_span_days":        r.TimeSpanDays,
		"annual_multiplier":     r.AnnualMultiplier,
		"dead_time":             r.DeadTime,
		"dead_time_minutes":     r.DeadTimeMinutes,
	}
}
