package run

import (
	"fmt"
	"io"

	"github.com/rustyeddy/backtester/performance"
)

// PrintReport renders a performance report as a fixed-width summary.
func PrintReport(w io.Writer, symbol, strategy string, r *performance.Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s Backtest Summary\n", symbol)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:       %s\n", strategy)

	if r == nil {
		fmt.Fprintln(w, "No equity curve; nothing to report.")
		return
	}

	fmt.Fprintf(w, "Initial:        $%.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final:          $%.2f\n", r.FinalCapital)
	fmt.Fprintf(w, "Total Return:   %.2f%%\n", r.TotalReturn*100)
	fmt.Fprintf(w, "Annual Return:  %.2f%%\n", r.AnnualReturn*100)
	fmt.Fprintf(w, "Annual Vol:     %.2f%%\n", r.AnnualVolatility*100)
	fmt.Fprintf(w, "Sharpe:         %.3f\n", r.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown:   %.2f%%\n", r.MaxDrawdown*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:         %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Closed Lots:    %d\n", r.TotalPositions)
	fmt.Fprintf(w, "Win Rate:       %.2f%% (P&L-weighted)\n", r.WinRate*100)
	fmt.Fprintf(w, "Avg P&L:        $%.2f\n", r.AvgProfit)
	fmt.Fprintf(w, "Avg P&L %%:      %.2f%%\n", r.AvgProfitPercentage*100)

	if r.MaxProfit > 0 {
		fmt.Fprintf(w, "Best Lot:       $%.2f\n", r.MaxProfit)
	}
	if r.MaxLoss < 0 {
		fmt.Fprintf(w, "Worst Lot:      $%.2f\n", r.MaxLoss)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Time Span:      %.1f days\n", r.TimeSpanDays)
	fmt.Fprintf(w, "Dead Time:      %.1f minutes\n", r.DeadTimeMinutes)
	fmt.Fprintln(w, "==================================================")
}
