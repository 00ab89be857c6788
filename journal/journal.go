// Package journal persists finished backtest runs: the trade log,
// realized-position ledger, and equity curve, keyed by a time-sortable
// run ID. Runs are written once after completion and never mutated.
package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/engine"
	"github.com/rustyeddy/backtester/internal/id"
)

// Run identifies one backtest run and its configuration.
type Run struct {
	RunID          string
	Created        time.Time
	Symbol         string
	Strategy       string
	InitialCapital float64
	CommissionRate float64
	Start          time.Time
	End            time.Time
	Bars           int
}

// NewRun builds a Run header for a completed engine, minting a fresh
// run ID.
func NewRun(strategy string, eng *engine.Engine) Run {
	run := Run{
		RunID:          id.New(),
		Created:        time.Now().UTC(),
		Symbol:         eng.Config().Symbol,
		Strategy:       strategy,
		InitialCapital: eng.Config().InitialCapital,
		CommissionRate: eng.Config().CommissionRate,
		Bars:           eng.Series().Len(),
	}
	if first, ok := eng.EquityCurve().First(); ok {
		run.Start = first.Time
	}
	if last, ok := eng.EquityCurve().Last(); ok {
		run.End = last.Time
	}
	return run
}

type Journal interface {
	RecordRun(Run) error
	RecordTrade(runID string, t engine.Trade) error
	RecordClosedPosition(runID string, cp engine.ClosedPosition) error
	RecordEquity(runID string, p engine.EquityPoint) error
	Close() error
}

// Record writes a completed run's full output through j.
func Record(j Journal, run Run, eng *engine.Engine) error {
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("journal: record run: %w", err)
	}
	for _, t := range eng.Trades() {
		if err := j.RecordTrade(run.RunID, t); err != nil {
			return fmt.Errorf("journal: record trade: %w", err)
		}
	}
	for _, cp := range eng.ClosedPositions() {
		if err := j.RecordClosedPosition(run.RunID, cp); err != nil {
			return fmt.Errorf("journal: record closed position: %w", err)
		}
	}
	for _, p := range eng.EquityCurve().Points() {
		if err := j.RecordEquity(run.RunID, p); err != nil {
			return fmt.Errorf("journal: record equity: %w", err)
		}
	}
	return nil
}
