package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rustyeddy/backtester/engine"
)

// CSVJournal writes runs.csv, trades.csv, positions.csv, and
// equity.csv under one directory.
type CSVJournal struct {
	runs      *csv.Writer
	trades    *csv.Writer
	positions *csv.Writer
	equity    *csv.Writer
	files     []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSVJournal{}
	open := func(name string, header []string) (*csv.Writer, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.runs, err = open("runs.csv", []string{
		"run_id", "created", "symbol", "strategy", "initial_capital", "commission_rate", "start", "end", "bars",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if j.trades, err = open("trades.csv", []string{
		"run_id", "time", "action", "price", "ratio_delta", "quantity", "notional", "commission", "capital_before", "capital_after",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if j.positions, err = open("positions.csv", []string{
		"run_id", "buy_time", "sell_time", "buy_price", "sell_price", "quantity",
		"buy_commission", "sell_commission", "gross_profit", "net_profit", "profitable",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if j.equity, err = open("equity.csv", []string{"run_id", "time", "value"}); err != nil {
		j.Close()
		return nil, err
	}

	return j, nil
}

func (j *CSVJournal) RecordRun(r Run) error {
	j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Symbol,
		r.Strategy,
		f(r.InitialCapital),
		f(r.CommissionRate),
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		strconv.Itoa(r.Bars),
	})
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordTrade(runID string, t engine.Trade) error {
	j.trades.Write([]string{
		runID,
		t.Time.Format(time.RFC3339),
		string(t.Action),
		f(t.Price),
		f(t.RatioDelta),
		f(t.Quantity),
		f(t.Notional),
		f(t.Commission),
		f(t.CapitalBefore),
		f(t.CapitalAfter),
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordClosedPosition(runID string, cp engine.ClosedPosition) error {
	j.positions.Write([]string{
		runID,
		cp.BuyTime.Format(time.RFC3339),
		cp.SellTime.Format(time.RFC3339),
		f(cp.BuyPrice),
		f(cp.SellPrice),
		f(cp.Quantity),
		f(cp.BuyCommission),
		f(cp.SellCommission),
		f(cp.GrossProfit),
		f(cp.NetProfit),
		strconv.FormatBool(cp.Profitable),
	})
	j.positions.Flush()
	return j.positions.Error()
}

func (j *CSVJournal) RecordEquity(runID string, p engine.EquityPoint) error {
	j.equity.Write([]string{runID, p.Time.Format(time.RFC3339), f(p.Value)})
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	var firstErr error
	for _, f := range j.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
