package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backtester/engine"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, symbol, strategy, initial_capital, commission_rate, start, end, bars)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.Format(time.RFC3339), r.Symbol, r.Strategy,
		r.InitialCapital, r.CommissionRate,
		r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339), r.Bars,
	)
	return err
}

func (j *SQLiteJournal) RecordTrade(runID string, t engine.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, time, action, price, ratio_delta, quantity, notional, commission, capital_before, capital_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Time.Format(time.RFC3339), string(t.Action), t.Price,
		t.RatioDelta, t.Quantity, t.Notional, t.Commission,
		t.CapitalBefore, t.CapitalAfter,
	)
	return err
}

func (j *SQLiteJournal) RecordClosedPosition(runID string, cp engine.ClosedPosition) error {
	_, err := j.db.Exec(`
		INSERT INTO closed_positions
		(run_id, buy_time, sell_time, buy_price, sell_price, quantity,
		 buy_commission, sell_commission, gross_profit, net_profit, profitable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, cp.BuyTime.Format(time.RFC3339), cp.SellTime.Format(time.RFC3339),
		cp.BuyPrice, cp.SellPrice, cp.Quantity,
		cp.BuyCommission, cp.SellCommission,
		cp.GrossProfit, cp.NetProfit, cp.Profitable,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(runID string, p engine.EquityPoint) error {
	_, err := j.db.Exec(
		`INSERT INTO equity (run_id, time, value) VALUES (?, ?, ?)`,
		runID, p.Time.Format(time.RFC3339), p.Value,
	)
	return err
}

// ListRuns returns run headers, newest first.
func (j *SQLiteJournal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, created, symbol, strategy, initial_capital, commission_rate, start, end, bars
		FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created, start, end string
		if err := rows.Scan(&r.RunID, &created, &r.Symbol, &r.Strategy,
			&r.InitialCapital, &r.CommissionRate, &start, &end, &r.Bars); err != nil {
			return nil, err
		}
		r.Created, _ = time.Parse(time.RFC3339, created)
		r.Start, _ = time.Parse(time.RFC3339, start)
		r.End, _ = time.Parse(time.RFC3339, end)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TradesByRun returns a run's trade log in insertion order.
func (j *SQLiteJournal) TradesByRun(ctx context.Context, runID string) ([]engine.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, action, price, ratio_delta, quantity, notional, commission, capital_before, capital_after
		FROM trades WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []engine.Trade
	for rows.Next() {
		var t engine.Trade
		var ts, action string
		if err := rows.Scan(&ts, &action, &t.Price, &t.RatioDelta, &t.Quantity,
			&t.Notional, &t.Commission, &t.CapitalBefore, &t.CapitalAfter); err != nil {
			return nil, err
		}
		t.Time, _ = time.Parse(time.RFC3339, ts)
		t.Action = engine.Action(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ClosedPositionsByRun returns a run's realized-P&L ledger in match
// order.
func (j *SQLiteJournal) ClosedPositionsByRun(ctx context.Context, runID string) ([]engine.ClosedPosition, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT buy_time, sell_time, buy_price, sell_price, quantity,
		       buy_commission, sell_commission, gross_profit, net_profit, profitable
		FROM closed_positions WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []engine.ClosedPosition
	for rows.Next() {
		var cp engine.ClosedPosition
		var buyTime, sellTime string
		if err := rows.Scan(&buyTime, &sellTime, &cp.BuyPrice, &cp.SellPrice, &cp.Quantity,
			&cp.BuyCommission, &cp.SellCommission, &cp.GrossProfit, &cp.NetProfit, &cp.Profitable); err != nil {
			return nil, err
		}
		cp.BuyTime, _ = time.Parse(time.RFC3339, buyTime)
		cp.SellTime, _ = time.Parse(time.RFC3339, sellTime)
		positions = append(positions, cp)
	}
	return positions, rows.Err()
}

// EquityByRun returns a run's equity curve samples in order.
func (j *SQLiteJournal) EquityByRun(ctx context.Context, runID string) ([]engine.EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT time, value FROM equity WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []engine.EquityPoint
	for rows.Next() {
		var ts string
		var p engine.EquityPoint
		if err := rows.Scan(&ts, &p.Value); err != nil {
			return nil, err
		}
		p.Time, _ = time.Parse(time.RFC3339, ts)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
