package journal

// Schema creates the journal tables. Times are stored as RFC3339 text,
// which SQLite compares correctly and keeps readable.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	created         TEXT NOT NULL,
	symbol          TEXT,
	strategy        TEXT,
	initial_capital REAL,
	commission_rate REAL,
	start           TEXT,
	end             TEXT,
	bars            INTEGER
);

CREATE TABLE IF NOT EXISTS trades (
	run_id         TEXT NOT NULL,
	time           TEXT NOT NULL,
	action         TEXT NOT NULL,
	price          REAL,
	ratio_delta    REAL,
	quantity       REAL,
	notional       REAL,
	commission     REAL,
	capital_before REAL,
	capital_after  REAL
);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);

CREATE TABLE IF NOT EXISTS closed_positions (
	run_id          TEXT NOT NULL,
	buy_time        TEXT NOT NULL,
	sell_time       TEXT NOT NULL,
	buy_price       REAL,
	sell_price      REAL,
	quantity        REAL,
	buy_commission  REAL,
	sell_commission REAL,
	gross_profit    REAL,
	net_profit      REAL,
	profitable      INTEGER
);
CREATE INDEX IF NOT EXISTS idx_positions_run ON closed_positions(run_id);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time   TEXT NOT NULL,
	value  REAL
);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id);
`
