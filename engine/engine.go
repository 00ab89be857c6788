// Package engine implements the partial-position execution and
// accounting core: it replays target-ratio signals against a bar
// series, tracking cash, inventory, and FIFO-matched realized P&L.
package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// ErrNoData is returned when a run is started before any market data
// has been supplied.
var ErrNoData = errors.New("engine: no market data loaded")

// LengthMismatchError reports a signal sequence that does not line up
// one-to-one with the bar series. The run aborts before any state
// mutation.
type LengthMismatchError struct {
	Signals int
	Bars    int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("engine: %d signals for %d bars", e.Signals, e.Bars)
}

type Config struct {
	InitialCapital float64
	CommissionRate float64 // fraction of notional per trade, e.g. 0.001
	Symbol         string  // reporting label only
}

func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("engine: initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("engine: commission rate must be in [0,1), got %v", c.CommissionRate)
	}
	return nil
}

// Engine owns the portfolio state for one simulation run. Each engine
// instance is independent: no globals, no sharing, so external search
// drivers may construct and run many engines concurrently.
//
// Signals move a *tracked* target ratio in [0,1]: +0.1 raises it by
// ten points, -0.1 lowers it. The tracked ratio drifts from the
// mark-to-market ratio as prices move; sizing uses the tracked ratio
// on buys and the mark-to-market ratio as the gate on sells, matching
// the accounting model this engine reproduces.
type Engine struct {
	cfg    Config
	series *market.BarSeries

	cash         float64
	position     float64 // asset quantity held
	trackedRatio float64

	ledger *LotLedger
	trades []Trade
	curve  EquityCurve
}

// New builds an engine over the given bar series. It is a pure
// factory: the series is read-only and all mutable state is owned by
// the returned engine.
func New(cfg Config, series *market.BarSeries) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		series: series,
		cash:   cfg.InitialCapital,
		ledger: NewLotLedger(),
	}, nil
}

// Run replays one signal per bar over the whole series.
func (e *Engine) Run(signals []float64) error {
	return e.RunPartial(signals, 100)
}

// RunPartial replays signals over the first percentage% of the series.
// The resource knob exists for multi-round parameter search, which
// scores candidates on a data prefix before spending the full series.
// Previous run state is discarded.
func (e *Engine) RunPartial(signals []float64, percentage float64) error {
	if e.series == nil || e.series.Len() == 0 {
		return ErrNoData
	}
	if len(signals) != e.series.Len() {
		return &LengthMismatchError{Signals: len(signals), Bars: e.series.Len()}
	}
	if percentage <= 0 || percentage > 100 {
		return fmt.Errorf("engine: percentage must be in (0,100], got %v", percentage)
	}

	bars := e.series.Bars
	n := int(float64(len(bars)) * percentage / 100.0)
	if n > len(bars) {
		n = len(bars)
	}

	e.reset()

	interval := e.series.Interval()
	if interval <= 0 {
		interval = time.Minute
	}
	e.curve.append(bars[0].Time.Add(-interval), e.cash)

	for i := 0; i < n; i++ {
		bar := bars[i]
		price := bar.Close

		var err error
		switch signal := signals[i]; {
		case signal > 0:
			e.buy(signal, price, bar.Time)
		case signal < 0:
			err = e.sell(signal, price, bar.Time)
		}
		if err != nil {
			return err
		}

		value := e.cash
		if e.position > 0 {
			value = e.cash + e.position*price
		}
		e.curve.append(bar.Time, value)
	}

	return nil
}

func (e *Engine) reset() {
	e.cash = e.cfg.InitialCapital
	e.position = 0
	e.trackedRatio = 0
	e.ledger = NewLotLedger()
	e.trades = nil
	e.curve.reset()
}

// buy raises the tracked ratio toward min(1, tracked+signal). The cash
// outlay is sized from current cash and the tracked ratio:
//
//	required = delta * cash / (1 - tracked)
//
// not from total mark-to-market assets. That approximation is part of
// the accounting model being reproduced; see the dual-ratio note on
// Engine. A buy that needs more cash than is available is skipped
// whole, never partially filled.
func (e *Engine) buy(signal, price float64, ts time.Time) {
	target := math.Min(1, e.trackedRatio+signal)
	delta := target - e.trackedRatio
	if delta <= 0 {
		return
	}

	required := delta * e.cash / (1 - e.trackedRatio)
	if required > e.cash {
		return
	}

	commission := required * e.cfg.CommissionRate
	quantity := (required - commission) / price

	before := e.cash
	e.cash -= required
	e.position += quantity
	e.trackedRatio = target

	e.ledger.Open(quantity, price, ts, commission)
	e.trades = append(e.trades, Trade{
		Time:          ts,
		Action:        Buy,
		Price:         price,
		RatioDelta:    delta,
		Quantity:      quantity,
		Notional:      required,
		Commission:    commission,
		CapitalBefore: before,
		CapitalAfter:  e.cash,
	})
}

// sell lowers the tracked ratio toward max(0, tracked-|signal|), but
// only executes when the target sits strictly below the mark-to-market
// ratio; otherwise the signal is a no-op. Sold quantity is whatever
// brings the market-value ratio down to the target.
func (e *Engine) sell(signal, price float64, ts time.Time) error {
	target := math.Max(0, e.trackedRatio-math.Abs(signal))

	assets := e.cash + e.position*price
	if assets <= 0 {
		return nil
	}
	realRatio := e.position * price / assets
	if target >= realRatio {
		return nil
	}

	sellQty := e.position - target*assets/price
	sellValue := sellQty * price
	commission := sellValue * e.cfg.CommissionRate
	delta := e.trackedRatio - target

	before := e.cash
	e.cash += sellValue - commission
	e.position -= sellQty
	e.trackedRatio = target

	if _, err := e.ledger.Close(sellQty, price, ts, commission); err != nil {
		return err
	}
	e.trades = append(e.trades, Trade{
		Time:          ts,
		Action:        Sell,
		Price:         price,
		RatioDelta:    delta,
		Quantity:      sellQty,
		Notional:      sellValue,
		Commission:    commission,
		CapitalBefore: before,
		CapitalAfter:  e.cash,
	})
	return nil
}

// Cash is the uninvested capital after the last processed bar.
func (e *Engine) Cash() float64 { return e.cash }

// Position is the asset quantity currently held.
func (e *Engine) Position() float64 { return e.position }

// TrackedRatio is the engine's incremental bookkeeping estimate of the
// position ratio.
func (e *Engine) TrackedRatio() float64 { return e.trackedRatio }

// MarkToMarketRatio recomputes the position ratio fresh from the given
// price: position value over total assets.
func (e *Engine) MarkToMarketRatio(price float64) float64 {
	assets := e.cash + e.position*price
	if assets <= 0 {
		return 0
	}
	return e.position * price / assets
}

// Trades returns the append-only trade log. Read-only.
func (e *Engine) Trades() []Trade { return e.trades }

// ClosedPositions returns the realized-P&L ledger in match order.
// Read-only.
func (e *Engine) ClosedPositions() []ClosedPosition { return e.ledger.Closed() }

// OpenLots returns the unmatched buy lots in FIFO order. Read-only.
func (e *Engine) OpenLots() []Lot { return e.ledger.OpenLots() }

// EquityCurve returns the per-bar portfolio value series of the last
// run.
func (e *Engine) EquityCurve() *EquityCurve { return &e.curve }

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Series returns the bar series the engine replays.
func (e *Engine) Series() *market.BarSeries { return e.series }
