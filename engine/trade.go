package engine

import "time"

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Trade records one executed buy or sell. Trades are append-only and
// immutable once recorded.
type Trade struct {
	Time       time.Time
	Action     Action
	Price      float64
	RatioDelta float64 // change applied to the tracked position ratio
	Quantity   float64 // asset quantity bought or sold
	Notional   float64 // cash outlay (buy) or gross sale value (sell)
	Commission float64

	CapitalBefore float64
	CapitalAfter  float64
}
