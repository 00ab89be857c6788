// Package indicators provides streaming technical indicators over
// bars. Indicators are deterministic and hold only their own state, so
// the same instance behaves identically across replays.
package indicators

import "github.com/rustyeddy/backtester/market"

// Indicator computes a single streaming value from bars.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be
	// true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current indicator value. Callers should always
	// check Ready() first; before warmup the value is 0.
	Value() float64
}
