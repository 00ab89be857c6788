// Package strategies implements signal generators: pure functions from
// a bar series to one fractional target-ratio signal per bar. The
// execution engine consumes signals and knows nothing about how they
// were produced.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Strategy produces one signal per bar. Positive values raise the
// target position ratio by that fraction, negative values lower it,
// zero means hold. Implementations must return exactly series.Len()
// signals and must not retain or mutate the series.
type Strategy interface {
	Name() string
	Signals(series *market.BarSeries) []float64
}

// Params carries strategy parameters by name, the form used by the
// CLI and the parameter search drivers. Missing keys fall back to the
// strategy's defaults.
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) getInt(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v + 0.5)
	}
	return def
}

// ByName constructs a registered strategy from its name and params.
func ByName(name string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "buy-and-hold", "buyhold":
		return BuyAndHold{}, nil

	case "sma-cross", "sma":
		return &SMACross{
			Short: params.getInt("short_window", 10),
			Long:  params.getInt("long_window", 30),
			Scale: params.get("k", 1),
		}, nil

	case "ema-cross", "ema":
		return &EMACross{
			Short: params.getInt("short_window", 20),
			Long:  params.getInt("long_window", 50),
			Scale: params.get("k", 1),
		}, nil

	case "rsi":
		return &RSIReversal{
			Period:     params.getInt("rsi_period", 14),
			Oversold:   params.get("oversold", 30),
			Overbought: params.get("overbought", 70),
			Scale:      params.get("k", 1),
		}, nil

	case "bollinger", "bb":
		return &BollingerBounce{
			Window: params.getInt("window", 20),
			NumStd: params.get("num_std", 2),
			Scale:  params.get("k", 1),
		}, nil

	case "grid":
		return &Grid{
			BuyThreshold:  params.get("x", 0.005),
			SellThreshold: params.get("y", 0.005),
		}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the supported strategy names.
func Names() []string {
	names := []string{"noop", "buy-and-hold", "sma-cross", "ema-cross", "rsi", "bollinger", "grid"}
	sort.Strings(names)
	return names
}
