// Package search provides parameter search drivers that treat a
// backtest run as an opaque objective function. Each evaluation builds
// its own engine, so drivers are free to score candidates from
// multiple goroutines.
package search

import "math/rand"

// Params is one candidate parameter assignment.
type Params map[string]float64

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Dimension describes one axis of the search space: a continuous
// range, an integer range, or a discrete choice list.
type Dimension struct {
	Low, High float64
	Integer   bool
	Choices   []float64
}

// Range is a continuous interval [low, high).
func Range(low, high float64) Dimension {
	return Dimension{Low: low, High: high}
}

// IntRange is an integer interval [low, high], inclusive of both ends.
func IntRange(low, high int) Dimension {
	return Dimension{Low: float64(low), High: float64(high), Integer: true}
}

// Choice samples uniformly from an explicit value list.
func Choice(values ...float64) Dimension {
	return Dimension{Choices: values}
}

func (d Dimension) sample(rng *rand.Rand) float64 {
	if len(d.Choices) > 0 {
		return d.Choices[rng.Intn(len(d.Choices))]
	}
	if d.Integer {
		lo, hi := int(d.Low), int(d.High)
		return float64(lo + rng.Intn(hi-lo+1))
	}
	return d.Low + rng.Float64()*(d.High-d.Low)
}

// Space maps parameter names to their dimensions.
type Space map[string]Dimension

// Sample draws one candidate from the space.
func (s Space) Sample(rng *rand.Rand) Params {
	p := make(Params, len(s))
	for name, dim := range s {
		p[name] = dim.sample(rng)
	}
	return p
}

// Objective scores one candidate; higher is better unless the driver
// is told otherwise.
type Objective func(params Params) (float64, error)

// ResourceObjective additionally receives a resource budget: the
// percentage of the dataset the evaluation may spend.
type ResourceObjective func(params Params, percentage float64) (float64, error)

// Trial is one scored candidate.
type Trial struct {
	Params Params
	Score  float64
}

// Result summarizes a finished search.
type Result struct {
	BestScore  float64
	BestParams Params
	History    []Trial
}
