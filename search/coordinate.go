package search

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// CoordinateOptions controls coordinate descent.
type CoordinateOptions struct {
	// Tol is the convergence threshold on the euclidean norm of one
	// full sweep's parameter delta. Defaults to 1e-6.
	Tol float64

	// MaxIter is the maximum number of sweeps. Defaults to 100.
	MaxIter int

	// IntParams names parameters rounded to integers (floored at 1).
	IntParams []string

	// PositiveParams names parameters clamped at zero.
	PositiveParams []string

	// Seed drives the per-sweep jitter applied to continuous
	// parameters before each line search.
	Seed int64
}

// Coordinate maximizes the objective by cycling through the parameters
// and line-searching each one over a bounded positive step, holding
// the rest fixed. It ascends from the given starting point, so it is a
// local refiner: pair it with Brutal to pick the start.
func Coordinate(obj Objective, start Params, opts CoordinateOptions) (Params, float64, error) {
	if len(start) == 0 {
		return nil, 0, fmt.Errorf("search: empty starting point")
	}
	if opts.Tol <= 0 {
		opts.Tol = 1e-6
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 100
	}

	isInt := toSet(opts.IntParams)
	isPositive := toSet(opts.PositiveParams)
	rng := rand.New(rand.NewSource(opts.Seed))

	x := start.Clone()
	keys := sortedKeys(x)

	var evalErr error
	for sweep := 0; sweep < opts.MaxIter; sweep++ {
		old := x.Clone()

		for _, k := range keys {
			if !isInt[k] {
				// Small multiplicative jitter keeps the sweep from
				// stalling on a coordinate whose best step is exactly
				// zero.
				x[k] *= 0.99 + 0.02*rng.Float64()
			}

			line := func(alpha float64) float64 {
				trial := x.Clone()
				val := x[k] + alpha
				if isInt[k] {
					val = math.Round(val)
				}
				if isPositive[k] && val < 0 {
					val = 0
				}
				trial[k] = val
				score, err := obj(trial)
				if err != nil {
					evalErr = err
					return math.Inf(-1)
				}
				return score
			}

			alpha := goldenMax(line, 0, 1, opts.Tol)
			if evalErr != nil {
				return x, 0, fmt.Errorf("search: objective failed: %w", evalErr)
			}

			val := x[k] + alpha
			if isInt[k] {
				val = math.Round(val)
				if val < 1 {
					val = 1
				}
			}
			if isPositive[k] && val < 0 {
				val = 0
			}
			x[k] = val
		}

		var norm float64
		for _, k := range keys {
			d := x[k] - old[k]
			norm += d * d
		}
		if math.Sqrt(norm) < opts.Tol {
			break
		}
	}

	best, err := obj(x)
	if err != nil {
		return x, 0, fmt.Errorf("search: objective failed: %w", err)
	}
	return x, best, nil
}

// goldenMax locates the maximizer of f on [lo, hi] by golden-section
// search.
func goldenMax(f func(float64) float64, lo, hi, tol float64) float64 {
	const invPhi = 0.6180339887498949

	a, b := lo, hi
	c := b - (b-a)*invPhi
	d := a + (b-a)*invPhi
	fc, fd := f(c), f(d)

	for b-a > tol {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - (b-a)*invPhi
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + (b-a)*invPhi
			fd = f(d)
		}
	}
	return (a + b) / 2
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	// Deterministic sweep order regardless of map iteration.
	sort.Strings(keys)
	return keys
}
