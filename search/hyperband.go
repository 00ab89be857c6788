package search

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// HyperbandOptions controls successive-halving search.
type HyperbandOptions struct {
	// MaxIter scales the total candidate budget. Defaults to 1000.
	MaxIter int

	// MaxResource is the full resource budget, expressed as the data
	// percentage handed to the objective. Defaults to 100.
	MaxResource float64

	// Eta is the halving rate: each round keeps the top 1/Eta of the
	// surviving candidates and multiplies their resource by Eta.
	// Defaults to 3.
	Eta int

	// Seed makes candidate sampling reproducible.
	Seed int64
}

// Hyperband allocates cheap partial-data evaluations to many random
// candidates and progressively concentrates the data budget on the
// survivors. Scores across rounds are comparable only loosely (they
// come from different data prefixes), which is the usual
// successive-halving tradeoff: breadth early, fidelity late.
func Hyperband(obj ResourceObjective, space Space, opts HyperbandOptions) (Result, error) {
	if len(space) == 0 {
		return Result{}, fmt.Errorf("search: empty parameter space")
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 1000
	}
	if opts.MaxResource <= 0 {
		opts.MaxResource = 100
	}
	if opts.Eta < 2 {
		opts.Eta = 3
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	eta := float64(opts.Eta)

	sMax := int(math.Log(opts.MaxResource) / math.Log(eta))
	budget := float64(sMax+1) * float64(opts.MaxIter)

	res := Result{BestScore: math.Inf(-1)}

	for s := sMax; s >= 0; s-- {
		n := int(math.Ceil(budget/opts.MaxResource/float64(s+1)) * math.Pow(eta, float64(s)))
		resource := opts.MaxResource * math.Pow(eta, -float64(s))

		candidates := make([]Params, n)
		for i := range candidates {
			candidates[i] = space.Sample(rng)
		}

		for len(candidates) > 0 {
			trials := make([]Trial, 0, len(candidates))
			for _, params := range candidates {
				score, err := obj(params, resource)
				if err != nil {
					return res, fmt.Errorf("search: objective failed at resource %.2f%%: %w", resource, err)
				}
				t := Trial{Params: params, Score: score}
				trials = append(trials, t)
				res.History = append(res.History, t)
				if score > res.BestScore {
					res.BestScore = score
					res.BestParams = params
				}
			}

			sort.SliceStable(trials, func(i, j int) bool { return trials[i].Score > trials[j].Score })
			keep := len(trials) / opts.Eta
			if keep < 1 {
				keep = 1
			}
			candidates = candidates[:0]
			for _, t := range trials[:keep] {
				candidates = append(candidates, t.Params)
			}

			resource *= eta
			if resource > opts.MaxResource {
				break
			}
		}
	}

	return res, nil
}
