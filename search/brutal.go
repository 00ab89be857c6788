package search

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// BrutalOptions controls random search.
type BrutalOptions struct {
	// MaxIter is the number of candidates to evaluate.
	MaxIter int

	// Patience stops the search after this many consecutive evaluations
	// without improvement. Zero disables early stopping. Ignored when
	// Workers > 1.
	Patience int

	// Minimize flips the comparison; the default is to maximize.
	Minimize bool

	// Seed makes the sampled candidates reproducible.
	Seed int64

	// Workers > 1 evaluates candidates on a goroutine pool. Candidate
	// sampling stays deterministic for a given Seed; only evaluation
	// order varies.
	Workers int

	// Callback, if set, is invoked after every evaluation with the
	// running best. With Workers > 1 it is called from a single
	// goroutine in completion order.
	Callback func(iter int, t Trial, bestScore float64, bestParams Params)
}

// Brutal samples candidates uniformly at random from the space and
// keeps the best. Simple, embarrassingly parallel, and a strong
// baseline for low-dimensional strategy parameter spaces.
func Brutal(obj Objective, space Space, opts BrutalOptions) (Result, error) {
	if opts.MaxIter <= 0 {
		return Result{}, fmt.Errorf("search: MaxIter must be positive, got %d", opts.MaxIter)
	}
	if len(space) == 0 {
		return Result{}, fmt.Errorf("search: empty parameter space")
	}

	if opts.Workers > 1 {
		return brutalParallel(obj, space, opts)
	}
	return brutalSequential(obj, space, opts)
}

func brutalSequential(obj Objective, space Space, opts BrutalOptions) (Result, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	res := Result{BestScore: worstScore(opts.Minimize)}
	noImprove := 0

	for iter := 1; iter <= opts.MaxIter; iter++ {
		params := space.Sample(rng)
		score, err := obj(params)
		if err != nil {
			return res, fmt.Errorf("search: objective failed at iteration %d: %w", iter, err)
		}

		t := Trial{Params: params, Score: score}
		res.History = append(res.History, t)

		if better(score, res.BestScore, opts.Minimize) {
			res.BestScore = score
			res.BestParams = params
			noImprove = 0
		} else {
			noImprove++
		}

		if opts.Callback != nil {
			opts.Callback(iter, t, res.BestScore, res.BestParams)
		}

		if opts.Patience > 0 && noImprove >= opts.Patience {
			break
		}
	}
	return res, nil
}

func brutalParallel(obj Objective, space Space, opts BrutalOptions) (Result, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	// Sample every candidate up front so the set is a pure function of
	// the seed regardless of scheduling.
	candidates := make([]Params, opts.MaxIter)
	for i := range candidates {
		candidates[i] = space.Sample(rng)
	}

	type scored struct {
		idx   int
		trial Trial
		err   error
	}

	jobs := make(chan int)
	results := make(chan scored)

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				score, err := obj(candidates[idx])
				results <- scored{idx: idx, trial: Trial{Params: candidates[idx], Score: score}, err: err}
			}
		}()
	}

	go func() {
		for i := range candidates {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	res := Result{BestScore: worstScore(opts.Minimize)}
	var firstErr error
	iter := 0
	for s := range results {
		if s.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("search: objective failed: %w", s.err)
			}
			continue
		}
		iter++
		res.History = append(res.History, s.trial)
		if better(s.trial.Score, res.BestScore, opts.Minimize) {
			res.BestScore = s.trial.Score
			res.BestParams = s.trial.Params
		}
		if opts.Callback != nil {
			opts.Callback(iter, s.trial, res.BestScore, res.BestParams)
		}
	}
	return res, firstErr
}

func worstScore(minimize bool) float64 {
	if minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func better(score, best float64, minimize bool) bool {
	if minimize {
		return score < best
	}
	return score > best
}
