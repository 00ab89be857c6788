package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/engine"
	"github.com/rustyeddy/backtester/internal/cli/config"
	runcmd "github.com/rustyeddy/backtester/internal/cli/run"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/performance"
	"github.com/rustyeddy/backtester/search"
	"github.com/rustyeddy/backtester/strategies"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		dataPath   string
		stratName  string
		driver     string
		metric     string
		symbol     string
		capital    float64
		commission float64

		iters    int
		seed     int64
		patience int
		workers  int
		eta      int

		startArgs []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a strategy's parameter space for the best backtest score",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataPath == "" {
				return fmt.Errorf("--data is required")
			}

			series, err := market.LoadCSV(dataPath, symbol)
			if err != nil {
				return err
			}
			log.Info().Int("bars", series.Len()).Str("strategy", stratName).
				Str("driver", driver).Str("metric", metric).Msg("search starting")

			engCfg := engine.Config{
				InitialCapital: capital,
				CommissionRate: commission,
				Symbol:         symbol,
			}
			if err := engCfg.Validate(); err != nil {
				return err
			}

			score := func(params search.Params, percentage float64) (float64, error) {
				strat, err := strategies.ByName(stratName, strategies.Params(params))
				if err != nil {
					return 0, err
				}
				eng, err := engine.New(engCfg, series)
				if err != nil {
					return 0, err
				}
				if err := eng.RunPartial(strat.Signals(series), percentage); err != nil {
					return 0, err
				}
				report := performance.Analyze(eng.EquityCurve(), eng.ClosedPositions(), eng.Trades(), engCfg.InitialCapital)
				return metricOf(report, metric)
			}
			objective := func(params search.Params) (float64, error) {
				return score(params, 100)
			}

			space, err := defaultSpace(stratName)
			if err != nil {
				return err
			}

			var best search.Params
			var bestScore float64

			switch strings.ToLower(driver) {
			case "brutal", "random":
				res, err := search.Brutal(objective, space, search.BrutalOptions{
					MaxIter:  iters,
					Patience: patience,
					Seed:     seed,
					Workers:  workers,
					Callback: progress(iters),
				})
				if err != nil {
					return err
				}
				best, bestScore = res.BestParams, res.BestScore

			case "coordinate":
				start := defaultStart(space)
				for _, arg := range startArgs {
					params, err := runcmd.ParseParams([]string{arg})
					if err != nil {
						return err
					}
					for k, v := range params {
						start[k] = v
					}
				}
				best, bestScore, err = search.Coordinate(objective, start, search.CoordinateOptions{
					MaxIter:   iters,
					Seed:      seed,
					IntParams: intParams(space),
				})
				if err != nil {
					return err
				}

			case "hyperband":
				res, err := search.Hyperband(score, space, search.HyperbandOptions{
					MaxIter: iters,
					Eta:     eta,
					Seed:    seed,
				})
				if err != nil {
					return err
				}
				best, bestScore = res.BestParams, res.BestScore

			default:
				return fmt.Errorf("unknown driver %q (supported: brutal, coordinate, hyperband)", driver)
			}

			fmt.Printf("best %s: %.6f\n", metric, bestScore)
			printParams(best)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Kline CSV file")
	cmd.Flags().StringVar(&stratName, "strategy", "sma-cross", "Strategy to tune")
	cmd.Flags().StringVar(&driver, "driver", "brutal", "Search driver: brutal|coordinate|hyperband")
	cmd.Flags().StringVar(&metric, "metric", "sharpe_ratio", "Metric to maximize: total_return|annual_return|sharpe_ratio")
	cmd.Flags().StringVar(&symbol, "symbol", "BTCUSDT", "Symbol label")
	cmd.Flags().Float64Var(&capital, "capital", 10000, "Initial capital")
	cmd.Flags().Float64Var(&commission, "commission", 0.001, "Commission rate")
	cmd.Flags().IntVar(&iters, "iters", 100, "Iteration budget")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().IntVar(&patience, "patience", 0, "Stop after N iterations without improvement (brutal)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Parallel evaluations (brutal)")
	cmd.Flags().IntVar(&eta, "eta", 3, "Halving rate (hyperband)")
	cmd.Flags().StringArrayVar(&startArgs, "start", nil, "Starting point as name=value (coordinate, repeatable)")

	return cmd
}

func metricOf(r *performance.Report, metric string) (float64, error) {
	if r == nil {
		return 0, nil
	}
	switch metric {
	case "total_return":
		return r.TotalReturn, nil
	case "annual_return":
		return r.AnnualReturn, nil
	case "sharpe_ratio", "sharpe":
		return r.SharpeRatio, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
}

// defaultSpace is the stock search space per strategy; --param style
// overrides are not needed here because the driver owns the sampling.
func defaultSpace(strategy string) (search.Space, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "sma-cross", "sma", "ema-cross", "ema":
		return search.Space{
			"short_window": search.IntRange(5, 50),
			"long_window":  search.IntRange(20, 200),
			"k":            search.Range(0.1, 1),
		}, nil
	case "rsi":
		return search.Space{
			"rsi_period": search.IntRange(5, 30),
			"oversold":   search.Range(10, 40),
			"overbought": search.Range(60, 90),
			"k":          search.Range(0.1, 1),
		}, nil
	case "bollinger", "bb":
		return search.Space{
			"window":  search.IntRange(10, 60),
			"num_std": search.Range(1, 3),
			"k":       search.Range(0.1, 1),
		}, nil
	case "grid":
		return search.Space{
			"x": search.Range(0.001, 0.1),
			"y": search.Range(0.001, 0.1),
		}, nil
	default:
		return nil, fmt.Errorf("no search space for strategy %q", strategy)
	}
}

// defaultStart seeds coordinate descent at each dimension's midpoint.
func defaultStart(space search.Space) search.Params {
	start := make(search.Params, len(space))
	for name, dim := range space {
		if len(dim.Choices) > 0 {
			start[name] = dim.Choices[0]
			continue
		}
		start[name] = (dim.Low + dim.High) / 2
	}
	return start
}

func intParams(space search.Space) []string {
	var names []string
	for name, dim := range space {
		if dim.Integer {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func progress(total int) func(int, search.Trial, float64, search.Params) {
	return func(iter int, t search.Trial, bestScore float64, _ search.Params) {
		if iter%10 == 0 || t.Score == bestScore {
			log.Debug().Int("iter", iter).Int("total", total).
				Float64("score", t.Score).Float64("best", bestScore).Msg("search progress")
		}
	}
}

func printParams(p search.Params) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, p[k])
	}
}
