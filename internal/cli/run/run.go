package run

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/engine"
	"github.com/rustyeddy/backtester/internal/cli/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/performance"
	"github.com/rustyeddy/backtester/strategies"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		dataPath   string
		stratName  string
		paramArgs  []string
		symbol     string
		capital    float64
		commission float64
		percentage float64

		journalCSV string
		journalDB  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backtest over a kline CSV and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("symbol") {
				cfg.Symbol = symbol
			}
			if cmd.Flags().Changed("capital") {
				cfg.InitialCapital = capital
			}
			if cmd.Flags().Changed("commission") {
				cfg.CommissionRate = commission
			}
			if cmd.Flags().Changed("percentage") {
				cfg.DataPercentage = percentage
			}
			if dataPath == "" {
				dataPath = cfg.DataFile
			}
			if dataPath == "" {
				return fmt.Errorf("--data is required (or data_file in the config file)")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			params, err := ParseParams(paramArgs)
			if err != nil {
				return err
			}
			strat, err := strategies.ByName(stratName, params)
			if err != nil {
				return err
			}

			series, err := market.LoadCSV(dataPath, cfg.Symbol)
			if err != nil {
				return err
			}
			logSeries(series)

			eng, err := engine.New(cfg.EngineConfig(), series)
			if err != nil {
				return err
			}

			signals := strat.Signals(series)
			if err := eng.RunPartial(signals, cfg.DataPercentage); err != nil {
				return err
			}
			log.Info().
				Int("trades", len(eng.Trades())).
				Int("closed_positions", len(eng.ClosedPositions())).
				Msg("backtest complete")

			report := performance.Analyze(eng.EquityCurve(), eng.ClosedPositions(), eng.Trades(), cfg.InitialCapital)
			PrintReport(os.Stdout, cfg.Symbol, strat.Name(), report)

			return record(eng, strat.Name(), journalCSV, journalDB)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Kline CSV file")
	cmd.Flags().StringVar(&stratName, "strategy", "buy-and-hold", "Strategy name (see strategies)")
	cmd.Flags().StringArrayVar(&paramArgs, "param", nil, "Strategy parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&symbol, "symbol", "BTCUSDT", "Symbol label for reports")
	cmd.Flags().Float64Var(&capital, "capital", 10000, "Initial capital")
	cmd.Flags().Float64Var(&commission, "commission", 0.001, "Commission rate per trade notional")
	cmd.Flags().Float64Var(&percentage, "percentage", 100, "Use only the first N% of the data")
	cmd.Flags().StringVar(&journalCSV, "journal-csv", "", "Directory for CSV journal output")
	cmd.Flags().StringVar(&journalDB, "journal-db", "", "SQLite journal database path")

	return cmd
}

// ParseParams turns repeated name=value flags into strategy params.
func ParseParams(args []string) (strategies.Params, error) {
	params := strategies.Params{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("bad --param %q, want name=value", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("bad --param %q: %w", arg, err)
		}
		params[strings.TrimSpace(name)] = v
	}
	return params, nil
}

func logSeries(series *market.BarSeries) {
	ev := log.Info().Int("bars", series.Len())
	if series.Len() > 0 {
		ev = ev.
			Time("from", series.Bars[0].Time).
			Time("to", series.Bars[series.Len()-1].Time).
			Dur("interval", series.Interval())
	}
	ev.Msg("data loaded")
	if series.BadRows > 0 {
		log.Warn().Int("rows", series.BadRows).Msg("skipped unparseable rows")
	}
}

func record(eng *engine.Engine, strategy, csvDir, dbPath string) error {
	write := func(j journal.Journal) error {
		defer j.Close()
		return journal.Record(j, journal.NewRun(strategy, eng), eng)
	}

	if csvDir != "" {
		j, err := journal.NewCSV(csvDir)
		if err != nil {
			return err
		}
		if err := write(j); err != nil {
			return err
		}
		log.Info().Str("dir", csvDir).Msg("journaled run to CSV")
	}
	if dbPath != "" {
		j, err := journal.NewSQLite(dbPath)
		if err != nil {
			return err
		}
		if err := write(j); err != nil {
			return err
		}
		log.Info().Str("db", dbPath).Msg("journaled run to SQLite")
	}
	return nil
}
