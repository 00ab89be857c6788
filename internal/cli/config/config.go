package config

import (
	"github.com/rustyeddy/backtester/config"
)

// RootConfig carries the persistent flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

// Load resolves the file-level backtest configuration: the file named
// by --config when set, defaults otherwise.
func (rc *RootConfig) Load() (*config.BacktestConfig, error) {
	if rc.ConfigPath == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.LoadFromFile(rc.ConfigPath)
}
