// Package config loads backtest configuration from YAML or JSON
// files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/engine"
)

// BacktestConfig is the file-level simulation configuration.
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	Symbol         string  `json:"symbol" yaml:"symbol"`
	DataFile       string  `json:"data_file,omitempty" yaml:"data_file,omitempty"`

	// DataPercentage limits a run to the first N% of the dataset.
	DataPercentage float64 `json:"data_percentage,omitempty" yaml:"data_percentage,omitempty"`
}

// Default returns the stock configuration.
func Default() BacktestConfig {
	return BacktestConfig{
		InitialCapital: 10000,
		CommissionRate: 0.001,
		Symbol:         "BTCUSDT",
		DataPercentage: 100,
	}
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON. Unset fields keep their defaults.
func LoadFromFile(path string) (*BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if jerr := json.Unmarshal(data, &cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// SaveToFile writes the configuration, choosing the format by file
// extension (.yaml/.yml for YAML, anything else JSON).
func (c *BacktestConfig) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *BacktestConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %v", c.InitialCapital)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("commission_rate must be in [0,1), got %v", c.CommissionRate)
	}
	if c.DataPercentage <= 0 || c.DataPercentage > 100 {
		return fmt.Errorf("data_percentage must be in (0,100], got %v", c.DataPercentage)
	}
	return nil
}

// EngineConfig converts to the engine's configuration type.
func (c *BacktestConfig) EngineConfig() engine.Config {
	return engine.Config{
		InitialCapital: c.InitialCapital,
		CommissionRate: c.CommissionRate,
		Symbol:         c.Symbol,
	}
}
