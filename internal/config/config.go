// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Kelly     KellyConfig     `mapstructure:"kelly"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Storage   StorageConfig   `mapstructure:"storage"`
	UI        UIConfig        `mapstructure:"ui"`
}

// BacktestConfig holds replay-session parameters.
type BacktestConfig struct {
	BotID           string  `mapstructure:"bot_id"`
	MarketID        string  `mapstructure:"market_id"`
	InitialBalance  float64 `mapstructure:"initial_balance"`
	MaxPositionPct  float64 `mapstructure:"max_position_pct"`
	StaleOrderHours float64 `mapstructure:"stale_order_hours"`
	Workers         int     `mapstructure:"workers"`
}

// ExecutionConfig holds matching-simulator parameters.
type ExecutionConfig struct {
	SlippageMeanBps      float64 `mapstructure:"slippage_mean_bps"`
	SlippageMaxBps       float64 `mapstructure:"slippage_max_bps"`
	MakerRebateBps       float64 `mapstructure:"maker_rebate_bps"`
	TakerFeeBps          float64 `mapstructure:"taker_fee_bps"`
	MakerFillProbability float64 `mapstructure:"maker_fill_probability"`
	Seed                 int64   `mapstructure:"seed"`
}

// KellyConfig holds position-sizing parameters.
type KellyConfig struct {
	MinEdge         float64 `mapstructure:"min_edge"`
	HalfKellyCap    float64 `mapstructure:"half_kelly_cap"`
	QuarterKellyCap float64 `mapstructure:"quarter_kelly_cap"`
}

// RiskConfig holds circuit-breaker thresholds.
type RiskConfig struct {
	MaxConsecutiveLosses    int     `mapstructure:"max_consecutive_losses"`
	MaxDailyLossPct         float64 `mapstructure:"max_daily_loss_pct"`
	MaxBotDrawdownPct       float64 `mapstructure:"max_bot_drawdown_pct"`
	MaxPortfolioDrawdownPct float64 `mapstructure:"max_portfolio_drawdown_pct"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	LogPath      string `mapstructure:"log_path"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/outcome-trader"
	}
	return filepath.Join(home, ".config", "outcome-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("backtest.bot_id", "bot-1")
	v.SetDefault("backtest.market_id", "market-1")
	v.SetDefault("backtest.initial_balance", 10000.0)
	v.SetDefault("backtest.max_position_pct", 0.15)
	v.SetDefault("backtest.stale_order_hours", 0.0)
	v.SetDefault("backtest.workers", 0)

	v.SetDefault("execution.maker_rebate_bps", 2.0)
	v.SetDefault("execution.taker_fee_bps", 20.0)
	v.SetDefault("execution.maker_fill_probability", 1.0)

	v.SetDefault("kelly.min_edge", 0.05)
	v.SetDefault("kelly.half_kelly_cap", 0.50)
	v.SetDefault("kelly.quarter_kelly_cap", 0.25)

	v.SetDefault("risk.max_consecutive_losses", 3)
	v.SetDefault("risk.max_daily_loss_pct", 0.05)
	v.SetDefault("risk.max_bot_drawdown_pct", 0.25)
	v.SetDefault("risk.max_portfolio_drawdown_pct", 0.40)

	v.SetDefault("storage.database_path", filepath.Join(configDir, "runs.db"))
	v.SetDefault("storage.log_path", filepath.Join(configDir, "logs", "outcome-trader.log"))

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006 15:04")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OUTCOME_TRADER_DB"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("OUTCOME_TRADER_LOG"); v != "" {
		cfg.Storage.LogPath = v
	}
	if v := os.Getenv("OUTCOME_TRADER_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Backtest.InitialBalance = f
		}
	}
	if v := os.Getenv("OUTCOME_TRADER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Execution.Seed = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive")
	}
	if c.Backtest.MaxPositionPct <= 0 || c.Backtest.MaxPositionPct > 1 {
		return fmt.Errorf("max_position_pct must be in (0, 1]")
	}
	if c.Execution.MakerFillProbability <= 0 || c.Execution.MakerFillProbability > 1 {
		return fmt.Errorf("maker_fill_probability must be in (0, 1]")
	}
	if c.Execution.SlippageMaxBps < 0 || c.Execution.SlippageMeanBps < 0 {
		return fmt.Errorf("slippage parameters must be non-negative")
	}
	if c.Kelly.MinEdge < 0 || c.Kelly.MinEdge >= 1 {
		return fmt.Errorf("min_edge must be in [0, 1)")
	}
	if c.Risk.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("max_consecutive_losses must be at least 1")
	}
	for name, pct := range map[string]float64{
		"max_daily_loss_pct":         c.Risk.MaxDailyLossPct,
		"max_bot_drawdown_pct":       c.Risk.MaxBotDrawdownPct,
		"max_portfolio_drawdown_pct": c.Risk.MaxPortfolioDrawdownPct,
	} {
		if pct <= 0 || pct > 1 {
			return fmt.Errorf("%s must be in (0, 1]", name)
		}
	}
	return nil
}
