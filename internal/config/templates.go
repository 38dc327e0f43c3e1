package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Outcome Trader Configuration

[backtest]
# Identifier stamped on every run
bot_id = "bot-1"
market_id = "market-1"
# Starting virtual balance
initial_balance = 10000.0
# Cap on any single position as a fraction of portfolio value
max_position_pct = 0.15
# Cancel resting orders unfilled for this many hours (0 = never)
stale_order_hours = 0.0
# Concurrent sessions for batch runs (0 = CPU count)
workers = 0

[execution]
# Adverse slippage on fills, in basis points
slippage_mean_bps = 0.0
slippage_max_bps = 0.0
# Maker rebate earned on fill notional
maker_rebate_bps = 2.0
taker_fee_bps = 20.0
# Probability a crossing tick fills a resting order (queue-position model)
maker_fill_probability = 1.0
# RNG seed for slippage and fill draws (0 = time-based)
seed = 0

[kelly]
# No position below this edge
min_edge = 0.05
# Zone 1-2 cap on the half-Kelly fraction
half_kelly_cap = 0.50
# Zone 3 cap on the quarter-Kelly fraction
quarter_kelly_cap = 0.25

[risk]
# Circuit-breaker thresholds
max_consecutive_losses = 3
max_daily_loss_pct = 0.05
max_bot_drawdown_pct = 0.25
# Breaching this latches the irreversible emergency halt
max_portfolio_drawdown_pct = 0.40

[storage]
# database_path = "~/.config/outcome-trader/runs.db"
# log_path = "~/.config/outcome-trader/logs/outcome-trader.log"

[ui]
color_enabled = true
date_format = "02-Jan-2006 15:04"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}
