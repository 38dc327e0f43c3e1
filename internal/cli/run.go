package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"outcome-trader/internal/backtest"
	"outcome-trader/internal/engine"
	"outcome-trader/internal/feed"
	"outcome-trader/internal/models"
	"outcome-trader/internal/risk"
	"outcome-trader/internal/sizing"
	"outcome-trader/internal/strategy"
	"outcome-trader/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		synthetic  int
		seed       int64
		entryBelow float64
		winProb    float64
		edge       float64
		target     float64
		stopLoss   float64
		maxHold    time.Duration
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "run [ticks.csv]",
		Short: "Replay a strategy over a tick series",
		Long: `Replays the threshold strategy over a tick series loaded from a CSV
file (columns: timestamp, price) or over a synthetic random walk when
--synthetic is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ticks, err := loadTicks(args, synthetic, seed)
			if err != nil {
				return err
			}

			strat, err := strategy.NewThreshold(strategy.ThresholdConfig{
				EntryBelow:        entryBelow,
				WinProbability:    winProb,
				Edge:              edge,
				TargetProfitDelta: target,
				StopLossPct:       stopLoss,
				MaxHold:           maxHold,
			})
			if err != nil {
				return err
			}

			session, err := backtest.NewSession(sessionConfig(app, seed), strat, app.Logger)
			if err != nil {
				return err
			}

			result, err := session.Run(ticks)
			if err != nil {
				return err
			}

			if app.Store != nil && !noSave {
				if err := app.Store.SaveRun(cmd.Context(), result); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to persist run")
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&synthetic, "synthetic", 0, "replay a synthetic walk of this many ticks instead of a file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for synthetic data and execution draws")
	cmd.Flags().Float64Var(&entryBelow, "entry-below", 0.20, "enter when price is at or below this level")
	cmd.Flags().Float64Var(&winProb, "win-prob", 0.65, "assumed win probability for Kelly sizing")
	cmd.Flags().Float64Var(&edge, "edge", 0.10, "assumed edge for Kelly sizing")
	cmd.Flags().Float64Var(&target, "target", 0.10, "exit after this favorable price move")
	cmd.Flags().Float64Var(&stopLoss, "stop", 0.30, "exit after losing this fraction of cost basis")
	cmd.Flags().DurationVar(&maxHold, "max-hold", 24*time.Hour, "force exit after this hold time (0 = never)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	return cmd
}

func loadTicks(args []string, synthetic int, seed int64) ([]models.Tick, error) {
	if synthetic > 0 {
		cfg := feed.DefaultSyntheticConfig()
		cfg.Ticks = synthetic
		if seed != 0 {
			cfg.Seed = seed
		}
		return feed.Synthetic(cfg), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a tick file is required unless --synthetic is given")
	}
	return feed.LoadCSV(args[0])
}

func sessionConfig(app *App, seed int64) backtest.Config {
	bt := app.Config.Backtest
	ex := app.Config.Execution
	if seed != 0 {
		ex.Seed = seed
	}
	return backtest.Config{
		BotID:           bt.BotID,
		MarketID:        bt.MarketID,
		InitialBalance:  bt.InitialBalance,
		MaxPositionPct:  bt.MaxPositionPct,
		StaleOrderAfter: time.Duration(bt.StaleOrderHours * float64(time.Hour)),
		Engine: engine.Config{
			SlippageMeanBps:      ex.SlippageMeanBps,
			SlippageMaxBps:       ex.SlippageMaxBps,
			MakerRebateBps:       ex.MakerRebateBps,
			TakerFeeBps:          ex.TakerFeeBps,
			MakerFillProbability: ex.MakerFillProbability,
			Seed:                 ex.Seed,
		},
		Sizing: sizing.Config{
			MinEdge:         app.Config.Kelly.MinEdge,
			HalfKellyCap:    app.Config.Kelly.HalfKellyCap,
			QuarterKellyCap: app.Config.Kelly.QuarterKellyCap,
		},
		Risk: risk.Config{
			MaxConsecutiveLosses:    app.Config.Risk.MaxConsecutiveLosses,
			MaxDailyLossPct:         app.Config.Risk.MaxDailyLossPct,
			MaxBotDrawdownPct:       app.Config.Risk.MaxBotDrawdownPct,
			MaxPortfolioDrawdownPct: app.Config.Risk.MaxPortfolioDrawdownPct,
		},
	}
}

func printResult(output *Output, result *backtest.Result) {
	color.Cyan("📈 Backtest Result — %s / %s", result.BotID, result.MarketID)
	output.Dim("Run %s · %d ticks · %s → %s", result.RunID, result.TicksReplayed,
		result.StartedAt.Format("02-Jan-2006 15:04"), result.CompletedAt.Format("02-Jan-2006 15:04"))
	output.Println()

	sum := result.Summary
	table := NewTable(output, "Metric", "Value")
	table.AddRow("Initial balance", utils.FormatMoney(sum.InitialBalance))
	table.AddRow("Final balance", utils.FormatMoney(sum.FinalBalance))
	table.AddRow("Total return", output.FormatPnL(sum.TotalReturn, utils.FormatPnL(sum.TotalReturn)))
	table.AddRow("Return %", output.FormatPnL(sum.TotalReturnPct, utils.FormatPercent(sum.TotalReturnPct)))
	table.AddRow("Trades", fmt.Sprintf("%d (%dW / %dL)", sum.TotalTrades, sum.WinningTrades, sum.LosingTrades))
	table.AddRow("Win rate", fmt.Sprintf("%.1f%%", sum.WinRate*100))
	table.AddRow("Profit factor", utils.FormatRatio(sum.ProfitFactor))
	if sum.SharpeRatio != nil {
		table.AddRow("Sharpe", fmt.Sprintf("%.3f", *sum.SharpeRatio))
	} else {
		table.AddRow("Sharpe", "n/a")
	}
	table.AddRow("Max drawdown", fmt.Sprintf("%.2f%%", sum.MaxDrawdownPct))
	table.AddRow("Avg win", utils.FormatMoney(sum.AvgWin))
	table.AddRow("Avg loss", utils.FormatMoney(sum.AvgLoss))
	table.Render()

	if result.Halted {
		output.Println()
		color.Red("⛔ Emergency halt: %s", result.HaltReason)
	}
}
