package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"outcome-trader/internal/store"
	"outcome-trader/pkg/utils"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect stored backtest runs",
	}

	var (
		botID    string
		marketID string
		limit    int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store is not available")
			}
			output := NewOutput(cmd)

			headers, err := app.Store.ListRuns(cmd.Context(), store.RunFilter{
				BotID:    botID,
				MarketID: marketID,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(headers)
			}
			if len(headers) == 0 {
				output.Dim("No stored runs.")
				return nil
			}

			color.Cyan("🗂  Stored Runs")
			table := NewTable(output, "Run", "Bot", "Market", "Started", "Trades", "Final", "Return", "Halted")
			for _, h := range headers {
				halted := ""
				if h.Halted {
					halted = output.Red("yes")
				}
				table.AddRow(
					h.RunID[:8],
					h.BotID,
					h.MarketID,
					h.StartedAt.Format("02-Jan-2006 15:04"),
					fmt.Sprintf("%d", h.TotalTrades),
					utils.FormatMoney(h.FinalBalance),
					output.FormatPnL(h.TotalReturnPct, utils.FormatPercent(h.TotalReturnPct)),
					halted,
				)
			}
			table.Render()
			return nil
		},
	}
	listCmd.Flags().StringVar(&botID, "bot", "", "filter by bot ID")
	listCmd.Flags().StringVar(&marketID, "market", "", "filter by market ID")
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store is not available")
			}
			output := NewOutput(cmd)

			result, err := app.Store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(result)
			}

			printResult(output, result)

			if len(result.Trades) > 0 {
				output.Println()
				color.Cyan("📋 Trades")
				table := NewTable(output, "Side", "Size", "Entry", "Exit", "Zone", "P&L", "Reason")
				for _, t := range result.Trades {
					exit := ""
					if t.ExitPrice != nil {
						exit = t.ExitPrice.String()
					}
					pnl, _ := t.RealizedPnL.Float64()
					table.AddRow(
						string(t.Side),
						t.Size.String(),
						t.EntryPrice.String(),
						exit,
						t.Zone.String(),
						output.FormatPnL(pnl, utils.FormatPnL(pnl)),
						t.ExitReason,
					)
				}
				table.Render()
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store is not available")
			}
			output := NewOutput(cmd)
			if err := app.Store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			output.Success("✓ Run %s deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
