package backtest

import (
	"math"

	"outcome-trader/internal/models"
)

// profitFactorCap is the sentinel reported when there are winning trades and
// zero gross loss, where the true ratio is unbounded.
const profitFactorCap = 999

// Summarize folds an equity curve and the closed-trade list into a
// performance summary. It is pure; the driver calls it once at end of replay.
func Summarize(initialBalance float64, equity []models.EquityPoint, trades []*models.Position) models.PerformanceSummary {
	s := models.PerformanceSummary{
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
	}
	if len(equity) > 0 {
		s.FinalBalance = equity[len(equity)-1].Value
	}
	s.TotalReturn = s.FinalBalance - s.InitialBalance
	if s.InitialBalance > 0 {
		s.TotalReturnPct = s.TotalReturn / s.InitialBalance * 100
	}

	var grossWin, grossLoss float64
	for _, t := range trades {
		pnl, _ := t.RealizedPnL.Float64()
		switch {
		case pnl > 0:
			s.WinningTrades++
			grossWin += pnl
		case pnl < 0:
			s.LosingTrades++
			grossLoss += -pnl
		}
	}
	s.TotalTrades = len(trades)
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -grossLoss / float64(s.LosingTrades)
	}

	switch {
	case s.TotalTrades == 0:
		s.ProfitFactor = 0
	case grossLoss == 0 && s.WinningTrades > 0:
		s.ProfitFactor = profitFactorCap
	case grossLoss > 0:
		s.ProfitFactor = grossWin / grossLoss
	}

	s.SharpeRatio = sharpe(equity)
	s.MaxDrawdownPct = maxDrawdown(initialBalance, equity) * 100
	return s
}

// sharpe computes the per-tick Sharpe ratio (zero risk-free rate) over the
// equity curve. Returns nil when undefined: fewer than two samples, or a
// flat return series whose standard deviation is zero.
func sharpe(equity []models.EquityPoint) *float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	if len(returns) < 2 {
		return nil
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return nil
	}

	ratio := mean / stdev
	return &ratio
}

// maxDrawdown returns the largest peak-to-trough fraction over the equity
// curve, seeding the peak with the initial balance.
func maxDrawdown(initialBalance float64, equity []models.EquityPoint) float64 {
	peak := initialBalance
	var maxDD float64
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
			continue
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
