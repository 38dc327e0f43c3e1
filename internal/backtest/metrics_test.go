package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outcome-trader/internal/models"
)

func closedTrade(pnl float64) *models.Position {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Position{
		RealizedPnL: decimal.NewFromFloat(pnl),
		ClosedAt:    &at,
	}
}

func equityCurve(start time.Time, values ...float64) []models.EquityPoint {
	points := make([]models.EquityPoint, len(values))
	for i, v := range values {
		points[i] = models.EquityPoint{Timestamp: start.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return points
}

func TestSummarizeBasics(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	equity := equityCurve(start, 10_000, 10_100, 10_050, 10_200)
	trades := []*models.Position{closedTrade(100), closedTrade(-50), closedTrade(150)}

	s := Summarize(10_000, equity, trades)

	assert.Equal(t, 10_000.0, s.InitialBalance)
	assert.Equal(t, 10_200.0, s.FinalBalance)
	assert.InDelta(t, 200, s.TotalReturn, 1e-9)
	assert.InDelta(t, 2.0, s.TotalReturnPct, 1e-9)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-9)
	assert.InDelta(t, 250.0/50.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 125, s.AvgWin, 1e-9)
	assert.InDelta(t, -50, s.AvgLoss, 1e-9)
}

func TestProfitFactorEdgeCases(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	equity := equityCurve(start, 10_000, 10_100)

	t.Run("no trades yields zero", func(t *testing.T) {
		s := Summarize(10_000, equity, nil)
		assert.Equal(t, 0.0, s.ProfitFactor)
	})

	t.Run("wins without losses yields the capped sentinel", func(t *testing.T) {
		s := Summarize(10_000, equity, []*models.Position{closedTrade(100)})
		assert.Equal(t, float64(profitFactorCap), s.ProfitFactor)
	})

	t.Run("only losses yields zero", func(t *testing.T) {
		s := Summarize(10_000, equity, []*models.Position{closedTrade(-100)})
		assert.Equal(t, 0.0, s.ProfitFactor)
	})
}

func TestSharpeUndefinedCases(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("single point", func(t *testing.T) {
		s := Summarize(10_000, equityCurve(start, 10_000), nil)
		assert.Nil(t, s.SharpeRatio)
	})

	t.Run("flat curve has zero stdev", func(t *testing.T) {
		s := Summarize(10_000, equityCurve(start, 10_000, 10_000, 10_000), nil)
		assert.Nil(t, s.SharpeRatio)
	})

	t.Run("varying curve has a value", func(t *testing.T) {
		s := Summarize(10_000, equityCurve(start, 10_000, 10_100, 10_050, 10_300), nil)
		require.NotNil(t, s.SharpeRatio)
	})
}

func TestMaxDrawdown(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("measured from running peak", func(t *testing.T) {
		// Peak 12,000, trough 9,000: 25% drawdown.
		s := Summarize(10_000, equityCurve(start, 10_000, 12_000, 9_000, 11_000), nil)
		assert.InDelta(t, 25.0, s.MaxDrawdownPct, 1e-9)
	})

	t.Run("initial balance seeds the peak", func(t *testing.T) {
		// Curve only goes down from the starting balance.
		s := Summarize(10_000, equityCurve(start, 9_500, 9_000), nil)
		assert.InDelta(t, 10.0, s.MaxDrawdownPct, 1e-9)
	})

	t.Run("monotone growth has zero drawdown", func(t *testing.T) {
		s := Summarize(10_000, equityCurve(start, 10_100, 10_200, 10_300), nil)
		assert.Equal(t, 0.0, s.MaxDrawdownPct)
	})
}
