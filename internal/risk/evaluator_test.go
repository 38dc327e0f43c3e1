package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"outcome-trader/internal/models"
)

var day1 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func TestConsecutiveLossBreaker(t *testing.T) {
	t.Run("two losses and a win never trip", func(t *testing.T) {
		e := NewEvaluator(DefaultConfig(), 10_000)
		e.RecordTradeResult(-50, day1)
		e.RecordTradeResult(-50, day1.Add(time.Minute))
		e.RecordTradeResult(100, day1.Add(2*time.Minute))

		d := e.CheckBeforeTrade(models.Zone1, 100, 10_000, 10_000)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, e.ConsecutiveLosses())
	})

	t.Run("three losses trip the breaker", func(t *testing.T) {
		e := NewEvaluator(DefaultConfig(), 10_000)
		for i := 0; i < 3; i++ {
			e.RecordTradeResult(-10, day1.Add(time.Duration(i)*time.Minute))
		}

		d := e.CheckBeforeTrade(models.Zone1, 100, 10_000, 10_000)
		assert.False(t, d.Allowed)
		assert.Equal(t, "consecutive_losses", d.Rule)
		// Checks up to the tripping rule must have passed.
		assert.Contains(t, d.ChecksPassed, "zone_exposure")
	})

	t.Run("a win after the trip clears the streak", func(t *testing.T) {
		e := NewEvaluator(DefaultConfig(), 10_000)
		for i := 0; i < 3; i++ {
			e.RecordTradeResult(-10, day1)
		}
		e.RecordTradeResult(5, day1.Add(time.Hour))

		d := e.CheckBeforeTrade(models.Zone1, 100, 10_000, 10_000)
		assert.True(t, d.Allowed)
	})

	t.Run("break-even trades leave the streak unchanged", func(t *testing.T) {
		e := NewEvaluator(DefaultConfig(), 10_000)
		e.RecordTradeResult(-10, day1)
		e.RecordTradeResult(-10, day1.Add(time.Minute))
		e.RecordTradeResult(0, day1.Add(2*time.Minute))
		assert.Equal(t, 2, e.ConsecutiveLosses())

		// The streak survives the flat trade, so one more loss trips.
		e.RecordTradeResult(-10, day1.Add(3*time.Minute))
		d := e.CheckBeforeTrade(models.Zone1, 100, 10_000, 10_000)
		assert.False(t, d.Allowed)
		assert.Equal(t, "consecutive_losses", d.Rule)
	})
}

func TestDailyLossBreaker(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), 10_000)

	// 5% of the 10,000 day-start value.
	e.RecordTradeResult(-500, day1)
	d := e.CheckBeforeTrade(models.Zone1, 100, 9_500, 10_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "daily_loss", d.Rule)

	// The window resets at the UTC day boundary.
	nextDay := day1.Add(24 * time.Hour)
	e.RecordTradeResult(5, nextDay)
	d = e.CheckBeforeTrade(models.Zone1, 100, 9_500, 10_000)
	assert.True(t, d.Allowed, "daily loss should reset on a new day: %s", d.Reason)
}

func TestBotDrawdownBreaker(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), 10_000)
	e.ObserveEquity(12_000, day1) // new peak

	// 25% down from the 12,000 peak.
	d := e.CheckBeforeTrade(models.Zone1, 100, 9_000, 12_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "bot_drawdown", d.Rule)

	// Just above the threshold is still allowed.
	d = e.CheckBeforeTrade(models.Zone1, 100, 9_100, 12_000)
	assert.True(t, d.Allowed)
}

func TestZoneExposureCaps(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), 10_000)

	// Zone 3 is capped at 25% of portfolio value.
	e.AddExposure(models.Zone3, 2_000)
	d := e.CheckBeforeTrade(models.Zone3, 600, 10_000, 10_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "zone_exposure", d.Rule)

	e.ReleaseExposure(models.Zone3, 2_000)
	d = e.CheckBeforeTrade(models.Zone3, 600, 10_000, 10_000)
	assert.True(t, d.Allowed)

	// Zones 4-5 are capped at zero.
	d = e.CheckBeforeTrade(models.Zone4, 1, 10_000, 10_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "zone_exposure", d.Rule)
}

func TestEmergencyHaltLatches(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), 10_000)

	// 40% portfolio drawdown latches the halt.
	e.ObserveEquity(10_000, day1)
	e.ObserveEquity(5_900, day1.Add(time.Hour))
	assert.True(t, e.Halted())
	assert.NotEmpty(t, e.HaltReason())

	// Recovery does not clear it.
	e.ObserveEquity(10_000, day1.Add(2*time.Hour))
	d := e.CheckBeforeTrade(models.Zone1, 1, 10_000, 10_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "emergency_halt", d.Rule)

	// Only an explicit reset clears it.
	e.Reset()
	assert.False(t, e.Halted())
	d = e.CheckBeforeTrade(models.Zone1, 1, 10_000, 10_000)
	assert.True(t, d.Allowed)
}

func TestPortfolioDrawdownCheck(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), 10_000)

	// Bot drawdown from the internal 10,000 peak is only 10%, so the wider
	// portfolio's 55% drawdown is what blocks.
	d := e.CheckBeforeTrade(models.Zone1, 100, 9_000, 20_000)
	assert.False(t, d.Allowed)
	assert.Equal(t, "portfolio_drawdown", d.Rule)
	assert.Contains(t, d.ChecksPassed, "bot_drawdown")
}
