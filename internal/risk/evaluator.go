// Package risk implements the rolling multi-threshold circuit-breaker
// evaluator that gates every new trade. Per-condition breakers auto-clear
// when their metric recovers; the emergency halt is a distinct, irreversible
// transition that stays latched until Reset.
package risk

import (
	"fmt"
	"time"

	"outcome-trader/internal/models"
)

// Config holds the breaker thresholds.
type Config struct {
	MaxConsecutiveLosses    int
	MaxDailyLossPct         float64
	MaxBotDrawdownPct       float64
	MaxPortfolioDrawdownPct float64
	// ZoneExposureCaps limits live exposure per zone as a fraction of
	// current portfolio value. Zones without an entry are uncapped.
	ZoneExposureCaps map[models.Zone]float64
}

// DefaultConfig returns the standard breaker thresholds.
func DefaultConfig() Config {
	return Config{
		MaxConsecutiveLosses:    3,
		MaxDailyLossPct:         0.05,
		MaxBotDrawdownPct:       0.25,
		MaxPortfolioDrawdownPct: 0.40,
		ZoneExposureCaps: map[models.Zone]float64{
			models.Zone1: 0.60,
			models.Zone2: 0.40,
			models.Zone3: 0.25,
			models.Zone4: 0,
			models.Zone5: 0,
		},
	}
}

// Decision is the structured result of an admission check. Blocked trades
// are reported, not raised, so the replay loop can log and continue.
type Decision struct {
	Allowed      bool
	Rule         string
	Reason       string
	ChecksPassed []string
}

// Allow returns a passing decision.
func Allow(passed []string) Decision {
	return Decision{Allowed: true, ChecksPassed: passed}
}

// Block returns a blocking decision for the named rule.
func Block(rule, reason string, passed []string) Decision {
	return Decision{Allowed: false, Rule: rule, Reason: reason, ChecksPassed: passed}
}

// Evaluator holds the rolling per-bot risk state. It is owned by a single
// session and must not be shared across tick streams.
type Evaluator struct {
	cfg Config

	consecutiveLosses int
	dailyRealizedLoss float64
	day               time.Time
	dayStartValue     float64

	peakValue    float64
	initialValue float64

	zoneExposure map[models.Zone]float64

	halted     bool
	haltReason string
	haltedAt   time.Time
}

// NewEvaluator creates an evaluator seeded with the session's starting
// portfolio value.
func NewEvaluator(cfg Config, initialValue float64) *Evaluator {
	if cfg.MaxConsecutiveLosses <= 0 {
		cfg.MaxConsecutiveLosses = DefaultConfig().MaxConsecutiveLosses
	}
	if cfg.MaxDailyLossPct <= 0 {
		cfg.MaxDailyLossPct = DefaultConfig().MaxDailyLossPct
	}
	if cfg.MaxBotDrawdownPct <= 0 {
		cfg.MaxBotDrawdownPct = DefaultConfig().MaxBotDrawdownPct
	}
	if cfg.MaxPortfolioDrawdownPct <= 0 {
		cfg.MaxPortfolioDrawdownPct = DefaultConfig().MaxPortfolioDrawdownPct
	}
	if cfg.ZoneExposureCaps == nil {
		cfg.ZoneExposureCaps = DefaultConfig().ZoneExposureCaps
	}
	return &Evaluator{
		cfg:           cfg,
		initialValue:  initialValue,
		peakValue:     initialValue,
		dayStartValue: initialValue,
		zoneExposure:  make(map[models.Zone]float64),
	}
}

// CheckBeforeTrade decides whether a new trade of the given notional in the
// given zone may be admitted. portfolioValue and portfolioPeak describe the
// wider portfolio the bot belongs to; bot drawdown is tracked internally.
func (e *Evaluator) CheckBeforeTrade(zone models.Zone, notional, portfolioValue, portfolioPeak float64) Decision {
	var passed []string

	if e.halted {
		return Block("emergency_halt", e.haltReason, passed)
	}
	passed = append(passed, "emergency_halt")

	if cap, ok := e.cfg.ZoneExposureCaps[zone]; ok && portfolioValue > 0 {
		limit := cap * portfolioValue
		if e.zoneExposure[zone]+notional > limit {
			return Block("zone_exposure",
				fmt.Sprintf("%s exposure %.2f + %.2f exceeds cap %.2f",
					zone, e.zoneExposure[zone], notional, limit), passed)
		}
	}
	passed = append(passed, "zone_exposure")

	if e.consecutiveLosses >= e.cfg.MaxConsecutiveLosses {
		return Block("consecutive_losses",
			fmt.Sprintf("%d consecutive losses (limit %d)",
				e.consecutiveLosses, e.cfg.MaxConsecutiveLosses), passed)
	}
	passed = append(passed, "consecutive_losses")

	if e.dayStartValue > 0 {
		lossPct := e.dailyRealizedLoss / e.dayStartValue
		if lossPct >= e.cfg.MaxDailyLossPct {
			return Block("daily_loss",
				fmt.Sprintf("daily realized loss %.2f%% (limit %.2f%%)",
					lossPct*100, e.cfg.MaxDailyLossPct*100), passed)
		}
	}
	passed = append(passed, "daily_loss")

	if e.peakValue > 0 {
		dd := (e.peakValue - portfolioValue) / e.peakValue
		if dd >= e.cfg.MaxBotDrawdownPct {
			return Block("bot_drawdown",
				fmt.Sprintf("bot drawdown %.2f%% (limit %.2f%%)",
					dd*100, e.cfg.MaxBotDrawdownPct*100), passed)
		}
	}
	passed = append(passed, "bot_drawdown")

	if portfolioPeak > 0 {
		dd := (portfolioPeak - portfolioValue) / portfolioPeak
		if dd >= e.cfg.MaxPortfolioDrawdownPct {
			return Block("portfolio_drawdown",
				fmt.Sprintf("portfolio drawdown %.2f%% (limit %.2f%%)",
					dd*100, e.cfg.MaxPortfolioDrawdownPct*100), passed)
		}
	}
	passed = append(passed, "portfolio_drawdown")

	return Allow(passed)
}

// RecordTradeResult updates the rolling counters after a position closes.
// A win resets the consecutive-loss streak; a loss increments it and
// accumulates into the daily realized loss. Break-even trades are neutral,
// leaving the streak unchanged.
func (e *Evaluator) RecordTradeResult(pnl float64, at time.Time) {
	e.rollDay(at)
	if pnl > 0 {
		e.consecutiveLosses = 0
		return
	}
	if pnl == 0 {
		return
	}
	e.consecutiveLosses++
	e.dailyRealizedLoss += -pnl
}

// ObserveEquity feeds each equity sample into the evaluator: it rolls the
// daily window, tracks the bot's high-water mark, and latches the emergency
// halt once portfolio drawdown breaches its threshold.
func (e *Evaluator) ObserveEquity(value float64, at time.Time) {
	e.rollDay(at)
	if value > e.peakValue {
		e.peakValue = value
	}
	if e.peakValue > 0 && !e.halted {
		dd := (e.peakValue - value) / e.peakValue
		if dd >= e.cfg.MaxPortfolioDrawdownPct {
			e.Halt(fmt.Sprintf("portfolio drawdown %.2f%% breached %.2f%%",
				dd*100, e.cfg.MaxPortfolioDrawdownPct*100), at)
		}
	}
}

// rollDay resets the daily loss window when the UTC day changes.
func (e *Evaluator) rollDay(at time.Time) {
	day := at.UTC().Truncate(24 * time.Hour)
	if e.day.IsZero() {
		e.day = day
		return
	}
	if day.After(e.day) {
		e.day = day
		e.dailyRealizedLoss = 0
		e.dayStartValue = e.peakValue
	}
}

// AddExposure records new live exposure in a zone.
func (e *Evaluator) AddExposure(zone models.Zone, notional float64) {
	e.zoneExposure[zone] += notional
}

// ReleaseExposure removes exposure when an order is canceled or a position
// closes.
func (e *Evaluator) ReleaseExposure(zone models.Zone, notional float64) {
	e.zoneExposure[zone] -= notional
	if e.zoneExposure[zone] < 0 {
		e.zoneExposure[zone] = 0
	}
}

// Halt latches the emergency halt. It is irreversible until Reset and
// blocks every subsequent admission check.
func (e *Evaluator) Halt(reason string, at time.Time) {
	if e.halted {
		return
	}
	e.halted = true
	e.haltReason = reason
	e.haltedAt = at
}

// Halted reports whether the emergency halt is latched.
func (e *Evaluator) Halted() bool {
	return e.halted
}

// HaltReason returns why the halt was latched, empty when not halted.
func (e *Evaluator) HaltReason() string {
	return e.haltReason
}

// ConsecutiveLosses returns the current loss streak.
func (e *Evaluator) ConsecutiveLosses() int {
	return e.consecutiveLosses
}

// Reset clears the emergency halt and the rolling counters. Exposure totals
// are preserved; they reflect live positions, not breaker state.
func (e *Evaluator) Reset() {
	e.halted = false
	e.haltReason = ""
	e.consecutiveLosses = 0
	e.dailyRealizedLoss = 0
}
