package strategy

import (
	"time"

	"outcome-trader/internal/models"
)

// ThresholdConfig parameterizes the reference mean-reversion strategy: buy
// cheap outcome shares below an entry threshold, exit on a target-profit
// delta, a stop-loss percentage, or hold-time bounds.
type ThresholdConfig struct {
	// EntryBelow triggers a BUY when the tick price is at or below it.
	EntryBelow float64
	// WinProbability and Edge are handed to the Kelly sizer unchanged.
	WinProbability float64
	Edge           float64
	// TargetProfitDelta exits once price moved this far in favor of the
	// position.
	TargetProfitDelta float64
	// StopLossPct exits once unrealized loss reaches this fraction of the
	// position's cost basis.
	StopLossPct float64
	// MinHold suppresses exits until the position has aged this long;
	// MaxHold forces an exit afterwards. Zero disables either bound.
	MinHold time.Duration
	MaxHold time.Duration
}

// DefaultThresholdConfig returns the parameters used by the CLI demo run.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		EntryBelow:        0.20,
		WinProbability:    0.65,
		Edge:              0.10,
		TargetProfitDelta: 0.10,
		StopLossPct:       0.30,
		MaxHold:           24 * time.Hour,
	}
}

// Threshold is the reference strategy implementation.
type Threshold struct {
	cfg        ThresholdConfig
	entryBelow models.Price
}

// NewThreshold creates a threshold strategy. Returns an error when the
// entry threshold is not a valid price.
func NewThreshold(cfg ThresholdConfig) (*Threshold, error) {
	entry, err := models.NewPriceFromFloat(cfg.EntryBelow)
	if err != nil {
		return nil, err
	}
	return &Threshold{cfg: cfg, entryBelow: entry}, nil
}

// Analyze emits a BUY at the tick price when it is at or below the entry
// threshold.
func (t *Threshold) Analyze(state models.MarketState) (*EntrySignal, error) {
	if !state.Tick.Price.LessThanOrEqual(t.entryBelow) {
		return nil, nil
	}
	return &EntrySignal{
		Side:           models.SideBuy,
		LimitPrice:     state.Tick.Price,
		WinProbability: t.cfg.WinProbability,
		Edge:           t.cfg.Edge,
		Intent:         models.IntentDirectional,
		Reason:         "price below entry threshold",
	}, nil
}

// ShouldExit applies, in order: minimum hold, stop loss, target profit, and
// maximum hold.
func (t *Threshold) ShouldExit(position *models.Position, tick models.Tick) (bool, string, error) {
	held := tick.Timestamp.Sub(position.OpenedAt)
	if t.cfg.MinHold > 0 && held < t.cfg.MinHold {
		return false, "", nil
	}

	if t.cfg.StopLossPct > 0 {
		costBasis, _ := position.CostBasis().Float64()
		unrealized, _ := position.UnrealizedPnL.Float64()
		if costBasis > 0 && unrealized < 0 && -unrealized >= t.cfg.StopLossPct*costBasis {
			return true, "stop_loss", nil
		}
	}

	if t.cfg.TargetProfitDelta > 0 {
		move := tick.Price.Decimal().Sub(position.EntryPrice.Decimal())
		if position.Side == models.SideSell {
			move = move.Neg()
		}
		f, _ := move.Float64()
		if f >= t.cfg.TargetProfitDelta {
			return true, "target_profit", nil
		}
	}

	if t.cfg.MaxHold > 0 && held >= t.cfg.MaxHold {
		return true, "max_hold", nil
	}

	return false, "", nil
}
