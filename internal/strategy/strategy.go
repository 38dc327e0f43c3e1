// Package strategy defines the policy interface the replay driver consults
// and a reference threshold strategy for validation runs.
package strategy

import (
	"outcome-trader/internal/models"
)

// EntrySignal is a strategy's request to open a position.
type EntrySignal struct {
	Side           models.Side
	LimitPrice     models.Price
	WinProbability float64
	Edge           float64
	Intent         models.Intent
	Reason         string
}

// Strategy is an opaque trading policy. Analyze returns a nil signal when
// the strategy sees no entry. Both methods may fail; the driver treats a
// failure as a skipped tick, never as a fatal error.
type Strategy interface {
	// Analyze inspects the current market state and optionally emits an
	// entry signal.
	Analyze(state models.MarketState) (*EntrySignal, error)

	// ShouldExit decides whether the open position should be closed at the
	// current tick, returning the exit reason when it should.
	ShouldExit(position *models.Position, tick models.Tick) (bool, string, error)
}
