// Package store persists completed backtest runs: the run record, its
// closed trades, and the sampled equity curve.
package store

import (
	"context"
	"time"

	"outcome-trader/internal/backtest"
)

// Store defines the persistence interface for backtest results.
type Store interface {
	// SaveRun persists a completed run with its trades and equity curve.
	SaveRun(ctx context.Context, result *backtest.Result) error

	// GetRun loads one run by ID, including trades and equity curve.
	// Returns ErrRunNotFound when no such run exists.
	GetRun(ctx context.Context, runID string) (*backtest.Result, error)

	// ListRuns returns run headers matching the filter, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]RunHeader, error)

	// DeleteRun removes a run and its dependent rows.
	DeleteRun(ctx context.Context, runID string) error

	// Lifecycle
	Close() error
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	BotID     string
	MarketID  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// RunHeader is the list-view projection of a run.
type RunHeader struct {
	RunID          string
	BotID          string
	MarketID       string
	StartedAt      time.Time
	CompletedAt    time.Time
	TotalTrades    int
	FinalBalance   float64
	TotalReturnPct float64
	Halted         bool
}
