// Package models defines the core domain entities for backtesting a
// binary-outcome market strategy: bounded value types, the order/position
// state machine, and the performance records the replay driver produces.
package models

import "time"

// Side represents the direction of an order or position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the two defined values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Intent classifies what an order is for. Zone restrictions only apply to
// directional orders; market-making and arbitrage flow is exempt.
type Intent string

const (
	IntentDirectional Intent = "DIRECTIONAL"
	IntentMarketMake  Intent = "MARKET_MAKING"
	IntentArbitrage   Intent = "ARBITRAGE"
)

// Valid reports whether the intent is a defined value.
func (i Intent) Valid() bool {
	return i == IntentDirectional || i == IntentMarketMake || i == IntentArbitrage
}

// IsDirectional reports whether the intent is subject to zone restrictions.
func (i Intent) IsDirectional() bool {
	return i == IntentDirectional
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusOpen     OrderStatus = "OPEN"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCanceled || s == OrderStatusRejected
}

// Tick is a single observation of the market price.
type Tick struct {
	Timestamp time.Time
	Price     Price
}

// MarketState is what a strategy sees on each tick.
type MarketState struct {
	MarketID  string
	Tick      Tick
	TickIndex int
}

// EquityPoint is one sample of the equity curve: ledger total plus the
// unrealized value of open positions.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// PerformanceSummary is the exposed result record of a completed replay.
type PerformanceSummary struct {
	InitialBalance float64
	FinalBalance   float64
	TotalReturn    float64
	TotalReturnPct float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64
	ProfitFactor   float64
	SharpeRatio    *float64 // nil when undefined (fewer than 2 points or flat returns)
	MaxDrawdownPct float64
	AvgWin         float64
	AvgLoss        float64
}
