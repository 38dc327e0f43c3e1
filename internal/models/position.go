package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
)

// Position is an open exposure created by exactly one filled order. It is
// mutated only by price ticks (unrealized P&L) and by a single, irreversible
// close.
type Position struct {
	ID            string
	OrderID       string
	BotID         string
	MarketID      string
	Side          Side
	Size          Size
	EntryPrice    Price
	Zone          Zone
	OpenedAt      time.Time
	CurrentPrice  Price
	UnrealizedPnL decimal.Decimal
	RealizedPnL   decimal.Decimal
	ExitPrice     *Price
	ClosedAt      *time.Time
	ExitReason    string
}

// NewPosition opens a position from a filled order at the given fill price.
func NewPosition(order *Order, fillPrice Price, at time.Time) *Position {
	return &Position{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		BotID:        order.BotID,
		MarketID:     order.MarketID,
		Side:         order.Side,
		Size:         order.Size,
		EntryPrice:   fillPrice,
		Zone:         order.Zone,
		OpenedAt:     at,
		CurrentPrice: fillPrice,
	}
}

// pnlAt computes the signed P&L of the position against price p.
// BUY: (p - entry) * size. SELL: (entry - p) * size.
func (pos *Position) pnlAt(p Price) decimal.Decimal {
	diff := p.Decimal().Sub(pos.EntryPrice.Decimal())
	if pos.Side == SideSell {
		diff = diff.Neg()
	}
	return diff.Mul(pos.Size.Decimal())
}

// UpdatePrice marks the position to the tick price and refreshes unrealized
// P&L. No-op on a closed position.
func (pos *Position) UpdatePrice(p Price) {
	if pos.Closed() {
		return
	}
	pos.CurrentPrice = p
	pos.UnrealizedPnL = pos.pnlAt(p)
}

// Close realizes the position at exitPrice. A second call fails with
// ErrPositionAlreadyClosed and leaves all state unchanged.
func (pos *Position) Close(exitPrice Price, reason string, at time.Time) (decimal.Decimal, error) {
	if pos.Closed() {
		return decimal.Zero, apperrors.Wrapf(apperrors.ErrPositionAlreadyClosed,
			"position %s closed at %s", pos.ID, pos.ClosedAt.Format(time.RFC3339))
	}
	pnl := pos.pnlAt(exitPrice)
	pos.RealizedPnL = pnl
	pos.UnrealizedPnL = decimal.Zero
	pos.CurrentPrice = exitPrice
	pos.ExitPrice = &exitPrice
	pos.ExitReason = reason
	closedAt := at
	pos.ClosedAt = &closedAt
	return pnl, nil
}

// Closed reports whether the position has been closed.
func (pos *Position) Closed() bool {
	return pos.ClosedAt != nil
}

// HoldTime returns how long the position has been (or was) held.
func (pos *Position) HoldTime(now time.Time) time.Duration {
	if pos.ClosedAt != nil {
		return pos.ClosedAt.Sub(pos.OpenedAt)
	}
	return now.Sub(pos.OpenedAt)
}

// CostBasis returns the capital locked in the position: size * entry for a
// BUY, size * (1 - entry) for a SELL.
func (pos *Position) CostBasis() decimal.Decimal {
	return CollateralFor(pos.Side, pos.Size, pos.EntryPrice)
}

// Value returns the current market value of the position: cost basis plus
// unrealized P&L.
func (pos *Position) Value() decimal.Decimal {
	return pos.CostBasis().Add(pos.UnrealizedPnL)
}
