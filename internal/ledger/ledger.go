// Package ledger provides the virtual balance ledger used by backtest
// sessions. Capital is reserved when an order is placed, consumed into a
// position's cost basis on fill, and returned (plus realized P&L, minus
// fees) when the position closes.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
)

// VirtualLedger tracks available and reserved capital for one bot session.
// Total() is always available + reserved.
type VirtualLedger struct {
	mu        sync.RWMutex
	available decimal.Decimal
	reserved  decimal.Decimal
}

// New creates a ledger with the given starting balance.
func New(initial decimal.Decimal) (*VirtualLedger, error) {
	if !initial.IsPositive() {
		return nil, apperrors.NewValidationError("initial_balance", initial.String(), "must be positive")
	}
	return &VirtualLedger{available: initial, reserved: decimal.Zero}, nil
}

// Available returns the unreserved balance.
func (l *VirtualLedger) Available() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.available
}

// Reserved returns the balance locked behind resting orders.
func (l *VirtualLedger) Reserved() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reserved
}

// Total returns available + reserved.
func (l *VirtualLedger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.available.Add(l.reserved)
}

// Reserve moves amount from available to reserved at order placement.
// Fails with ErrInsufficientBalance and no effect if amount exceeds the
// available balance.
func (l *VirtualLedger) Reserve(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("amount", amount.String(), "reserve amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.GreaterThan(l.available) {
		return apperrors.Wrapf(apperrors.ErrInsufficientBalance,
			"reserve %s exceeds available %s", amount, l.available)
	}
	l.available = l.available.Sub(amount)
	l.reserved = l.reserved.Add(amount)
	return nil
}

// Release returns amount from reserved to available (order canceled, or the
// reservation is being swapped for an exact cost basis at fill time).
func (l *VirtualLedger) Release(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("amount", amount.String(), "release amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.GreaterThan(l.reserved) {
		return apperrors.Wrapf(apperrors.ErrInsufficientBalance,
			"release %s exceeds reserved %s", amount, l.reserved)
	}
	l.reserved = l.reserved.Sub(amount)
	l.available = l.available.Add(amount)
	return nil
}

// Debit removes amount from the available balance (cost basis leaving the
// ledger on fill).
func (l *VirtualLedger) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("amount", amount.String(), "debit amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.GreaterThan(l.available) {
		return apperrors.Wrapf(apperrors.ErrInsufficientBalance,
			"debit %s exceeds available %s", amount, l.available)
	}
	l.available = l.available.Sub(amount)
	return nil
}

// Credit adds amount to the available balance (returned cost basis, realized
// P&L, maker rebates).
func (l *VirtualLedger) Credit(amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available = l.available.Add(amount)
}
