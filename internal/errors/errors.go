// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidPrice           = errors.New("invalid price")
	ErrInvalidSize            = errors.New("invalid size")
	ErrInvalidOrder           = errors.New("invalid order")
	ErrZoneViolation          = errors.New("zone violation")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPositionAlreadyClosed  = errors.New("position already closed")
	ErrCircuitBreakerOpen     = errors.New("circuit breaker open")
	ErrEmergencyHalt          = errors.New("emergency halt active")
	ErrRunNotFound            = errors.New("run not found")
	ErrEmptyTickSeries        = errors.New("empty tick series")
	ErrConfigInvalid          = errors.New("invalid configuration")
)

// ValidationError represents a validation error on a constructed value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap maps every validation failure onto the ErrInvalidOrder sentinel so
// callers can use errors.Is without knowing the concrete type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// OrderError represents an error related to order lifecycle operations.
type OrderError struct {
	OrderID string
	Action  string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s: %s: %v", e.OrderID, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s: %s", e.OrderID, e.Action, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderID, action, reason string, err error) *OrderError {
	return &OrderError{
		OrderID: orderID,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// RiskError represents a risk admission failure.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Message string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s (current: %.2f, limit: %.2f)", e.Rule, e.Message, e.Current, e.Limit)
}

func (e *RiskError) Unwrap() error {
	return ErrCircuitBreakerOpen
}

// NewRiskError creates a new RiskError.
func NewRiskError(rule string, current, limit float64, message string) *RiskError {
	return &RiskError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
