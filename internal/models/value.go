package models

import (
	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
)

// Price quantization and bounds. Binary-outcome shares trade strictly inside
// (0, 1); the venue tick grid is 4 decimal places.
const (
	PricePlaces = 4
	SizePlaces  = 6
)

var (
	priceMin  = decimal.RequireFromString("0.01")
	priceMax  = decimal.RequireFromString("0.99")
	fairValue = decimal.RequireFromString("0.50")
)

// Price is a bounded, quantized share price in [0.01, 0.99].
// The zero value is invalid; construct through NewPrice.
type Price struct {
	value decimal.Decimal
}

// NewPrice quantizes v to 4 decimal places and validates bounds.
func NewPrice(v decimal.Decimal) (Price, error) {
	q := v.Round(PricePlaces)
	if q.LessThan(priceMin) || q.GreaterThan(priceMax) {
		return Price{}, apperrors.NewValidationError("price", v.String(), "must be within [0.01, 0.99]")
	}
	return Price{value: q}, nil
}

// NewPriceFromFloat builds a Price from a float64.
func NewPriceFromFloat(v float64) (Price, error) {
	return NewPrice(decimal.NewFromFloat(v))
}

// MustPrice builds a Price and panics on invalid input. Test helper.
func MustPrice(v float64) Price {
	p, err := NewPriceFromFloat(v)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the quantized decimal value.
func (p Price) Decimal() decimal.Decimal {
	return p.value
}

// Float64 returns the price as a float64 for metric calculations.
func (p Price) Float64() float64 {
	f, _ := p.value.Float64()
	return f
}

// IsZero reports whether p is the (invalid) zero value.
func (p Price) IsZero() bool {
	return p.value.IsZero()
}

// LessThanOrEqual reports p <= q.
func (p Price) LessThanOrEqual(q Price) bool {
	return p.value.LessThanOrEqual(q.value)
}

// GreaterThanOrEqual reports p >= q.
func (p Price) GreaterThanOrEqual(q Price) bool {
	return p.value.GreaterThanOrEqual(q.value)
}

// Equal reports p == q.
func (p Price) Equal(q Price) bool {
	return p.value.Equal(q.value)
}

// DistanceFromFair returns |p - 0.50|.
func (p Price) DistanceFromFair() decimal.Decimal {
	return p.value.Sub(fairValue).Abs()
}

func (p Price) String() string {
	return p.value.StringFixed(PricePlaces)
}

// Size is a non-negative share quantity quantized to 6 decimal places.
type Size struct {
	value decimal.Decimal
}

// NewSize quantizes v to 6 decimal places and rejects negative values.
func NewSize(v decimal.Decimal) (Size, error) {
	q := v.Round(SizePlaces)
	if q.IsNegative() {
		return Size{}, apperrors.NewValidationError("size", v.String(), "must be non-negative")
	}
	return Size{value: q}, nil
}

// NewSizeFromFloat builds a Size from a float64.
func NewSizeFromFloat(v float64) (Size, error) {
	return NewSize(decimal.NewFromFloat(v))
}

// MustSize builds a Size and panics on invalid input. Test helper.
func MustSize(v float64) Size {
	s, err := NewSizeFromFloat(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Decimal returns the quantized decimal value.
func (s Size) Decimal() decimal.Decimal {
	return s.value
}

// Float64 returns the size as a float64 for metric calculations.
func (s Size) Float64() float64 {
	f, _ := s.value.Float64()
	return f
}

// IsZero reports whether the size is exactly zero.
func (s Size) IsZero() bool {
	return s.value.IsZero()
}

func (s Size) String() string {
	return s.value.StringFixed(SizePlaces)
}

// Notional returns size * price as an exact decimal.
func (s Size) Notional(p Price) decimal.Decimal {
	return s.value.Mul(p.Decimal())
}
