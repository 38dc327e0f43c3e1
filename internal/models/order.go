package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
)

// Order is a resting maker order. All orders in this system are post-only:
// they rest at their limit price until a tick crosses them, and never pay a
// taker fee.
type Order struct {
	ID           string
	BotID        string
	MarketID     string
	Side         Side
	Intent       Intent
	Size         Size
	LimitPrice   Price
	Zone         Zone
	Status       OrderStatus
	PostOnly     bool
	PlacedAt     time.Time
	UpdatedAt    time.Time
	FillPrice    *Price
	FilledAt     *time.Time
	CancelReason string
}

// OrderParams carries everything needed to construct an order.
type OrderParams struct {
	BotID      string
	MarketID   string
	Side       Side
	Intent     Intent
	Size       Size
	LimitPrice Price
	PostOnly   bool
	PlacedAt   time.Time
}

// NewOrder validates params and constructs a PENDING order. The zone is
// derived from the limit price; a directional order in zones 4-5 is rejected
// with no side effects, as is any non-post-only order.
func NewOrder(params OrderParams) (*Order, error) {
	if !params.Side.Valid() {
		return nil, apperrors.NewValidationError("side", string(params.Side), "must be BUY or SELL")
	}
	if !params.Intent.Valid() {
		return nil, apperrors.NewValidationError("intent", string(params.Intent), "unknown order intent")
	}
	if params.Size.IsZero() {
		return nil, apperrors.NewValidationError("size", params.Size.String(), "must be positive")
	}
	if params.LimitPrice.IsZero() {
		return nil, apperrors.NewValidationError("price", "0", "limit price is required")
	}
	if !params.PostOnly {
		return nil, apperrors.NewValidationError("post_only", params.PostOnly, "only maker orders are supported")
	}

	zone := ZoneForPrice(params.LimitPrice)
	if params.Intent.IsDirectional() && !zone.AllowsDirectional() {
		return nil, apperrors.Wrapf(apperrors.ErrZoneViolation,
			"directional order at %s falls in %s", params.LimitPrice, zone)
	}

	placedAt := params.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}

	return &Order{
		ID:         uuid.NewString(),
		BotID:      params.BotID,
		MarketID:   params.MarketID,
		Side:       params.Side,
		Intent:     params.Intent,
		Size:       params.Size,
		LimitPrice: params.LimitPrice,
		Zone:       zone,
		Status:     OrderStatusPending,
		PostOnly:   true,
		PlacedAt:   placedAt,
		UpdatedAt:  placedAt,
	}, nil
}

// MarkOpen transitions PENDING -> OPEN when the order is accepted to rest.
func (o *Order) MarkOpen(at time.Time) error {
	if o.Status != OrderStatusPending {
		return apperrors.NewOrderError(o.ID, "open",
			"order is "+string(o.Status), apperrors.ErrInvalidStateTransition)
	}
	o.Status = OrderStatusOpen
	o.UpdatedAt = at
	return nil
}

// MarkFilled transitions PENDING/OPEN -> FILLED at the given price. This is
// the sole trigger for position creation. Fails if the order is terminal,
// leaving it unchanged.
func (o *Order) MarkFilled(fillPrice Price, at time.Time) error {
	if o.Status.Terminal() {
		return apperrors.NewOrderError(o.ID, "fill",
			"order is "+string(o.Status), apperrors.ErrInvalidStateTransition)
	}
	o.Status = OrderStatusFilled
	o.FillPrice = &fillPrice
	o.FilledAt = &at
	o.UpdatedAt = at
	return nil
}

// Cancel transitions PENDING/OPEN -> CANCELED. Fails after a fill.
func (o *Order) Cancel(reason string, at time.Time) error {
	if o.Status.Terminal() {
		return apperrors.NewOrderError(o.ID, "cancel",
			"order is "+string(o.Status), apperrors.ErrInvalidStateTransition)
	}
	o.Status = OrderStatusCanceled
	o.CancelReason = reason
	o.UpdatedAt = at
	return nil
}

// IsResting reports whether the order is still waiting for a fill.
func (o *Order) IsResting() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusOpen
}

// Notional returns the capital reserved for the order. A BUY locks
// size * price; a SELL locks size * (1 - price), the worst-case payout of a
// short outcome share.
func (o *Order) Notional() decimal.Decimal {
	return CollateralFor(o.Side, o.Size, o.LimitPrice)
}

// CollateralFor returns the capital a fill at price p would lock for the
// given side and size.
func CollateralFor(side Side, size Size, p Price) decimal.Decimal {
	if side == SideSell {
		return size.Decimal().Mul(decimal.New(1, 0).Sub(p.Decimal()))
	}
	return size.Notional(p)
}
