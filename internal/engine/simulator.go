// Package engine implements the maker-only matching/execution simulator.
// Resting orders fill at their own limit price when a tick crosses them; the
// simulator never takes liquidity, so the only fee path is the maker rebate.
package engine

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
	"outcome-trader/internal/ledger"
	"outcome-trader/internal/models"
)

// Config holds the execution-simulation parameters.
type Config struct {
	SlippageMeanBps float64
	SlippageMaxBps  float64
	MakerRebateBps  float64
	TakerFeeBps     float64
	// MakerFillProbability is the chance a crossing tick actually fills a
	// resting maker order. This models queue position; it is an explicit
	// approximation, not a matching rule. (0, 1], default 1.
	MakerFillProbability float64
	Seed                 int64
}

// DefaultConfig returns execution parameters with deterministic fills and
// a small maker rebate.
func DefaultConfig() Config {
	return Config{
		SlippageMeanBps:      0,
		SlippageMaxBps:       0,
		MakerRebateBps:       2,
		TakerFeeBps:          20,
		MakerFillProbability: 1.0,
	}
}

// Fill describes one executed order and the position it opened.
type Fill struct {
	Order     *models.Order
	Position  *models.Position
	Price     models.Price
	Fee       decimal.Decimal // negative: maker rebate
	Timestamp time.Time
}

// Simulator resolves resting maker orders against incoming ticks for one
// market. It owns the fill/cancel race: exactly one of the two wins, gated
// on the order's own terminal-status check.
type Simulator struct {
	cfg      Config
	ledger   *ledger.VirtualLedger
	fees     FeeModel
	slippage slippageModel
	rng      *rand.Rand
	log      zerolog.Logger

	resting map[string]*models.Order
}

// NewSimulator creates a simulator bound to a session ledger.
func NewSimulator(cfg Config, l *ledger.VirtualLedger, log zerolog.Logger) *Simulator {
	if cfg.MakerFillProbability <= 0 || cfg.MakerFillProbability > 1 {
		cfg.MakerFillProbability = 1.0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Simulator{
		cfg:      cfg,
		ledger:   l,
		fees:     NewFeeModel(cfg.MakerRebateBps, cfg.TakerFeeBps),
		slippage: newSlippageModel(cfg.SlippageMeanBps, cfg.SlippageMaxBps, rng),
		rng:      rng,
		log:      log,
		resting:  make(map[string]*models.Order),
	}
}

// Submit reserves the order's notional and accepts it to rest. On an
// insufficient balance the ledger is untouched and no order rests.
func (s *Simulator) Submit(order *models.Order, at time.Time) error {
	if !order.IsResting() {
		return apperrors.NewOrderError(order.ID, "submit",
			"order is "+string(order.Status), apperrors.ErrInvalidStateTransition)
	}
	if err := s.ledger.Reserve(order.Notional()); err != nil {
		return err
	}
	if order.Status == models.OrderStatusPending {
		if err := order.MarkOpen(at); err != nil {
			// Undo the reservation; the order never rested.
			_ = s.ledger.Release(order.Notional())
			return err
		}
	}
	s.resting[order.ID] = order
	s.log.Debug().
		Str("order_id", order.ID).
		Str("side", string(order.Side)).
		Str("limit", order.LimitPrice.String()).
		Str("size", order.Size.String()).
		Msg("order resting")
	return nil
}

// Cancel releases the order's reservation and cancels it. Succeeds at any
// time before a filling tick; fails once the order is terminal.
func (s *Simulator) Cancel(orderID, reason string, at time.Time) error {
	order, ok := s.resting[orderID]
	if !ok {
		return apperrors.NewOrderError(orderID, "cancel", "order not resting",
			apperrors.ErrInvalidStateTransition)
	}
	if err := order.Cancel(reason, at); err != nil {
		return err
	}
	delete(s.resting, orderID)
	if err := s.ledger.Release(order.Notional()); err != nil {
		return err
	}
	s.log.Debug().Str("order_id", orderID).Str("reason", reason).Msg("order canceled")
	return nil
}

// CancelAll cancels every resting order (emergency-halt path) and returns
// the canceled order IDs.
func (s *Simulator) CancelAll(reason string, at time.Time) []string {
	ids := make([]string, 0, len(s.resting))
	for id := range s.resting {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	canceled := ids[:0]
	for _, id := range ids {
		if err := s.Cancel(id, reason, at); err == nil {
			canceled = append(canceled, id)
		}
	}
	return canceled
}

// RestingOrders returns the orders still waiting for a fill, sorted by
// placement time.
func (s *Simulator) RestingOrders() []*models.Order {
	orders := make([]*models.Order, 0, len(s.resting))
	for _, o := range s.resting {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].PlacedAt.Before(orders[j].PlacedAt)
	})
	return orders
}

// crosses reports whether tick price p triggers a fill of the order:
// a BUY at limit L fills when p <= L, a SELL when p >= L.
func crosses(order *models.Order, p models.Price) bool {
	if order.Side == models.SideBuy {
		return p.LessThanOrEqual(order.LimitPrice)
	}
	return p.GreaterThanOrEqual(order.LimitPrice)
}

// OnTick evaluates every resting order against the tick and returns the
// fills it produced. Orders that never cross stay resting indefinitely;
// there are no partial fills.
func (s *Simulator) OnTick(tick models.Tick) []*Fill {
	if len(s.resting) == 0 {
		return nil
	}

	var fills []*Fill
	for _, order := range s.RestingOrders() {
		if !crosses(order, tick.Price) {
			continue
		}
		if s.cfg.MakerFillProbability < 1 && s.rng.Float64() > s.cfg.MakerFillProbability {
			// Queue position lost this crossing; the order stays resting and
			// is re-evaluated on the next tick.
			continue
		}

		fill, err := s.fill(order, tick.Timestamp)
		if err != nil {
			s.log.Error().Err(err).Str("order_id", order.ID).Msg("fill failed")
			continue
		}
		fills = append(fills, fill)
	}
	return fills
}

// fill executes the order at its limit price perturbed by slippage,
// releases the reservation into the position's cost basis, credits the
// maker rebate, and opens exactly one position. The ledger swap runs before
// the order transitions: a fill that cannot be funded leaves the order
// resting with the reservation intact.
func (s *Simulator) fill(order *models.Order, at time.Time) (*Fill, error) {
	fillPrice := s.slippage.apply(order.LimitPrice, order.Side)
	costBasis := models.CollateralFor(order.Side, order.Size, fillPrice)

	// Swap the limit-price reservation for the exact fill cost basis.
	if err := s.ledger.Release(order.Notional()); err != nil {
		return nil, err
	}
	if err := s.ledger.Debit(costBasis); err != nil {
		// Slippage pushed the cost basis past the available balance.
		// Restore the reservation; the order stays resting.
		_ = s.ledger.Reserve(order.Notional())
		return nil, err
	}

	if err := order.MarkFilled(fillPrice, at); err != nil {
		s.ledger.Credit(costBasis)
		_ = s.ledger.Reserve(order.Notional())
		return nil, err
	}
	delete(s.resting, order.ID)

	notional := order.Size.Notional(fillPrice)
	fee := s.fees.MakerFee(notional)
	// Maker fee is negative: the rebate lands in the available balance.
	s.ledger.Credit(fee.Neg())

	position := models.NewPosition(order, fillPrice, at)

	s.log.Info().
		Str("order_id", order.ID).
		Str("position_id", position.ID).
		Str("side", string(order.Side)).
		Str("fill_price", fillPrice.String()).
		Str("size", order.Size.String()).
		Str("fee", fee.String()).
		Msg("maker order filled")

	return &Fill{
		Order:     order,
		Position:  position,
		Price:     fillPrice,
		Fee:       fee,
		Timestamp: at,
	}, nil
}
