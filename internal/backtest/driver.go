// Package backtest replays a tick series through the full stack: strategy,
// Kelly sizing, risk admission, maker-only execution, and the virtual
// ledger. One Session owns one bot's state; nothing is shared.
package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"outcome-trader/internal/engine"
	apperrors "outcome-trader/internal/errors"
	"outcome-trader/internal/ledger"
	"outcome-trader/internal/logging"
	"outcome-trader/internal/models"
	"outcome-trader/internal/risk"
	"outcome-trader/internal/sizing"
	"outcome-trader/internal/strategy"
)

// Config holds everything a session needs besides the strategy and ticks.
type Config struct {
	BotID          string
	MarketID       string
	InitialBalance float64
	// MaxPositionPct caps any single position's notional as a fraction of
	// portfolio value, on top of the Kelly zone caps.
	MaxPositionPct float64
	// StaleOrderAfter cancels resting orders that have not filled within the
	// window. Zero leaves orders resting indefinitely.
	StaleOrderAfter time.Duration

	Engine engine.Config
	Sizing sizing.Config
	Risk   risk.Config
}

// DefaultConfig returns a session configuration with the standard risk and
// sizing parameters and a 10,000-unit starting balance.
func DefaultConfig() Config {
	return Config{
		BotID:          "bot-1",
		MarketID:       "market-1",
		InitialBalance: 10_000,
		MaxPositionPct: 0.15,
		Engine:         engine.DefaultConfig(),
		Sizing:         sizing.DefaultConfig(),
		Risk:           risk.DefaultConfig(),
	}
}

// Result is the complete outcome of one replay.
type Result struct {
	RunID       string
	BotID       string
	MarketID    string
	StartedAt   time.Time
	CompletedAt time.Time

	TicksReplayed int
	Halted        bool
	HaltReason    string

	Summary models.PerformanceSummary
	Equity  []models.EquityPoint
	Trades  []*models.Position
}

// Session drives one bot through one tick series. It holds at most one open
// position at a time; a new entry is considered only when both the position
// slot and the order book are empty.
type Session struct {
	cfg   Config
	log   zerolog.Logger
	strat strategy.Strategy

	ledger *ledger.VirtualLedger
	sim    *engine.Simulator
	riskEv *risk.Evaluator
	sizer  *sizing.KellySizer

	openPosition  *models.Position
	pendingOrder  *models.Order
	portfolioPeak float64
	haltTornDown  bool

	equity []models.EquityPoint
	trades []*models.Position
}

// NewSession wires a session from config. The strategy is supplied by the
// caller; everything else is constructed here.
func NewSession(cfg Config, strat strategy.Strategy, log zerolog.Logger) (*Session, error) {
	if strat == nil {
		return nil, apperrors.NewValidationError("strategy", nil, "strategy is required")
	}
	if cfg.MaxPositionPct <= 0 || cfg.MaxPositionPct > 1 {
		cfg.MaxPositionPct = DefaultConfig().MaxPositionPct
	}
	l, err := ledger.New(decimal.NewFromFloat(cfg.InitialBalance))
	if err != nil {
		return nil, err
	}
	sessionLog := log.With().Str("bot_id", cfg.BotID).Str("market_id", cfg.MarketID).Logger()
	s := &Session{
		cfg:           cfg,
		log:           sessionLog,
		strat:         strat,
		ledger:        l,
		sim:           engine.NewSimulator(cfg.Engine, l, sessionLog),
		riskEv:        risk.NewEvaluator(cfg.Risk, cfg.InitialBalance),
		sizer:         sizing.NewKellySizer(cfg.Sizing),
		portfolioPeak: cfg.InitialBalance,
	}
	return s, nil
}

// Run replays the tick series in order and returns the completed result.
// Per-tick strategy failures (errors or panics) skip that tick; they never
// abort the replay.
func (s *Session) Run(ticks []models.Tick) (*Result, error) {
	if len(ticks) == 0 {
		return nil, apperrors.ErrEmptyTickSeries
	}

	result := &Result{
		RunID:     uuid.NewString(),
		BotID:     s.cfg.BotID,
		MarketID:  s.cfg.MarketID,
		StartedAt: ticks[0].Timestamp,
	}

	for i, tick := range ticks {
		s.step(models.MarketState{MarketID: s.cfg.MarketID, Tick: tick, TickIndex: i})
		result.TicksReplayed++
	}

	last := ticks[len(ticks)-1]
	if s.openPosition != nil {
		s.closePosition(last.Price, "end_of_data", last.Timestamp)
	}
	s.sim.CancelAll("end_of_data", last.Timestamp)
	if s.pendingOrder != nil {
		s.releaseOrderExposure(s.pendingOrder)
		s.pendingOrder = nil
	}
	s.recordEquity(last.Timestamp)

	result.CompletedAt = last.Timestamp
	result.Halted = s.riskEv.Halted()
	result.HaltReason = s.riskEv.HaltReason()
	result.Equity = s.equity
	result.Trades = s.trades
	result.Summary = Summarize(s.cfg.InitialBalance, s.equity, s.trades)

	s.log.Info().
		Str("run_id", result.RunID).
		Int("ticks", result.TicksReplayed).
		Int("trades", result.Summary.TotalTrades).
		Float64("final_balance", result.Summary.FinalBalance).
		Bool("halted", result.Halted).
		Msg("replay complete")
	return result, nil
}

// step processes one tick: fills first, then exits, then stale-order
// housekeeping, then a possible new entry, then the equity sample and halt
// check.
func (s *Session) step(state models.MarketState) {
	tick := state.Tick

	for _, fill := range s.sim.OnTick(tick) {
		if fill.Order.ID == orderID(s.pendingOrder) {
			s.pendingOrder = nil
		}
		s.openPosition = fill.Position
	}

	if s.openPosition != nil {
		s.openPosition.UpdatePrice(tick.Price)
		if exit, reason, err := s.shouldExit(s.openPosition, tick); err != nil {
			s.log.Warn().Err(err).Int("tick", state.TickIndex).Msg("exit check failed, skipping tick")
		} else if exit {
			s.closePosition(tick.Price, reason, tick.Timestamp)
		}
	}

	s.cancelStale(tick.Timestamp)

	if s.openPosition == nil && s.pendingOrder == nil && !s.riskEv.Halted() {
		s.tryEnter(state)
	}

	value := s.recordEquity(tick.Timestamp)
	s.riskEv.ObserveEquity(value, tick.Timestamp)
	if s.riskEv.Halted() {
		s.onHalt(tick.Timestamp)
	}
}

// tryEnter runs the strategy, sizes the signal, passes it through risk
// admission, and submits the resulting maker order.
func (s *Session) tryEnter(state models.MarketState) {
	signal, err := s.analyze(state)
	if err != nil {
		s.log.Warn().Err(err).Int("tick", state.TickIndex).Msg("strategy failed, skipping tick")
		return
	}
	if signal == nil {
		return
	}

	portfolio := s.portfolioValue()
	zone := models.ZoneForPrice(signal.LimitPrice)
	notional := s.sizer.Size(zone, signal.WinProbability, signal.Edge, portfolio)
	if maxNotional := s.cfg.MaxPositionPct * portfolio; notional > maxNotional {
		notional = maxNotional
	}
	if notional <= 0 {
		return
	}

	decision := s.riskEv.CheckBeforeTrade(zone, notional, portfolio, s.portfolioPeak)
	if !decision.Allowed {
		logging.LogBreaker(s.log, decision.Rule, decision.Reason)
		return
	}

	size, err := sizeForNotional(signal.Side, signal.LimitPrice, notional)
	if err != nil {
		s.log.Warn().Err(err).Msg("sizing produced an invalid quantity")
		return
	}

	order, err := models.NewOrder(models.OrderParams{
		BotID:      s.cfg.BotID,
		MarketID:   s.cfg.MarketID,
		Side:       signal.Side,
		Intent:     signal.Intent,
		Size:       size,
		LimitPrice: signal.LimitPrice,
		PostOnly:   true,
		PlacedAt:   state.Tick.Timestamp,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("order rejected at construction")
		return
	}
	if err := s.sim.Submit(order, state.Tick.Timestamp); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("order rejected at submit")
		return
	}

	s.pendingOrder = order
	exposure, _ := order.Notional().Float64()
	s.riskEv.AddExposure(order.Zone, exposure)
	s.log.Info().
		Str("order_id", order.ID).
		Str("side", string(order.Side)).
		Str("limit", order.LimitPrice.String()).
		Str("zone", order.Zone.String()).
		Str("reason", signal.Reason).
		Msg("order placed")
}

// closePosition realizes the open position at the tick price, returns the
// cost basis plus P&L to the ledger, and feeds the result into the risk
// evaluator.
func (s *Session) closePosition(price models.Price, reason string, at time.Time) {
	pos := s.openPosition
	costBasis := pos.CostBasis()
	pnl, err := pos.Close(price, reason, at)
	if err != nil {
		s.log.Error().Err(err).Str("position_id", pos.ID).Msg("close failed")
		return
	}

	s.ledger.Credit(costBasis.Add(pnl))
	pnlF, _ := pnl.Float64()
	s.riskEv.RecordTradeResult(pnlF, at)
	exposure, _ := costBasis.Float64()
	s.riskEv.ReleaseExposure(pos.Zone, exposure)

	s.trades = append(s.trades, pos)
	s.openPosition = nil

	s.log.Info().
		Str("position_id", pos.ID).
		Str("exit_price", price.String()).
		Str("pnl", pnl.StringFixed(4)).
		Str("reason", reason).
		Msg("position closed")
}

// cancelStale cancels the resting order once it exceeds the stale window.
func (s *Session) cancelStale(at time.Time) {
	if s.cfg.StaleOrderAfter <= 0 || s.pendingOrder == nil {
		return
	}
	if at.Sub(s.pendingOrder.PlacedAt) < s.cfg.StaleOrderAfter {
		return
	}
	if err := s.sim.Cancel(s.pendingOrder.ID, "stale", at); err != nil {
		s.log.Warn().Err(err).Str("order_id", s.pendingOrder.ID).Msg("stale cancel failed")
		return
	}
	s.releaseOrderExposure(s.pendingOrder)
	s.pendingOrder = nil
}

// onHalt runs the emergency-halt teardown once: every resting order is
// canceled and no further entries are attempted. The latch itself lives in
// the risk evaluator.
func (s *Session) onHalt(at time.Time) {
	if s.haltTornDown {
		return
	}
	s.haltTornDown = true

	canceled := s.sim.CancelAll(s.riskEv.HaltReason(), at)
	if s.pendingOrder != nil {
		s.releaseOrderExposure(s.pendingOrder)
		s.pendingOrder = nil
	}
	logging.LogHalt(s.log, s.riskEv.HaltReason(), len(canceled))
}

func (s *Session) releaseOrderExposure(order *models.Order) {
	if order.Status != models.OrderStatusCanceled {
		return
	}
	exposure, _ := order.Notional().Float64()
	s.riskEv.ReleaseExposure(order.Zone, exposure)
}

// portfolioValue is ledger total (available + reserved) plus the marked
// value of the open position.
func (s *Session) portfolioValue() float64 {
	total := s.ledger.Total()
	if s.openPosition != nil && !s.openPosition.Closed() {
		total = total.Add(s.openPosition.Value())
	}
	f, _ := total.Float64()
	return f
}

func (s *Session) recordEquity(at time.Time) float64 {
	value := s.portfolioValue()
	if value > s.portfolioPeak {
		s.portfolioPeak = value
	}
	s.equity = append(s.equity, models.EquityPoint{Timestamp: at, Value: value})
	return value
}

// analyze calls the strategy with panic containment.
func (s *Session) analyze(state models.MarketState) (signal *strategy.EntrySignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signal, err = nil, fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return s.strat.Analyze(state)
}

// shouldExit calls the strategy's exit check with panic containment.
func (s *Session) shouldExit(pos *models.Position, tick models.Tick) (exit bool, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			exit, reason, err = false, "", fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return s.strat.ShouldExit(pos, tick)
}

// sizeForNotional converts a notional into a share quantity at the limit
// price: notional/price for a BUY, notional/(1-price) for a SELL, matching
// the collateral each side locks.
func sizeForNotional(side models.Side, price models.Price, notional float64) (models.Size, error) {
	perShare := price.Decimal()
	if side == models.SideSell {
		perShare = decimal.New(1, 0).Sub(price.Decimal())
	}
	if !perShare.IsPositive() {
		return models.Size{}, apperrors.NewValidationError("price", price.String(), "no collateral per share")
	}
	return models.NewSize(decimal.NewFromFloat(notional).Div(perShare))
}

func orderID(o *models.Order) string {
	if o == nil {
		return ""
	}
	return o.ID
}
