package engine

import "github.com/shopspring/decimal"

// FeeModel computes maker rebates and taker fees on trade notional.
// Every order in this system rests as a maker, so the taker path exists for
// completeness but is never exercised by the simulator.
type FeeModel struct {
	makerRebateBps decimal.Decimal
	takerFeeBps    decimal.Decimal
}

var bpsDivisor = decimal.New(10_000, 0)

// NewFeeModel creates a fee model from basis-point rates.
func NewFeeModel(makerRebateBps, takerFeeBps float64) FeeModel {
	return FeeModel{
		makerRebateBps: decimal.NewFromFloat(makerRebateBps),
		takerFeeBps:    decimal.NewFromFloat(takerFeeBps),
	}
}

// MakerFee returns the fee for providing liquidity: a negative value, since
// makers earn a rebate on notional.
func (f FeeModel) MakerFee(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(f.makerRebateBps).Div(bpsDivisor).Neg()
}

// TakerFee returns the fee for taking liquidity on notional.
func (f FeeModel) TakerFee(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(f.takerFeeBps).Div(bpsDivisor)
}
