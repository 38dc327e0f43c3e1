package engine

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"outcome-trader/internal/models"
)

// slippageModel perturbs fill prices by a bounded random amount. The draw is
// normal around the mean and clamped to [0, max] basis points; the direction
// is always adverse to the filled order.
type slippageModel struct {
	meanBps float64
	maxBps  float64
	rng     *rand.Rand
}

func newSlippageModel(meanBps, maxBps float64, rng *rand.Rand) slippageModel {
	if maxBps < meanBps {
		maxBps = meanBps
	}
	if meanBps <= 0 && maxBps > 0 {
		// A max with no mean still has to produce slippage: center the draw
		// inside the bound.
		meanBps = maxBps / 2
	}
	return slippageModel{meanBps: meanBps, maxBps: maxBps, rng: rng}
}

// apply perturbs price p for a fill on the given side. The result is
// re-quantized and clamped back into the valid price range.
func (m slippageModel) apply(p models.Price, side models.Side) models.Price {
	if m.maxBps <= 0 {
		return p
	}

	bps := m.meanBps + m.rng.NormFloat64()*(m.meanBps/2)
	if bps < 0 {
		bps = 0
	}
	if bps > m.maxBps {
		bps = m.maxBps
	}
	if bps == 0 {
		return p
	}

	factor := decimal.NewFromFloat(1 + bps/10_000)
	if side == models.SideSell {
		factor = decimal.NewFromFloat(1 - bps/10_000)
	}

	perturbed, err := models.NewPrice(p.Decimal().Mul(factor))
	if err != nil {
		// Perturbation pushed the price out of bounds; keep the limit price.
		return p
	}
	return perturbed
}
