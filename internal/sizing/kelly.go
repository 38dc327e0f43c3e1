// Package sizing implements Kelly-criterion position sizing with
// zone-dependent fraction caps. The sizer is pure and deterministic: it
// never errors, returning a zero notional for any ineligible input.
package sizing

import "outcome-trader/internal/models"

// Config holds the sizing parameters.
type Config struct {
	// MinEdge below which no position is taken.
	MinEdge float64
	// HalfKellyCap limits the zone 1-2 notional as a fraction of portfolio.
	HalfKellyCap float64
	// QuarterKellyCap limits the zone 3 notional as a fraction of portfolio.
	QuarterKellyCap float64
}

// DefaultConfig returns the standard sizing parameters.
func DefaultConfig() Config {
	return Config{
		MinEdge:         0.05,
		HalfKellyCap:    0.50,
		QuarterKellyCap: 0.25,
	}
}

// KellySizer computes position notionals from the Kelly criterion.
type KellySizer struct {
	cfg Config
}

// NewKellySizer creates a sizer. Zero-valued caps fall back to defaults.
func NewKellySizer(cfg Config) *KellySizer {
	def := DefaultConfig()
	if cfg.MinEdge <= 0 {
		cfg.MinEdge = def.MinEdge
	}
	if cfg.HalfKellyCap <= 0 {
		cfg.HalfKellyCap = def.HalfKellyCap
	}
	if cfg.QuarterKellyCap <= 0 {
		cfg.QuarterKellyCap = def.QuarterKellyCap
	}
	return &KellySizer{cfg: cfg}
}

// FullKellyFraction computes f* = (p*(1+edge) - (1-p)) / (1+edge), clamped
// to [0, 1]. Returns 0 when the edge is below the minimum or the win
// probability is outside (0, 1).
func (k *KellySizer) FullKellyFraction(winProbability, edge float64) float64 {
	if edge < k.cfg.MinEdge {
		return 0
	}
	if winProbability <= 0 || winProbability >= 1 {
		return 0
	}
	b := 1 + edge
	f := (winProbability*b - (1 - winProbability)) / b
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Size returns the notional to deploy for a directional trade. Zones 1-2
// use half of full Kelly capped at HalfKellyCap of portfolio, zone 3 uses a
// quarter capped at QuarterKellyCap, and zones 4-5 always size to zero.
// Callers apply any global per-position cap on top.
func (k *KellySizer) Size(zone models.Zone, winProbability, edge, portfolioValue float64) float64 {
	if portfolioValue <= 0 || !zone.Valid() {
		return 0
	}

	full := k.FullKellyFraction(winProbability, edge)
	if full == 0 {
		return 0
	}

	var fraction, maxFraction float64
	switch zone {
	case models.Zone1, models.Zone2:
		fraction = full / 2
		maxFraction = k.cfg.HalfKellyCap
	case models.Zone3:
		fraction = full / 4
		maxFraction = k.cfg.QuarterKellyCap
	default:
		return 0
	}

	if fraction > maxFraction {
		fraction = maxFraction
	}
	return fraction * portfolioValue
}
