package feed

import (
	"math/rand"
	"time"

	"outcome-trader/internal/models"
)

// SyntheticConfig parameterizes a deterministic random walk over outcome
// prices. The same seed always yields the same series.
type SyntheticConfig struct {
	Start     float64
	StepBps   float64 // per-tick standard deviation, in basis points of 1.00
	Ticks     int
	Interval  time.Duration
	StartTime time.Time
	Seed      int64
}

// DefaultSyntheticConfig returns a one-day walk at one tick per minute.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Start:     0.50,
		StepBps:   50,
		Ticks:     1440,
		Interval:  time.Minute,
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:      1,
	}
}

// Synthetic generates a seeded random walk clamped to the valid price range.
func Synthetic(cfg SyntheticConfig) []models.Tick {
	rng := rand.New(rand.NewSource(cfg.Seed))
	ticks := make([]models.Tick, 0, cfg.Ticks)
	p := cfg.Start
	ts := cfg.StartTime
	for i := 0; i < cfg.Ticks; i++ {
		p += rng.NormFloat64() * cfg.StepBps / 10_000
		if p < 0.01 {
			p = 0.01
		}
		if p > 0.99 {
			p = 0.99
		}
		price, err := models.NewPriceFromFloat(p)
		if err != nil {
			continue
		}
		ticks = append(ticks, models.Tick{Timestamp: ts, Price: price})
		ts = ts.Add(cfg.Interval)
	}
	return ticks
}

// Ramp generates a tick series that moves linearly between price levels,
// spending an equal number of ticks on each leg. Useful for scripted
// scenario runs where the exact path matters.
func Ramp(start time.Time, interval time.Duration, ticksPerLeg int, levels ...float64) []models.Tick {
	if len(levels) < 2 || ticksPerLeg < 1 {
		return nil
	}
	var ticks []models.Tick
	ts := start
	for leg := 0; leg < len(levels)-1; leg++ {
		from, to := levels[leg], levels[leg+1]
		for i := 0; i < ticksPerLeg; i++ {
			frac := float64(i+1) / float64(ticksPerLeg)
			price, err := models.NewPriceFromFloat(from + (to-from)*frac)
			if err != nil {
				continue
			}
			ticks = append(ticks, models.Tick{Timestamp: ts, Price: price})
			ts = ts.Add(interval)
		}
	}
	return ticks
}
