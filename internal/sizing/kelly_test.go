package sizing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"outcome-trader/internal/models"
)

func TestFullKellyFraction(t *testing.T) {
	k := NewKellySizer(DefaultConfig())

	testCases := []struct {
		name    string
		winProb float64
		edge    float64
		want    float64
	}{
		{"edge below minimum sizes to zero", 0.90, 0.04, 0},
		{"coin flip with edge", 0.50, 0.10, (0.50*1.10 - 0.50) / 1.10},
		{"reference case", 0.65, 0.10, (0.65*1.10 - 0.35) / 1.10},
		{"negative expectancy clamps to zero", 0.40, 0.10, 0},
		{"invalid probability sizes to zero", 1.0, 0.10, 0},
		{"zero probability sizes to zero", 0, 0.10, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := k.FullKellyFraction(tc.winProb, tc.edge)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("FullKellyFraction(%v, %v) = %v, want %v", tc.winProb, tc.edge, got, tc.want)
			}
		})
	}
}

func TestSizeZoneFractions(t *testing.T) {
	k := NewKellySizer(DefaultConfig())
	const portfolio = 10_000.0

	full := k.FullKellyFraction(0.65, 0.10)

	t.Run("zone 1 uses half kelly", func(t *testing.T) {
		got := k.Size(models.Zone1, 0.65, 0.10, portfolio)
		want := full / 2 * portfolio
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("zone 1 size = %v, want %v", got, want)
		}
	})

	t.Run("zone 3 uses quarter kelly", func(t *testing.T) {
		got := k.Size(models.Zone3, 0.65, 0.10, portfolio)
		want := full / 4 * portfolio
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("zone 3 size = %v, want %v", got, want)
		}
	})

	t.Run("zones 4 and 5 size to zero", func(t *testing.T) {
		if got := k.Size(models.Zone4, 0.99, 0.90, portfolio); got != 0 {
			t.Errorf("zone 4 size = %v, want 0", got)
		}
		if got := k.Size(models.Zone5, 0.99, 0.90, portfolio); got != 0 {
			t.Errorf("zone 5 size = %v, want 0", got)
		}
	})

	t.Run("caps bind on extreme inputs", func(t *testing.T) {
		// Near-certain win: half Kelly would exceed the 50% cap.
		got := k.Size(models.Zone1, 0.999, 20, portfolio)
		if got > DefaultConfig().HalfKellyCap*portfolio+1e-9 {
			t.Errorf("zone 1 size %v exceeds cap", got)
		}
		got = k.Size(models.Zone3, 0.999, 20, portfolio)
		if got > DefaultConfig().QuarterKellyCap*portfolio+1e-9 {
			t.Errorf("zone 3 size %v exceeds cap", got)
		}
	})
}

// Properties: sizing is bounded by the zone cap and is monotone in both
// edge and win probability.
func TestSizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	k := NewKellySizer(DefaultConfig())

	properties.Property("size never exceeds the zone cap", prop.ForAll(
		func(winProb, edge, portfolio float64) bool {
			for _, zone := range []models.Zone{models.Zone1, models.Zone2, models.Zone3, models.Zone4, models.Zone5} {
				zoneCap := 0.0
				switch zone {
				case models.Zone1, models.Zone2:
					zoneCap = DefaultConfig().HalfKellyCap
				case models.Zone3:
					zoneCap = DefaultConfig().QuarterKellyCap
				}
				if k.Size(zone, winProb, edge, portfolio) > zoneCap*portfolio+1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 5),
		gen.Float64Range(1, 1e7),
	))

	properties.Property("edge below minimum always sizes to zero", prop.ForAll(
		func(winProb, edge, portfolio float64) bool {
			return k.Size(models.Zone1, winProb, edge, portfolio) == 0
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 0.0499),
		gen.Float64Range(1, 1e7),
	))

	properties.Property("size is monotone in edge", prop.ForAll(
		func(winProb, e1, e2 float64) bool {
			lo, hi := math.Min(e1, e2), math.Max(e1, e2)
			return k.Size(models.Zone1, winProb, lo, 10_000) <= k.Size(models.Zone1, winProb, hi, 10_000)+1e-9
		},
		gen.Float64Range(0.01, 0.99),
		gen.Float64Range(0.05, 3),
		gen.Float64Range(0.05, 3),
	))

	properties.Property("size is monotone in win probability", prop.ForAll(
		func(p1, p2, edge float64) bool {
			lo, hi := math.Min(p1, p2), math.Max(p1, p2)
			return k.Size(models.Zone1, lo, edge, 10_000) <= k.Size(models.Zone1, hi, edge, 10_000)+1e-9
		},
		gen.Float64Range(0.01, 0.99),
		gen.Float64Range(0.01, 0.99),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}
