package models

import "github.com/shopspring/decimal"

// Zone is a risk bucket derived from a price's distance to fair value (0.50).
// Zone 1 sits near fair value, Zone 5 covers the extreme tails. Directional
// orders are forbidden in zones 4 and 5.
type Zone int

const (
	Zone1 Zone = 1
	Zone2 Zone = 2
	Zone3 Zone = 3
	Zone4 Zone = 4
	Zone5 Zone = 5
)

// Distance thresholds for zone classification. A price within 0.35 of fair
// value stays in Zone 1; only the extreme tails reach zones 4-5.
var (
	zone1Max = decimal.RequireFromString("0.35")
	zone2Max = decimal.RequireFromString("0.40")
	zone3Max = decimal.RequireFromString("0.45")
	zone4Max = decimal.RequireFromString("0.48")
)

// ZoneForPrice classifies a price into its risk zone.
func ZoneForPrice(p Price) Zone {
	d := p.DistanceFromFair()
	switch {
	case d.LessThanOrEqual(zone1Max):
		return Zone1
	case d.LessThanOrEqual(zone2Max):
		return Zone2
	case d.LessThanOrEqual(zone3Max):
		return Zone3
	case d.LessThanOrEqual(zone4Max):
		return Zone4
	default:
		return Zone5
	}
}

// Valid reports whether z is one of the five defined zones.
func (z Zone) Valid() bool {
	return z >= Zone1 && z <= Zone5
}

// AllowsDirectional reports whether directional orders may rest in this zone.
func (z Zone) AllowsDirectional() bool {
	return z >= Zone1 && z <= Zone3
}

func (z Zone) String() string {
	switch z {
	case Zone1:
		return "ZONE_1"
	case Zone2:
		return "ZONE_2"
	case Zone3:
		return "ZONE_3"
	case Zone4:
		return "ZONE_4"
	case Zone5:
		return "ZONE_5"
	default:
		return "ZONE_UNKNOWN"
	}
}
