package shopping

import "math"

// Base units that convertible quantities are summed in.
const (
	UnitCup    = "cup"
	UnitGram   = "g"
	UnitPound  = "lb"
	UnitQuarts = "quarts"
)

const (
	cupsPerQuart  = 4.0
	gramsPerPound = 453.59

	// roundingEpsilon absorbs binary floating-point noise (0.1+0.2 style) so
	// that an exact quarter cup does not round up to half a cup.
	roundingEpsilon = 1e-9
)

// toCups and toGrams hold the factor converting one unit into the base unit
// of its family.
var (
	toCups = map[string]float64{
		"tbsp": 1.0 / 16,
		"tsp":  1.0 / 48,
		"cup":  1,
		"ml":   1.0 / 240,
		"l":    4.227,
	}
	toGrams = map[string]float64{
		"oz": 28.35,
		"lb": gramsPerPound,
		"g":  1,
		"kg": 1000,
	}
)

// ToBase converts amount of a canonical unit into cups or grams. Units that
// belong to neither family are returned unchanged.
func ToBase(amount float64, unit string) (float64, string) {
	if f, ok := toCups[unit]; ok {
		return amount * f, UnitCup
	}
	if f, ok := toGrams[unit]; ok {
		return amount * f, UnitGram
	}
	return amount, unit
}

// Expand re-expresses large base quantities in a coarser shopping unit:
// four or more cups become quarts and a pound or more of grams becomes pounds.
// Only one step is ever taken.
func Expand(amount float64, unit string) (float64, string) {
	switch {
	case unit == UnitCup && amount >= cupsPerQuart:
		return amount / cupsPerQuart, UnitQuarts
	case unit == UnitGram && amount >= gramsPerPound:
		return amount / gramsPerPound, UnitPound
	}
	return amount, unit
}

// RoundAmount rounds up to a shopping-practical step for unit: quarter cups
// and pounds, 10 g, whole countable items, otherwise two decimals.
func RoundAmount(amount float64, unit string) float64 {
	switch unit {
	case UnitCup, UnitPound:
		return ceilTo(amount, 0.25)
	case UnitGram:
		return ceilTo(amount, 10)
	case "clove", "slice", "":
		return ceilTo(amount, 1)
	default:
		return ceilTo(amount, 0.01)
	}
}

func ceilTo(amount, step float64) float64 {
	r := math.Ceil(amount/step-roundingEpsilon) * step
	if r <= 0 {
		return 0
	}
	// Re-round to kill representation error introduced by the multiplication (e.g. 0.29*100).
	return math.Round(r*1e6) / 1e6
}
