package shopping

import "strings"

// preparationDescriptors are stripped from ingredient names when deriving the
// deduplication key. Order matters: each entry is tried once as a leading and
// once as a trailing word, in this order.
var preparationDescriptors = []string{"fresh", "dried", "chopped", "minced", "sliced", "diced"}

// unitAliases maps spellings and plurals to canonical abbreviations.
var unitAliases = map[string]string{
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"cup":         "cup",
	"cups":        "cup",
	"ounce":       "oz",
	"ounces":      "oz",
	"pound":       "lb",
	"pounds":      "lb",
	"gram":        "g",
	"grams":       "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"milliliter":  "ml",
	"milliliters": "ml",
	"liter":       "l",
	"liters":      "l",
	"clove":       "clove",
	"cloves":      "clove",
	"slice":       "slice",
	"slices":      "slice",
}

// NormalizeName derives the key under which ingredient lines are merged. The
// key is never shown to users: "Fresh Chopped Onion" and "diced onion" both
// become "onion". No stemming or synonym handling is attempted.
func NormalizeName(name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")

	for _, d := range preparationDescriptors {
		key = strings.TrimPrefix(key, d+" ")
		key = strings.TrimSuffix(key, " "+d)
	}
	return key
}

// NormalizeUnit maps a free-text unit to its canonical abbreviation. Unknown
// units are returned lower-cased and trimmed.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}
