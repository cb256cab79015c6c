package shopping

import (
	"sort"
	"strings"

	"mealcart/internal/planner"
	"mealcart/internal/recipe"
)

// Aggregate turns a weekly plan into a deduplicated shopping list sorted by
// aisle. Lines are merged by NormalizeName in plan order (days, then
// breakfast, lunch and dinner, then ingredient order), converted to cups or
// grams where possible, re-expanded to quarts or pounds when large and
// finally rounded up to a buyable amount.
//
// Aggregate is total: malformed lines degrade to best-effort output and no
// line is ever dropped from OriginalStrings.
func Aggregate(plan planner.WeeklyPlan) []AggregatedIngredient {
	var lines []recipe.Ingredient
	for _, day := range plan.Days {
		for _, meal := range day.Meals() {
			lines = append(lines, meal.Ingredients...)
		}
	}
	return AggregateIngredients(lines)
}

// AggregateIngredients applies the aggregation to a flat list of lines taken
// in the given order.
func AggregateIngredients(lines []recipe.Ingredient) []AggregatedIngredient {
	items := merge(lines)
	for i := range items {
		items[i].Amount, items[i].Unit = Expand(items[i].Amount, items[i].Unit)
		items[i].Amount = RoundAmount(items[i].Amount, items[i].Unit)
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Aisle < items[b].Aisle
	})
	return items
}

// merge sums lines by normalized name without re-expansion or rounding.
// Output keeps first-encounter order.
func merge(lines []recipe.Ingredient) []AggregatedIngredient {
	items := make([]AggregatedIngredient, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		key := NormalizeName(line.Name)
		amount, unit := ToBase(line.Amount, NormalizeUnit(line.Unit))

		i, seen := index[key]
		if !seen {
			aisle := line.Aisle
			if strings.TrimSpace(aisle) == "" {
				aisle = recipe.DefaultAisle
			}
			index[key] = len(items)
			items = append(items, AggregatedIngredient{
				Name:            line.Name,
				Amount:          amount,
				Unit:            unit,
				Aisle:           aisle,
				OriginalStrings: []string{line.Original},
			})
			continue
		}

		existing := &items[i]
		existingAmount, existingUnit := ToBase(existing.Amount, existing.Unit)
		if existingUnit == unit {
			existing.Amount = existingAmount + amount
			existing.Unit = existingUnit
		} else {
			// Incompatible families: the raw line amount is added and the
			// first-seen unit kept. Known to be lossy.
			existing.Amount += line.Amount
		}
		existing.OriginalStrings = append(existing.OriginalStrings, line.Original)
	}
	return items
}
