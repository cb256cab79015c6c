package shopping

import (
	"strconv"
	"strings"
)

// FormatItem renders an item as "<amount> <unit> <name>", e.g. "0.25 cup milk".
// A zero amount or empty unit is omitted.
func FormatItem(item AggregatedIngredient) string {
	parts := make([]string, 0, 3)
	if item.Amount > 0 {
		parts = append(parts, strconv.FormatFloat(item.Amount, 'f', -1, 64))
	}
	if item.Unit != "" {
		parts = append(parts, item.Unit)
	}
	parts = append(parts, item.Name)
	return strings.Join(parts, " ")
}

// AisleGroup is a run of items that share an aisle.
type AisleGroup struct {
	Aisle string
	Items []AggregatedIngredient
}

// GroupByAisle splits an aisle-sorted list into consecutive groups.
func GroupByAisle(items []AggregatedIngredient) []AisleGroup {
	var groups []AisleGroup
	for _, item := range items {
		if n := len(groups); n > 0 && groups[n-1].Aisle == item.Aisle {
			groups[n-1].Items = append(groups[n-1].Items, item)
			continue
		}
		groups = append(groups, AisleGroup{Aisle: item.Aisle, Items: []AggregatedIngredient{item}})
	}
	return groups
}
