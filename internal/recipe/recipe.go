package recipe

import (
	"fmt"
	"strings"
)

// DefaultAisle is used for ingredients the meal source did not categorize.
const DefaultAisle = "Other"

// Ingredient is a single line item of a recipe as produced by the meal source.
type Ingredient struct {
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Aisle    string  `json:"aisle"`
}

// Recipe is a named dish with its ingredient list. Ingredient order carries no
// meaning for shopping but is preserved for display.
type Recipe struct {
	Title        string       `json:"title"`
	Servings     int          `json:"servings,omitempty"`
	PrepTime     string       `json:"prep_time,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions,omitempty"`
}

// Normalize fills absent fields with their defaults so that downstream code
// never has to special-case them: blank aisles become DefaultAisle, negative
// amounts become zero, and a missing original text is rebuilt from the
// structured fields.
func (i Ingredient) Normalize() Ingredient {
	i.Name = strings.TrimSpace(i.Name)
	i.Unit = strings.TrimSpace(i.Unit)
	i.Aisle = strings.TrimSpace(i.Aisle)
	i.Original = strings.TrimSpace(i.Original)

	if i.Amount < 0 {
		i.Amount = 0
	}
	if i.Aisle == "" {
		i.Aisle = DefaultAisle
	}
	if i.Original == "" {
		i.Original = i.describe()
	}
	return i
}

func (i Ingredient) describe() string {
	parts := make([]string, 0, 3)
	if i.Amount > 0 {
		parts = append(parts, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", i.Amount), "0"), "."))
	}
	if i.Unit != "" {
		parts = append(parts, i.Unit)
	}
	parts = append(parts, i.Name)
	return strings.Join(parts, " ")
}

// Normalize returns a copy of the recipe with every ingredient normalized.
// Lines with neither a name nor original text are dropped; a nameless line
// that still has original text is kept so it reaches the shopping list.
func (r Recipe) Normalize() Recipe {
	r.Title = strings.TrimSpace(r.Title)
	ingredients := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" && strings.TrimSpace(ing.Original) == "" {
			continue
		}
		ingredients = append(ingredients, ing.Normalize())
	}
	r.Ingredients = ingredients
	return r
}

// IsEmpty reports whether the recipe carries neither a title nor ingredients,
// which is how a skipped meal is represented.
func (r Recipe) IsEmpty() bool {
	return r.Title == "" && len(r.Ingredients) == 0
}
