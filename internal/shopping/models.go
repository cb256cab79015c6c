package shopping

import "time"

// AggregatedIngredient is one line of the shopping list: every recipe line
// that shares a normalized name, summed and rounded to a purchasable amount.
type AggregatedIngredient struct {
	Name            string   `json:"name"`
	Amount          float64  `json:"amount"`
	Unit            string   `json:"unit"`
	Aisle           string   `json:"aisle"`
	OriginalStrings []string `json:"original_strings"`
}

// ShoppingList represents a shopping list for a meal plan.
type ShoppingList struct {
	ID         int64                  `json:"id"`
	UserID     string                 `json:"user_id"`
	MealPlanID int64                  `json:"meal_plan_id"`
	Items      []AggregatedIngredient `json:"items"`
	CreatedAt  time.Time              `json:"created_at"`
}
