package planner

import (
	"time"

	"mealcart/internal/recipe"
)

// DaysPerWeek is the maximum number of days a plan can hold.
const DaysPerWeek = 7

// Meal identifies one of the three daily slots.
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// DayPlan holds the three meals planned for a single day.
type DayPlan struct {
	Day       string        `json:"day"`
	Breakfast recipe.Recipe `json:"breakfast"`
	Lunch     recipe.Recipe `json:"lunch"`
	Dinner    recipe.Recipe `json:"dinner"`
}

// Meals returns the day's recipes in breakfast, lunch, dinner order.
func (d DayPlan) Meals() [3]recipe.Recipe {
	return [3]recipe.Recipe{d.Breakfast, d.Lunch, d.Dinner}
}

// WeeklyPlan is a full week of meals.
type WeeklyPlan struct {
	ID          int64       `json:"id,omitempty"` // Database ID for referencing
	WeekStart   time.Time   `json:"week_start"`
	Preferences Preferences `json:"preferences"`
	Days        []DayPlan   `json:"days"`
}

// Normalize trims the plan to DaysPerWeek days and normalizes every recipe so
// that consumers can rely on default-filled ingredient fields.
func (p *WeeklyPlan) Normalize() {
	if len(p.Days) > DaysPerWeek {
		p.Days = p.Days[:DaysPerWeek]
	}
	for i := range p.Days {
		d := &p.Days[i]
		d.Breakfast = d.Breakfast.Normalize()
		d.Lunch = d.Lunch.Normalize()
		d.Dinner = d.Dinner.Normalize()
	}
}

// RecipeCount returns the number of non-empty meals in the plan.
func (p *WeeklyPlan) RecipeCount() int {
	n := 0
	for _, d := range p.Days {
		for _, r := range d.Meals() {
			if !r.IsEmpty() {
				n++
			}
		}
	}
	return n
}
