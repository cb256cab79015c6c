package ghost

import (
	"fmt"
	"html"
	"strings"

	"mealcart/internal/planner"
	"mealcart/internal/recipe"
	"mealcart/internal/shopping"
)

// PlanTitle is the post title used for a published plan.
func PlanTitle(plan *planner.WeeklyPlan) string {
	if plan.WeekStart.IsZero() {
		return "Weekly Meal Plan"
	}
	return "Meal Plan: week of " + plan.WeekStart.Format("January 2, 2006")
}

// PlanExcerpt summarizes the household and plan size for the post excerpt.
func PlanExcerpt(plan *planner.WeeklyPlan) string {
	prefs := plan.Preferences
	return fmt.Sprintf("%d days, %d recipes for %d people (%s)",
		len(plan.Days), plan.RecipeCount(), prefs.People(), prefs.DietOrDefault())
}

// PlanDraft builds the post for a plan and its shopping list.
func PlanDraft(plan *planner.WeeklyPlan, items []shopping.AggregatedIngredient, publish bool) Draft {
	return Draft{
		Title:   PlanTitle(plan),
		HTML:    RenderPlanHTML(plan, items),
		Excerpt: PlanExcerpt(plan),
		Tags:    []string{PlanTag},
		Publish: publish,
	}
}

// RenderPlanHTML renders the plan and its shopping list as post HTML.
func RenderPlanHTML(plan *planner.WeeklyPlan, items []shopping.AggregatedIngredient) string {
	var sb strings.Builder

	prefs := plan.Preferences
	fmt.Fprintf(&sb, "<p><i>%d adults, %d children · %s</i></p>",
		prefs.Adults, prefs.Children, html.EscapeString(prefs.DietOrDefault()))

	for _, day := range plan.Days {
		fmt.Fprintf(&sb, "<h2>%s</h2>", html.EscapeString(day.Day))
		meals := day.Meals()
		for i, label := range mealLabels {
			writeRecipe(&sb, label, meals[i])
		}
	}

	if len(items) > 0 {
		sb.WriteString("<hr><h2>Shopping List</h2>")
		for _, group := range shopping.GroupByAisle(items) {
			fmt.Fprintf(&sb, "<h3>%s</h3><ul>", html.EscapeString(group.Aisle))
			for _, item := range group.Items {
				fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(shopping.FormatItem(item)))
			}
			sb.WriteString("</ul>")
		}
	}
	return sb.String()
}

var mealLabels = [3]string{"Breakfast", "Lunch", "Dinner"}

func writeRecipe(sb *strings.Builder, label string, r recipe.Recipe) {
	if r.IsEmpty() {
		return
	}
	fmt.Fprintf(sb, "<h3>%s: %s</h3>", label, html.EscapeString(r.Title))

	if len(r.Ingredients) > 0 {
		sb.WriteString("<ul>")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(sb, "<li>%s</li>", html.EscapeString(ing.Original))
		}
		sb.WriteString("</ul>")
	}
	if len(r.Instructions) > 0 {
		sb.WriteString("<ol>")
		for _, step := range r.Instructions {
			fmt.Fprintf(sb, "<li>%s</li>", html.EscapeString(step))
		}
		sb.WriteString("</ol>")
	}
}
