package telegram

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mealcart/internal/cart"
	"mealcart/internal/metrics"
	"mealcart/internal/planner"
	"mealcart/internal/recipe"
	"mealcart/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	actionRedo = "redo"
	actionNext = "next"

	// Telegram rejects callback data longer than 64 bytes.
	maxCallbackData = 64
)

// encodeCallback packs the action and household into inline button data as
// "action|adults|children|diet".
func encodeCallback(action string, prefs planner.Preferences) string {
	data := fmt.Sprintf("%s|%d|%d|", action, prefs.Adults, prefs.Children)
	diet := prefs.Diet
	for diet != "" && len(data)+len(diet) > maxCallbackData {
		r := []rune(diet)
		diet = string(r[:len(r)-1])
	}
	return data + diet
}

func decodeCallback(data string, defaults planner.Preferences) (string, planner.Preferences, bool) {
	parts := strings.SplitN(data, "|", 4)
	if len(parts) != 4 || (parts[0] != actionRedo && parts[0] != actionNext) {
		return "", defaults, false
	}
	adults, err1 := strconv.Atoi(parts[1])
	children, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return "", defaults, false
	}
	prefs := defaults
	prefs.Adults, prefs.Children, prefs.Diet = adults, children, parts[3]
	prefs.Notes = ""
	return parts[0], prefs, true
}

func escapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}

var mealLabels = [3]string{"🍳", "🥪", "🍽"}

func formatPlan(plan *planner.WeeklyPlan) string {
	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Weekly Meal Plan* (#%d)\n", plan.ID)
	fmt.Fprintf(&pb, "_%d adults, %d children, %s_\n\n",
		plan.Preferences.Adults, plan.Preferences.Children, escapeMarkdown(plan.Preferences.DietOrDefault()))

	for _, day := range plan.Days {
		fmt.Fprintf(&pb, "*%s*\n", escapeMarkdown(day.Day))
		meals := day.Meals()
		for i, r := range meals {
			if r.IsEmpty() {
				continue
			}
			fmt.Fprintf(&pb, "%s %s%s\n", mealLabels[i], escapeMarkdown(r.Title), prepTime(r))
		}
		pb.WriteString("\n")
	}
	return strings.TrimRight(pb.String(), "\n")
}

func prepTime(r recipe.Recipe) string {
	if r.PrepTime == "" {
		return ""
	}
	return " (" + escapeMarkdown(r.PrepTime) + ")"
}

func formatShoppingList(planID int64, items []shopping.AggregatedIngredient) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	if len(items) == 0 {
		sb.WriteString("\n_Nothing to buy_")
		return sb.String()
	}
	for _, group := range shopping.GroupByAisle(items) {
		fmt.Fprintf(&sb, "\n*%s*\n", escapeMarkdown(group.Aisle))
		for _, item := range group.Items {
			fmt.Fprintf(&sb, "• %s\n", escapeMarkdown(shopping.FormatItem(item)))
		}
	}
	fmt.Fprintf(&sb, "\nSend /cart %d to add these to your cart.", planID)
	return sb.String()
}

func formatCartReport(report cart.Report, runErr error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Cart updated*: %d added, %d failed\n", report.Added, report.Failed)
	for _, r := range report.Results {
		if r.Added {
			continue
		}
		fmt.Fprintf(&sb, "• %s: %s\n", escapeMarkdown(r.Name), escapeMarkdown(r.Error))
	}
	if runErr != nil {
		sb.WriteString("\n⚠️ The run was interrupted before every item was tried.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

const maxRunsShown = 5

func formatRunHistory(planID int64, runs []cart.RunRecord) string {
	if len(runs) == 0 {
		return fmt.Sprintf("No cart runs for plan #%d yet. Send /cart %d to start one.", planID, planID)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 *Cart runs for plan #%d*\n", planID)
	for i, r := range runs {
		if i == maxRunsShown {
			fmt.Fprintf(&sb, "_...and %d older_\n", len(runs)-maxRunsShown)
			break
		}
		fmt.Fprintf(&sb, "• %s: %d added, %d failed\n",
			r.Report.FinishedAt.UTC().Format("2006-01-02 15:04"), r.Report.Added, r.Report.Failed)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatPlanList(plans []planner.StoredPlan) string {
	if len(plans) == 0 {
		return "You have no plans yet."
	}
	var sb strings.Builder
	sb.WriteString("🗂 *Recent Plans*\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "• #%d, week of %s (%d meals)\n", p.ID, p.Plan.WeekStart.Format("2006-01-02"), p.Plan.RecipeCount())
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %s heap / %s sys (%d GCs)\n", health.HeapAlloc, health.Sys, health.NumGC)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s in %d files\n", health.DataSize, health.DataFiles)
	return sb.String()
}

func dataDir(dbPath string) string {
	if dbPath == "" {
		return "data"
	}
	return filepath.Dir(dbPath)
}
