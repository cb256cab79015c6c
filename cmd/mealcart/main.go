package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"mealcart/internal/app"
	"mealcart/internal/config"
	"mealcart/internal/logger"
	"mealcart/internal/planner"
	"mealcart/internal/shopping"

	"go.uber.org/zap"
)

const cliUser = "cli"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.App, command string, args []string) error {
	switch command {
	case "plan":
		defaults := application.DefaultPreferences()
		fs := flag.NewFlagSet("plan", flag.ExitOnError)
		adults := fs.Int("adults", defaults.Adults, "Number of adults")
		children := fs.Int("children", defaults.Children, "Number of children")
		diet := fs.String("diet", defaults.Diet, "Diet, e.g. vegetarian")
		notes := fs.String("notes", "", "Free-form notes for the planner")
		_ = fs.Parse(args)

		prefs := planner.Preferences{Adults: *adults, Children: *children, Diet: *diet, Notes: *notes}
		plan, list, err := application.Run(ctx, cliUser, prefs)
		if err != nil {
			return err
		}
		printPlan(plan)
		printList(list.Items)
		fmt.Printf("\nPlan ID: %d\n", plan.ID)

	case "list":
		id, err := planIDArg(args)
		if err != nil {
			return err
		}
		list, err := application.BuildShoppingList(ctx, "", id)
		if err != nil {
			return err
		}
		printList(list.Items)

	case "cart":
		id, err := planIDArg(args)
		if err != nil {
			return err
		}
		report, err := application.FillCart(ctx, "", id)
		fmt.Printf("Cart run %s: %d added, %d failed\n", report.RunID, report.Added, report.Failed)
		for _, r := range report.Results {
			if !r.Added {
				fmt.Printf("  - %s: %s\n", r.Name, r.Error)
			}
		}
		return err

	case "runs":
		id, err := planIDArg(args)
		if err != nil {
			return err
		}
		runs, err := application.CartRuns(ctx, "", id)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Printf("No cart runs for plan %d.\n", id)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %d added, %d failed\n",
				r.Report.FinishedAt.Local().Format("2006-01-02 15:04"), r.Report.RunID, r.Report.Added, r.Report.Failed)
		}

	case "publish":
		id, err := planIDArg(args)
		if err != nil {
			return err
		}
		post, err := application.PublishPlan(ctx, "", id)
		if err != nil {
			return err
		}
		fmt.Printf("Published post %s %s\n", post.ID, post.URL)

	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		_ = fs.Parse(args)

		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

func planIDArg(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing plan ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid plan ID %q: %w", args[0], err)
	}
	return id, nil
}

func printPlan(plan *planner.WeeklyPlan) {
	fmt.Println("=== WEEKLY MEAL PLAN ===")
	labels := [3]string{"Breakfast", "Lunch", "Dinner"}
	for _, day := range plan.Days {
		fmt.Println(day.Day)
		for i, r := range day.Meals() {
			if !r.IsEmpty() {
				fmt.Printf("  %-10s %s\n", labels[i]+":", r.Title)
			}
		}
	}
}

func printList(items []shopping.AggregatedIngredient) {
	fmt.Println("\n=== SHOPPING LIST ===")
	for _, group := range shopping.GroupByAisle(items) {
		fmt.Printf("%s\n", group.Aisle)
		for _, item := range group.Items {
			fmt.Printf("  - %s\n", shopping.FormatItem(item))
		}
	}
}

func printUsage() {
	fmt.Println("Usage: mealcart <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan [-adults N] [-children N] [-diet D]   Generate next week's plan and shopping list")
	fmt.Println("  list <plan id>                             Rebuild and print a plan's shopping list")
	fmt.Println("  cart <plan id>                             Add a plan's shopping list to the Walmart cart")
	fmt.Println("  runs <plan id>                             List past cart runs of a plan")
	fmt.Println("  publish <plan id>                          Publish a plan to Ghost")
	fmt.Println("  metrics-cleanup [-days N]                  Remove old metric records")
}
