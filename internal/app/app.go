package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealcart/internal/cart"
	"mealcart/internal/config"
	"mealcart/internal/database"
	"mealcart/internal/ghost"
	"mealcart/internal/metrics"
	"mealcart/internal/planner"
	"mealcart/internal/shared"
	"mealcart/internal/shopping"

	"go.uber.org/zap"
)

var (
	// ErrPlanNotFound is returned when a meal plan ID is unknown or owned by
	// another user.
	ErrPlanNotFound = errors.New("meal plan not found")
	// ErrPublishingDisabled is returned by PublishPlan when no Ghost client is configured.
	ErrPublishingDisabled = errors.New("publishing is not configured")
)

// PlanGenerator produces a weekly plan for a household.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prefs planner.Preferences, weekStart time.Time) (*planner.WeeklyPlan, shared.AgentMeta, error)
}

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	planGen     PlanGenerator
	filler      cart.Filler
	ghostClient ghost.Client

	planRepo     *planner.PlanRepository
	listRepo     *shopping.Repository
	cartRunRepo  *cart.RunRepository
	metricsStore *metrics.Store

	now func() time.Time
}

// NewApp creates and initializes a new App instance. ghostClient may be nil
// when publishing is not configured.
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	planGen PlanGenerator,
	filler cart.Filler,
	ghostClient ghost.Client,
) *App {
	return &App{
		cfg:          cfg,
		logger:       logger.Named("app"),
		planGen:      planGen,
		filler:       filler,
		ghostClient:  ghostClient,
		planRepo:     planner.NewPlanRepository(db.SQL),
		listRepo:     shopping.NewRepository(db.SQL),
		cartRunRepo:  cart.NewRunRepository(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),
		now:          time.Now,
	}
}

// DefaultPreferences returns the household configured through the environment.
func (a *App) DefaultPreferences() planner.Preferences {
	return planner.Preferences{
		Adults:   a.cfg.DefaultAdults,
		Children: a.cfg.DefaultChildren,
		Diet:     a.cfg.DefaultDiet,
	}
}

// NextWeek returns the week a new plan is generated for by default.
func (a *App) NextWeek() time.Time {
	return planner.GetNextMonday(a.now())
}

// GenerateMealPlan generates and stores a plan for the coming week.
func (a *App) GenerateMealPlan(ctx context.Context, userID string, prefs planner.Preferences) (*planner.WeeklyPlan, error) {
	return a.GenerateMealPlanForWeek(ctx, userID, prefs, a.NextWeek())
}

// GenerateMealPlanForWeek generates and stores a plan for the week starting at weekStart.
func (a *App) GenerateMealPlanForWeek(ctx context.Context, userID string, prefs planner.Preferences, weekStart time.Time) (*planner.WeeklyPlan, error) {
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}

	plan, meta, err := a.planGen.GeneratePlan(ctx, prefs, weekStart)
	// Usage is recorded even for failed generations.
	a.recordMeta(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	if _, err := a.planRepo.Save(ctx, userID, plan); err != nil {
		return nil, fmt.Errorf("failed to save meal plan: %w", err)
	}
	a.logger.Info("meal plan saved",
		zap.Int64("plan_id", plan.ID),
		zap.String("user_id", userID),
		zap.String("week_start", database.FormatDate(weekStart)))
	return plan, nil
}

// PlanExistsForWeek reports whether the user already planned the week starting at weekStart.
func (a *App) PlanExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	return a.planRepo.ExistsForWeek(ctx, userID, weekStart)
}

// RecentPlans lists the user's latest plans, newest first.
func (a *App) RecentPlans(ctx context.Context, userID string, limit int) ([]planner.StoredPlan, error) {
	return a.planRepo.ListRecentByUserID(ctx, userID, limit)
}

// GetPlan loads a stored plan. An empty userID skips the ownership check.
func (a *App) GetPlan(ctx context.Context, userID string, planID int64) (*planner.StoredPlan, error) {
	stored, err := a.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if stored == nil || (userID != "" && stored.UserID != userID) {
		return nil, fmt.Errorf("plan %d: %w", planID, ErrPlanNotFound)
	}
	return stored, nil
}

// BuildShoppingList aggregates a stored plan into its shopping list and
// saves it, replacing any earlier list of the same plan.
func (a *App) BuildShoppingList(ctx context.Context, userID string, planID int64) (*shopping.ShoppingList, error) {
	stored, err := a.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	list := &shopping.ShoppingList{
		UserID:     stored.UserID,
		MealPlanID: planID,
		Items:      shopping.Aggregate(*stored.Plan),
		CreatedAt:  a.now().UTC(),
	}
	if _, err := a.listRepo.Save(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to save shopping list: %w", err)
	}
	a.logger.Info("shopping list built", zap.Int64("plan_id", planID), zap.Int("items", len(list.Items)))
	return list, nil
}

// ShoppingList returns the stored list for a plan, building it on first use.
func (a *App) ShoppingList(ctx context.Context, userID string, planID int64) (*shopping.ShoppingList, error) {
	if _, err := a.GetPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	list, err := a.listRepo.GetByMealPlanID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	if list != nil {
		return list, nil
	}
	return a.BuildShoppingList(ctx, userID, planID)
}

// FillCart places the plan's shopping list into the retailer cart and
// stores the run report. A run interrupted by ctx still stores the partial report.
func (a *App) FillCart(ctx context.Context, userID string, planID int64) (cart.Report, error) {
	list, err := a.ShoppingList(ctx, userID, planID)
	if err != nil {
		return cart.Report{}, err
	}

	report, fillErr := a.filler.Fill(ctx, list.Items)
	if report.RunID != "" {
		if err := a.cartRunRepo.Save(context.WithoutCancel(ctx), planID, report); err != nil {
			a.logger.Warn("failed to save cart run", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}
	if fillErr != nil {
		return report, fmt.Errorf("failed to fill cart: %w", fillErr)
	}
	return report, nil
}

// CartRuns returns the stored cart runs of a plan owned by userID, newest
// first.
func (a *App) CartRuns(ctx context.Context, userID string, planID int64) ([]cart.RunRecord, error) {
	if _, err := a.GetPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	runs, err := a.cartRunRepo.ListByMealPlanID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart runs: %w", err)
	}
	return runs, nil
}

// PublishPlan posts the plan and its shopping list to Ghost.
func (a *App) PublishPlan(ctx context.Context, userID string, planID int64) (*ghost.Post, error) {
	if a.ghostClient == nil {
		return nil, ErrPublishingDisabled
	}
	stored, err := a.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	list, err := a.ShoppingList(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	post, err := a.ghostClient.CreatePost(ctx, ghost.PlanDraft(stored.Plan, list.Items, true))
	if err != nil {
		return nil, fmt.Errorf("failed to publish plan: %w", err)
	}
	a.logger.Info("plan published", zap.Int64("plan_id", planID), zap.String("post_id", post.ID))
	return post, nil
}

// Run generates next week's plan and its shopping list. The cart is left
// untouched.
func (a *App) Run(ctx context.Context, userID string, prefs planner.Preferences) (*planner.WeeklyPlan, *shopping.ShoppingList, error) {
	plan, err := a.GenerateMealPlan(ctx, userID, prefs)
	if err != nil {
		return nil, nil, err
	}
	list, err := a.BuildShoppingList(ctx, userID, plan.ID)
	if err != nil {
		return plan, nil, err
	}
	return plan, list, nil
}

// Usage returns LLM token usage for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes execution metrics older than olderThanDays.
func (a *App) CleanupMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, olderThanDays)
}

func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
