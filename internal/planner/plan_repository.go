package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mealcart/internal/database"
)

// StoredPlan is a meal plan row together with its owner.
type StoredPlan struct {
	ID        int64
	UserID    string
	Plan      *WeeklyPlan
	CreatedAt time.Time
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a new meal plan and sets plan.ID to the assigned ID.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *WeeklyPlan) (int64, error) {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, week_start, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		userID, database.FormatDate(plan.WeekStart), string(planJSON), database.FormatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read meal plan id: %w", err)
	}
	plan.ID = id
	return id, nil
}

// Get retrieves a meal plan by ID. It returns nil, nil when none exists.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, week_start, plan_data, created_at FROM meal_plans WHERE id = ?`, id)

	stored, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No plan found
		}
		return nil, fmt.Errorf("failed to get meal plan %d: %w", id, err)
	}
	return stored, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, week_start, plan_data, created_at FROM meal_plans
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		stored, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *stored)
	}
	return plans, rows.Err()
}

// ExistsForWeek reports whether the user already has a plan for the week
// starting at weekStart.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, database.FormatDate(weekStart)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check meal plan for week: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*StoredPlan, error) {
	var (
		stored    StoredPlan
		weekStart string
		planData  string
		createdAt string
	)
	if err := row.Scan(&stored.ID, &stored.UserID, &weekStart, &planData, &createdAt); err != nil {
		return nil, err
	}

	plan := &WeeklyPlan{}
	if err := json.Unmarshal([]byte(planData), plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan %d: %w", stored.ID, err)
	}
	plan.ID = stored.ID

	// The column drives ExistsForWeek, so it wins over the JSON copy.
	week, err := database.ParseDate(weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week_start of meal plan %d: %w", stored.ID, err)
	}
	plan.WeekStart = week
	stored.Plan = plan

	ts, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of meal plan %d: %w", stored.ID, err)
	}
	stored.CreatedAt = ts
	return &stored, nil
}
