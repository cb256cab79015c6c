package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"mealcart/internal/database"
)

// RunRecord is a stored cart run.
type RunRecord struct {
	MealPlanID int64
	Report     Report
}

// RunRepository persists cart run reports.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(d *sql.DB) *RunRepository {
	return &RunRepository{db: d}
}

// Save stores the report of a cart run for a meal plan.
func (r *RunRepository) Save(ctx context.Context, mealPlanID int64, report Report) error {
	results, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal cart results: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cart_runs (id, meal_plan_id, added, failed, results, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, mealPlanID, report.Added, report.Failed, string(results), database.FormatTime(report.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cart run: %w", err)
	}
	return nil
}

// ListByMealPlanID returns the runs of a meal plan, newest first.
func (r *RunRepository) ListByMealPlanID(ctx context.Context, mealPlanID int64) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, meal_plan_id, added, failed, results, created_at FROM cart_runs
		 WHERE meal_plan_id = ? ORDER BY created_at DESC`, mealPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			results   string
			createdAt string
		)
		if err := rows.Scan(&rec.Report.RunID, &rec.MealPlanID, &rec.Report.Added, &rec.Report.Failed, &results, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart run: %w", err)
		}
		if err := json.Unmarshal([]byte(results), &rec.Report.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart results: %w", err)
		}
		if rec.Report.FinishedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse cart run time: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}
