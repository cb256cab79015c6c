package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mealcart/internal/database"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores a shopping list, replacing any previous list of the same meal plan.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (user_id, meal_plan_id, items, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (meal_plan_id) DO UPDATE SET user_id = excluded.user_id, items = excluded.items, created_at = excluded.created_at`,
		list.UserID, list.MealPlanID, string(itemsJSON), database.FormatTime(list.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	// LastInsertId is not reliable for the upsert branch, so read it back.
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM shopping_lists WHERE meal_plan_id = ?`, list.MealPlanID).Scan(&list.ID); err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	return list.ID, nil
}

// GetByMealPlanID retrieves a shopping list by meal plan ID. It returns
// nil, nil when the plan has no list yet.
func (r *Repository) GetByMealPlanID(ctx context.Context, mealPlanID int64) (*ShoppingList, error) {
	var (
		list      ShoppingList
		items     string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, meal_plan_id, items, created_at FROM shopping_lists WHERE meal_plan_id = ?`,
		mealPlanID).Scan(&list.ID, &list.UserID, &list.MealPlanID, &items, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list by meal plan ID: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &list.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	if list.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse shopping list created_at: %w", err)
	}
	return &list, nil
}
