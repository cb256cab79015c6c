package planner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mealcart/internal/database"
	"mealcart/internal/llm"
	"mealcart/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTextGenerator struct {
	Response   string
	Err        error
	LastPrompt string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "mock"},
	}, nil
}

const twoDayPlan = "```json\n" + `{
  "days": [
    {
      "day": "Monday",
      "breakfast": {"title": "Oatmeal", "servings": 3, "ingredients": [
        {"name": "rolled oats", "original": "1.5 cups rolled oats", "amount": 1.5, "unit": "cups", "aisle": "Pantry"}
      ]},
      "lunch": {"title": "Garlic Toast", "ingredients": [
        {"name": "garlic", "original": "3 cloves garlic", "amount": 3, "unit": "clove", "aisle": ""}
      ]},
      "dinner": {"title": "Pasta", "ingredients": []}
    },
    {
      "day": "Tuesday",
      "breakfast": {"title": "Eggs", "ingredients": [{"name": "eggs", "amount": 6, "unit": "", "aisle": "Dairy"}]},
      "lunch": {},
      "dinner": {"title": "Soup"}
    }
  ]
}` + "\n```"

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	prefs := Preferences{Adults: 2, Children: 1, Diet: "vegetarian"}

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{Response: twoDayPlan}
		p := NewPlanner(gen, zap.NewNop())

		plan, meta, err := p.GeneratePlan(ctx, prefs, weekStart)
		require.NoError(t, err)

		assert.Equal(t, AgentName, meta.AgentName)
		assert.Equal(t, 100, meta.Usage.PromptTokens)

		require.Len(t, plan.Days, 2)
		assert.Equal(t, weekStart, plan.WeekStart)
		assert.Equal(t, prefs, plan.Preferences)
		assert.Equal(t, "Oatmeal", plan.Days[0].Breakfast.Title)
		assert.Equal(t, "Other", plan.Days[0].Lunch.Ingredients[0].Aisle, "blank aisle defaults to Other")
		assert.Equal(t, "6 eggs", plan.Days[1].Breakfast.Ingredients[0].Original)
		assert.Equal(t, 5, plan.RecipeCount())

		assert.Contains(t, gen.LastPrompt, "Size every recipe for 3 people")
		assert.Contains(t, gen.LastPrompt, "Diet: vegetarian")
		assert.Contains(t, gen.LastPrompt, "Start with Monday")
	})

	t.Run("InvalidPreferences", func(t *testing.T) {
		gen := &MockTextGenerator{Response: twoDayPlan}
		p := NewPlanner(gen, zap.NewNop())

		_, _, err := p.GeneratePlan(ctx, Preferences{Adults: 0}, weekStart)
		assert.ErrorContains(t, err, "invalid preferences")
		assert.Empty(t, gen.LastPrompt, "the model must not be called")
	})

	t.Run("LLMError", func(t *testing.T) {
		p := NewPlanner(&MockTextGenerator{Err: errors.New("quota exceeded")}, zap.NewNop())

		_, meta, err := p.GeneratePlan(ctx, prefs, weekStart)
		assert.ErrorContains(t, err, "quota exceeded")
		assert.Equal(t, AgentName, meta.AgentName)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		p := NewPlanner(&MockTextGenerator{Response: "I cannot help with that"}, zap.NewNop())

		_, meta, err := p.GeneratePlan(ctx, prefs, weekStart)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to parse meal plan JSON"))
		assert.Equal(t, 100, meta.Usage.PromptTokens, "usage is reported even when parsing fails")
	})

	t.Run("EmptyPlan", func(t *testing.T) {
		p := NewPlanner(&MockTextGenerator{Response: `{"days": []}`}, zap.NewNop())

		_, _, err := p.GeneratePlan(ctx, prefs, weekStart)
		assert.ErrorIs(t, err, ErrEmptyPlan)
	})
}

func TestParsePlanTruncatesToOneWeek(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"days":[`)
	for i := 0; i < 9; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"day":"d","breakfast":{"title":"x"}}`)
	}
	sb.WriteString(`]}`)

	plan, err := ParsePlan(sb.String())
	require.NoError(t, err)
	assert.Len(t, plan.Days, DaysPerWeek)
}

func TestPreferencesValidate(t *testing.T) {
	assert.NoError(t, Preferences{Adults: 1}.Validate())
	assert.Error(t, Preferences{Adults: 0, Children: 2}.Validate())
	assert.Error(t, Preferences{Adults: 2, Children: -1}.Validate())
	assert.Error(t, Preferences{Adults: 10, Children: 3}.Validate())

	assert.Equal(t, "no restrictions", Preferences{}.DietOrDefault())
	assert.Equal(t, "keto", Preferences{Diet: " keto "}.DietOrDefault())
}

func TestGetNextMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"Friday", time.Date(2026, 10, 16, 15, 4, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{"Sunday", time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{"Monday", time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetNextMonday(tc.in))
		})
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	repo := NewPlanRepository(db.SQL)
	week := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	plan, err := ParsePlan(twoDayPlan)
	require.NoError(t, err)
	plan.WeekStart = week
	plan.Preferences = Preferences{Adults: 2}

	id, err := repo.Save(ctx, "user-1", plan)
	require.NoError(t, err)
	assert.Equal(t, id, plan.ID)

	t.Run("Get", func(t *testing.T) {
		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "user-1", stored.UserID)
		assert.Equal(t, id, stored.Plan.ID)
		assert.Equal(t, week, stored.Plan.WeekStart)
		assert.Len(t, stored.Plan.Days, 2)
		assert.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("GetNotFound", func(t *testing.T) {
		stored, err := repo.Get(ctx, id+100)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("ExistsForWeek", func(t *testing.T) {
		exists, err := repo.ExistsForWeek(ctx, "user-1", week)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForWeek(ctx, "user-1", week.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsForWeek(ctx, "user-2", week)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ListRecentByUserID", func(t *testing.T) {
		second := &WeeklyPlan{WeekStart: week.AddDate(0, 0, 7), Days: plan.Days}
		secondID, err := repo.Save(ctx, "user-1", second)
		require.NoError(t, err)

		plans, err := repo.ListRecentByUserID(ctx, "user-1", 5)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, secondID, plans[0].ID)
		assert.Equal(t, week.AddDate(0, 0, 7), plans[0].Plan.WeekStart)
		assert.Equal(t, id, plans[1].ID)

		plans, err = repo.ListRecentByUserID(ctx, "user-1", 1)
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	})
}
