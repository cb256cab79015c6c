package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"mealcart/internal/llm"
	"mealcart/internal/shared"

	"go.uber.org/zap"
)

//go:embed planner_prompt.md
var plannerPrompt string

// AgentName identifies the planner in recorded metrics.
const AgentName = "Planner"

// ErrEmptyPlan is returned when the model produced no usable days.
var ErrEmptyPlan = errors.New("meal plan contains no days")

var promptTemplate = template.Must(template.New("planner").Parse(plannerPrompt))

type plannerPromptData struct {
	Preferences Preferences
	People      int
	Days        int
	FirstDay    string
}

// Planner handles the generation of meal plans.
type Planner struct {
	textGen llm.TextGenerator
	logger  *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, logger *zap.Logger) *Planner {
	return &Planner{
		textGen: textGen,
		logger:  logger.Named("planner"),
	}
}

// GeneratePlan asks the model for a week of meals for the given household.
// The returned AgentMeta is populated whenever the model was reached, even if
// its answer could not be parsed, so callers can still record usage.
func (p *Planner) GeneratePlan(ctx context.Context, prefs Preferences, weekStart time.Time) (*WeeklyPlan, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: AgentName}

	if err := prefs.Validate(); err != nil {
		return nil, meta, fmt.Errorf("invalid preferences: %w", err)
	}

	prompt, err := buildPlannerPrompt(prefs, weekStart)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to build planner prompt: %w", err)
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate meal plan from LLM: %w", err)
	}
	meta.Usage = resp.Usage

	plan, err := ParsePlan(resp.Content)
	if err != nil {
		return nil, meta, err
	}

	plan.WeekStart = weekStart
	plan.Preferences = prefs

	p.logger.Info("meal plan generated",
		zap.Int("days", len(plan.Days)),
		zap.Int("recipes", plan.RecipeCount()),
		zap.Duration("latency", meta.Latency))

	return plan, meta, nil
}

// ParsePlan decodes a model response into a normalized WeeklyPlan.
func ParsePlan(content string) (*WeeklyPlan, error) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("failed to parse meal plan JSON: no JSON object in response: %s", content)
	}

	plan := &WeeklyPlan{}
	if err := json.Unmarshal([]byte(raw), plan); err != nil {
		return nil, fmt.Errorf("failed to parse meal plan JSON: %w. Response: %s", err, content)
	}

	plan.Normalize()
	if len(plan.Days) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

func buildPlannerPrompt(prefs Preferences, weekStart time.Time) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, plannerPromptData{
		Preferences: prefs,
		People:      prefs.People(),
		Days:        DaysPerWeek,
		FirstDay:    weekStart.Weekday().String(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
