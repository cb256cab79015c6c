package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mealcart/internal/app"
	"mealcart/internal/cart"
	"mealcart/internal/config"
	"mealcart/internal/ghost"
	"mealcart/internal/metrics"
	"mealcart/internal/planner"
	"mealcart/internal/recipe"
	"mealcart/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockSender struct {
	mu    sync.Mutex
	Sent  []tgbotapi.Chattable
	Calls []tgbotapi.Chattable
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, c)
	return tgbotapi.Message{MessageID: len(m.Sent)}, nil
}

func (m *MockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *MockSender) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.Sent {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		}
	}
	return out
}

func (m *MockSender) Last() string {
	texts := m.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type MockService struct {
	Exists    bool
	GenErr    error
	CartErr   error
	PubErr    error
	RunsErr   error
	LastPrefs planner.Preferences
	LastWeek  time.Time
	LastUser  string
	CartPlan  int64
}

var nextMonday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func (m *MockService) DefaultPreferences() planner.Preferences {
	return planner.Preferences{Adults: 2}
}

func (m *MockService) NextWeek() time.Time { return nextMonday }

func (m *MockService) PlanExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	return m.Exists, nil
}

func (m *MockService) GenerateMealPlanForWeek(ctx context.Context, userID string, prefs planner.Preferences, weekStart time.Time) (*planner.WeeklyPlan, error) {
	m.LastUser, m.LastPrefs, m.LastWeek = userID, prefs, weekStart
	if m.GenErr != nil {
		return nil, m.GenErr
	}
	return &planner.WeeklyPlan{
		ID:          42,
		WeekStart:   weekStart,
		Preferences: prefs,
		Days: []planner.DayPlan{{
			Day:    "Monday",
			Dinner: recipe.Recipe{Title: "Garlic_Pasta", PrepTime: "20 mins"},
		}},
	}, nil
}

func (m *MockService) BuildShoppingList(ctx context.Context, userID string, planID int64) (*shopping.ShoppingList, error) {
	return &shopping.ShoppingList{MealPlanID: planID, Items: []shopping.AggregatedIngredient{
		{Name: "garlic", Amount: 5, Unit: "clove", Aisle: "Produce"},
	}}, nil
}

func (m *MockService) FillCart(ctx context.Context, userID string, planID int64) (cart.Report, error) {
	m.CartPlan = planID
	return cart.Report{
		RunID:   "run",
		Added:   1,
		Failed:  1,
		Results: []cart.ItemResult{{Name: "garlic", Added: true}, {Name: "saffron", Error: "no product found"}},
	}, m.CartErr
}

func (m *MockService) CartRuns(ctx context.Context, userID string, planID int64) ([]cart.RunRecord, error) {
	if m.RunsErr != nil {
		return nil, m.RunsErr
	}
	finished := time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)
	return []cart.RunRecord{{MealPlanID: planID, Report: cart.Report{RunID: "run", Added: 3, Failed: 1, FinishedAt: finished}}}, nil
}

func (m *MockService) PublishPlan(ctx context.Context, userID string, planID int64) (*ghost.Post, error) {
	if m.PubErr != nil {
		return nil, m.PubErr
	}
	return &ghost.Post{ID: "p1", URL: "https://blog.example/plan/"}, nil
}

func (m *MockService) RecentPlans(ctx context.Context, userID string, limit int) ([]planner.StoredPlan, error) {
	return []planner.StoredPlan{{ID: 7, Plan: &planner.WeeklyPlan{WeekStart: nextMonday}}}, nil
}

func (m *MockService) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return []metrics.DailyUsage{{Date: "2026-10-17", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}}, nil
}

// --- Helpers ---

const (
	userID  int64 = 1001
	adminID int64 = 9
)

func newTestBot(t *testing.T) (*Bot, *MockSender, *MockService) {
	t.Helper()
	sender := &MockSender{}
	svc := &MockService{}
	cfg := &config.Config{
		TelegramAllowedUserIDs: []int64{userID},
		AdminTelegramID:        adminID,
		DatabasePath:           t.TempDir() + "/mealcart.db",
	}
	return newBot(sender, svc, cfg, zap.NewNop()), sender, svc
}

func message(from int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: from},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

// --- Tests ---

func TestProcessMessage_Planner(t *testing.T) {
	t.Run("GeneratesPlanAndList", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		bot.processMessage(message(userID, "2 adults 1 kid vegetarian"))

		assert.Equal(t, "1001", svc.LastUser)
		assert.Equal(t, nextMonday, svc.LastWeek)
		assert.Equal(t, 2, svc.LastPrefs.Adults)
		assert.Equal(t, 1, svc.LastPrefs.Children)
		assert.Equal(t, "vegetarian", svc.LastPrefs.Diet)

		texts := sender.Texts()
		require.Len(t, texts, 3)
		assert.Contains(t, texts[0], "Thinking")
		assert.Contains(t, texts[1], "*Weekly Meal Plan* (#42)")
		assert.Contains(t, texts[1], `Garlic\_Pasta (20 mins)`)
		assert.Contains(t, texts[2], "• 5 clove garlic")
		assert.Contains(t, texts[2], "/cart 42")
	})

	t.Run("ExistingPlanOffersChoice", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		svc.Exists = true
		bot.processMessage(message(userID, "3 adults vegan"))

		assert.Empty(t, svc.LastUser, "no plan must be generated yet")
		sent := sender.Sent[len(sender.Sent)-1].(tgbotapi.EditMessageTextConfig)
		require.NotNil(t, sent.ReplyMarkup)
		buttons := sent.ReplyMarkup.InlineKeyboard[0]
		assert.Equal(t, "redo|3|0|vegan", *buttons[0].CallbackData)
		assert.Equal(t, "next|3|0|vegan", *buttons[1].CallbackData)
	})

	t.Run("InvalidHousehold", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		bot.processMessage(message(userID, "20 adults"))
		assert.Empty(t, svc.LastUser)
		assert.Contains(t, sender.Last(), "exceeds the maximum")
	})

	t.Run("GenerationError", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		svc.GenErr = errors.New("model `down`")
		bot.processMessage(message(userID, "hello"))
		assert.Contains(t, sender.Last(), "Error generating plan")
		assert.Contains(t, sender.Last(), "model 'down'")
	})
}

func TestHandleCallbackQuery(t *testing.T) {
	bot, sender, svc := newTestBot(t)
	bot.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    "next|1|2|keto",
	})

	require.Len(t, sender.Calls, 1)
	assert.Equal(t, nextMonday.AddDate(0, 0, 7), svc.LastWeek)
	assert.Equal(t, planner.Preferences{Adults: 1, Children: 2, Diet: "keto"}, svc.LastPrefs)
	assert.Contains(t, sender.Last(), "Shopping List")
}

func TestProcessMessage_Commands(t *testing.T) {
	t.Run("Cart", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		bot.processMessage(message(userID, "/cart 42"))
		assert.Equal(t, int64(42), svc.CartPlan)
		assert.Contains(t, sender.Last(), "1 added, 1 failed")
		assert.Contains(t, sender.Last(), "saffron: no product found")
	})

	t.Run("CartInterrupted", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		svc.CartErr = context.DeadlineExceeded
		bot.processMessage(message(userID, "/cart 42"))
		assert.Contains(t, sender.Last(), "interrupted")
	})

	t.Run("CartUsage", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		bot.processMessage(message(userID, "/cart abc"))
		assert.Zero(t, svc.CartPlan)
		assert.Equal(t, "Usage: /cart <plan id>", sender.Last())
	})

	t.Run("Runs", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/runs 42"))
		assert.Contains(t, sender.Last(), "Cart runs for plan #42")
		assert.Contains(t, sender.Last(), "2026-10-17 14:30: 3 added, 1 failed")
	})

	t.Run("RunsNotFound", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		svc.RunsErr = app.ErrPlanNotFound
		bot.processMessage(message(userID, "/runs 42"))
		assert.Contains(t, sender.Last(), "Error listing cart runs")
	})

	t.Run("Publish", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/publish 42"))
		assert.Contains(t, sender.Last(), "https://blog.example/plan/")
	})

	t.Run("PublishDisabled", func(t *testing.T) {
		bot, sender, svc := newTestBot(t)
		svc.PubErr = app.ErrPublishingDisabled
		bot.processMessage(message(userID, "/publish 42"))
		assert.Equal(t, "Publishing is not configured.", sender.Last())
	})

	t.Run("Plans", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/plans"))
		assert.Contains(t, sender.Last(), "#7, week of 2026-10-19")
	})

	t.Run("List", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/list 3"))
		assert.Contains(t, sender.Last(), "*Produce*")
	})

	t.Run("MetricsAdminOnly", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/metrics"))
		assert.Contains(t, sender.Last(), "Access Denied")

		bot.processMessage(message(adminID, "/metrics"))
		assert.Contains(t, sender.Last(), "*2026-10-17*: 150 tokens (2 execs)")
		assert.Contains(t, sender.Last(), "Disk Data")
	})

	t.Run("Unknown", func(t *testing.T) {
		bot, sender, _ := newTestBot(t)
		bot.processMessage(message(userID, "/dance"))
		assert.Contains(t, sender.Last(), "Unknown command")
	})
}

func TestHandleWebhook(t *testing.T) {
	bot, sender, _ := newTestBot(t)
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	t.Run("Health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("BadBody", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnauthorizedIgnored", func(t *testing.T) {
		body, err := json.Marshal(tgbotapi.Update{Message: message(555, "2 adults")})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, sender.Texts())
	})
}

func TestIsAllowed(t *testing.T) {
	bot, _, _ := newTestBot(t)
	assert.True(t, bot.isAllowed(&tgbotapi.User{ID: userID}))
	assert.True(t, bot.isAllowed(&tgbotapi.User{ID: adminID}))
	assert.False(t, bot.isAllowed(&tgbotapi.User{ID: 3}))
	assert.False(t, bot.isAllowed(nil))
}

func TestFormatRunHistory(t *testing.T) {
	assert.Equal(t, "No cart runs for plan #3 yet. Send /cart 3 to start one.", formatRunHistory(3, nil))

	var runs []cart.RunRecord
	for i := 0; i < 7; i++ {
		runs = append(runs, cart.RunRecord{MealPlanID: 3, Report: cart.Report{Added: i}})
	}
	out := formatRunHistory(3, runs)
	assert.Equal(t, 5, strings.Count(out, "• "))
	assert.Contains(t, out, "_...and 2 older_")
}
