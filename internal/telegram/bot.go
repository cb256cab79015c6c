package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mealcart/internal/app"
	"mealcart/internal/cart"
	"mealcart/internal/config"
	"mealcart/internal/ghost"
	"mealcart/internal/metrics"
	"mealcart/internal/planner"
	"mealcart/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const requestTimeout = 3 * time.Minute

// Service is the part of app.App the bot drives.
type Service interface {
	DefaultPreferences() planner.Preferences
	NextWeek() time.Time
	PlanExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error)
	GenerateMealPlanForWeek(ctx context.Context, userID string, prefs planner.Preferences, weekStart time.Time) (*planner.WeeklyPlan, error)
	BuildShoppingList(ctx context.Context, userID string, planID int64) (*shopping.ShoppingList, error)
	FillCart(ctx context.Context, userID string, planID int64) (cart.Report, error)
	CartRuns(ctx context.Context, userID string, planID int64) ([]cart.RunRecord, error)
	PublishPlan(ctx context.Context, userID string, planID int64) (*ghost.Post, error)
	RecentPlans(ctx context.Context, userID string, limit int) ([]planner.StoredPlan, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Sender is the subset of tgbotapi.BotAPI used to talk to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the meal planning service.
type Bot struct {
	api      Sender
	svc      Service
	cfg      *config.Config
	logger   *zap.Logger
	dataPath string
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger = logger.Named("telegram")
	logger.Info("authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("response", resp.Description))

	return newBot(api, svc, cfg, logger), nil
}

func newBot(api Sender, svc Service, cfg *config.Config, logger *zap.Logger) *Bot {
	return &Bot{api: api, svc: svc, cfg: cfg, logger: logger, dataPath: dataDir(cfg.DatabasePath)}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if update.CallbackQuery != nil {
		if b.isAllowed(update.CallbackQuery.From) {
			go b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	if !b.isAllowed(update.Message.From) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", update.Message.From.ID),
			zap.String("username", update.Message.From.UserName))
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(u *tgbotapi.User) bool {
	if u == nil {
		return false
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if u.ID == id {
			return true
		}
	}
	return u.ID == b.cfg.AdminTelegramID && u.ID != 0
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.reply(chatID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, chatID)
	case "plans":
		b.handlePlansCommand(ctx, userID, chatID)
	case "list":
		b.withPlanID(msg, func(id int64) { b.handleListCommand(ctx, userID, chatID, id) })
	case "cart":
		b.withPlanID(msg, func(id int64) { b.handleCartCommand(ctx, userID, chatID, id) })
	case "runs":
		b.withPlanID(msg, func(id int64) { b.handleRunsCommand(ctx, userID, chatID, id) })
	case "publish":
		b.withPlanID(msg, func(id int64) { b.handlePublishCommand(ctx, userID, chatID, id) })
	case "":
		b.handlePlannerRequest(ctx, userID, msg)
	default:
		b.reply(chatID, "Unknown command.\n\n"+helpText)
	}
}

const helpText = "Tell me about your household, e.g. _2 adults 1 kid vegetarian_, and I'll plan next week.\n\n" +
	"/plans - your recent plans\n" +
	"/list <plan id> - shopping list\n" +
	"/cart <plan id> - add the shopping list to your Walmart cart\n" +
	"/runs <plan id> - past cart runs\n" +
	"/publish <plan id> - publish the plan to the blog"

func (b *Bot) withPlanID(msg *tgbotapi.Message, fn func(int64)) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil || id <= 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("Usage: /%s <plan id>", msg.Command()))
		return
	}
	fn(id)
}

func (b *Bot) handlePlannerRequest(ctx context.Context, userID string, msg *tgbotapi.Message) {
	prefs := ParsePreferences(msg.Text, b.svc.DefaultPreferences())
	if err := prefs.Validate(); err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ %s", escapeMarkdown(err.Error())))
		return
	}

	sent, err := b.api.Send(markdown(tgbotapi.NewMessage(msg.Chat.ID, "🧑‍🍳 *Thinking...*\n(Generating your plan)")))
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return
	}

	nextWeek := b.svc.NextWeek()
	exists, err := b.svc.PlanExistsForWeek(ctx, userID, nextWeek)
	if err != nil {
		b.logger.Warn("failed to check existing plan", zap.Error(err))
	}
	if exists {
		promptText := fmt.Sprintf("🗓️ A plan already exists for next week (starting *%s*).\nWhat would you like to do?", nextWeek.Format("2006-01-02"))
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Redo Next Week", encodeCallback(actionRedo, prefs)),
				tgbotapi.NewInlineKeyboardButtonData("⏭️ Plan Following Week", encodeCallback(actionNext, prefs)),
			),
		)
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, promptText)
		edit.ParseMode = tgbotapi.ModeMarkdown
		edit.ReplyMarkup = &keyboard
		b.send(edit)
		return
	}

	b.generateAndSendPlan(ctx, userID, msg.Chat.ID, sent.MessageID, prefs, nextWeek)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if query.Message == nil {
		return
	}

	action, prefs, ok := decodeCallback(query.Data, b.svc.DefaultPreferences())
	if !ok {
		return
	}

	targetWeek := b.svc.NextWeek()
	if action == actionNext {
		targetWeek = targetWeek.AddDate(0, 0, 7)
	}

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	edit := tgbotapi.NewEditMessageText(chatID, messageID, "🧑‍🍳 *Thinking...*")
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)

	b.generateAndSendPlan(ctx, strconv.FormatInt(query.From.ID, 10), chatID, messageID, prefs, targetWeek)
}

func (b *Bot) generateAndSendPlan(ctx context.Context, userID string, chatID int64, messageID int, prefs planner.Preferences, week time.Time) {
	plan, err := b.svc.GenerateMealPlanForWeek(ctx, userID, prefs, week)
	if err != nil {
		b.logger.Error("error generating plan", zap.String("user_id", userID), zap.Error(err))
		edit := tgbotapi.NewEditMessageText(chatID, messageID, errorText("Error generating plan", err))
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.send(edit)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatPlan(plan))
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)

	list, err := b.svc.BuildShoppingList(ctx, userID, plan.ID)
	if err != nil {
		b.logger.Error("error building shopping list", zap.Int64("plan_id", plan.ID), zap.Error(err))
		b.reply(chatID, errorText("Error building shopping list", err))
		return
	}
	b.reply(chatID, formatShoppingList(plan.ID, list.Items))
}

func (b *Bot) handleListCommand(ctx context.Context, userID string, chatID int64, planID int64) {
	list, err := b.svc.BuildShoppingList(ctx, userID, planID)
	if err != nil {
		b.reply(chatID, errorText("Error building shopping list", err))
		return
	}
	b.reply(chatID, formatShoppingList(planID, list.Items))
}

func (b *Bot) handleCartCommand(ctx context.Context, userID string, chatID int64, planID int64) {
	b.reply(chatID, "🛒 *Filling your cart...*")
	report, err := b.svc.FillCart(ctx, userID, planID)
	if err != nil && report.RunID == "" {
		b.reply(chatID, errorText("Error filling cart", err))
		return
	}
	b.reply(chatID, formatCartReport(report, err))
}

func (b *Bot) handlePublishCommand(ctx context.Context, userID string, chatID int64, planID int64) {
	post, err := b.svc.PublishPlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, app.ErrPublishingDisabled) {
			b.reply(chatID, "Publishing is not configured.")
			return
		}
		b.reply(chatID, errorText("Error publishing plan", err))
		return
	}
	link := post.URL
	if link == "" {
		link = fmt.Sprintf("%s/%s", b.cfg.GhostURL, post.ID)
	}
	b.reply(chatID, fmt.Sprintf("✅ *Plan published!*\n%s", link))
}

func (b *Bot) handleRunsCommand(ctx context.Context, userID string, chatID int64, planID int64) {
	runs, err := b.svc.CartRuns(ctx, userID, planID)
	if err != nil {
		b.reply(chatID, errorText("Error listing cart runs", err))
		return
	}
	b.reply(chatID, formatRunHistory(planID, runs))
}

func (b *Bot) handlePlansCommand(ctx context.Context, userID string, chatID int64) {
	plans, err := b.svc.RecentPlans(ctx, userID, 5)
	if err != nil {
		b.reply(chatID, errorText("Error listing plans", err))
		return
	}
	b.reply(chatID, formatPlanList(plans))
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.svc.Usage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(b.dataPath)))
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(markdown(tgbotapi.NewMessage(chatID, text)))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Error(err))
	}
}

func markdown(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}
