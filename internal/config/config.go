package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LLM providers understood by llm.NewTextGenerator.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
	OllamaHost   string
	OllamaModel  string
	LLMCachePath string

	DatabasePath string
	LogLevel     string
	LogFormat    string

	// Walmart cart filler
	WalmartBaseURL string
	WalmartCookie  string

	// Ghost publishing (optional)
	GhostURL      string
	GhostAdminKey string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Household defaults used when a request does not say otherwise
	DefaultAdults   int
	DefaultChildren int
	DefaultDiet     string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.2:3b"),
		LLMCachePath:   os.Getenv("LLM_CACHE_PATH"),
		DatabasePath:   getEnv("DATABASE_PATH", "data/mealcart.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		WalmartBaseURL: strings.TrimRight(getEnv("WALMART_BASE_URL", "https://www.walmart.com"), "/"),
		WalmartCookie:  os.Getenv("WALMART_COOKIE"),
		GhostURL:       strings.TrimRight(os.Getenv("GHOST_API_URL"), "/"),
		GhostAdminKey:  os.Getenv("GHOST_ADMIN_API_KEY"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),

		DefaultDiet: os.Getenv("DEFAULT_DIET"),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case ProviderOllama:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	var err error
	if cfg.DefaultAdults, err = getEnvInt("DEFAULT_ADULTS", 2); err != nil {
		return nil, err
	}
	if cfg.DefaultChildren, err = getEnvInt("DEFAULT_CHILDREN", 0); err != nil {
		return nil, err
	}
	if cfg.AdminTelegramID, err = getEnvInt64("ADMIN_TELEGRAM_ID", 0); err != nil {
		return nil, err
	}
	if cfg.TelegramAllowedUserIDs, err = parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PublishingEnabled reports whether plans can be posted to Ghost.
func (c *Config) PublishingEnabled() bool {
	return c.GhostURL != "" && c.GhostAdminKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
