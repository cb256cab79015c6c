package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mealcart/internal/config"
	"mealcart/internal/shared"

	"go.uber.org/zap"
)

// OllamaClient generates text with a locally hosted Ollama model.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// NewOllamaClient creates a new Ollama client. Local models are slow on
// commodity hardware, so the timeout is generous.
func NewOllamaClient(cfg *config.Config, logger *zap.Logger) *OllamaClient {
	logger = logger.Named("ollama")
	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.OllamaHost),
		zap.String("model", cfg.OllamaModel))

	return &OllamaClient{
		baseURL: strings.TrimRight(cfg.OllamaHost, "/"),
		model:   cfg.OllamaModel,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// GenerateContent sends a prompt to the local model and returns the generated text.
func (c *OllamaClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: map[string]interface{}{"temperature": 0.4},
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ContentResponse{}, fmt.Errorf("ollama api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return ContentResponse{}, ErrNoContent
	}

	c.logger.Debug("ollama response",
		zap.Duration("latency", time.Since(start)),
		zap.Int("eval_count", out.EvalCount))

	return ContentResponse{
		Content: out.Response,
		Usage: shared.TokenUsage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
			Model:            c.model,
		},
	}, nil
}
