package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CachedTextGenerator wraps a TextGenerator to cache responses in a JSON file,
// so repeated prompts (re-running a plan during development, replaying tests)
// do not hit the provider again. Cached responses report zero token usage.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	logger        *zap.Logger
	mu            sync.Mutex
}

// NewCachedTextGenerator creates a new CachedTextGenerator.
// It attempts to load the cache from the specified file path.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string, logger *zap.Logger) (*CachedTextGenerator, error) {
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
		logger:        logger.Named("llm-cache"),
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Info("cache file not found, starting with empty cache", zap.String("path", cacheFilePath))
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	c.logger.Info("loaded cached responses", zap.Int("count", len(c.cache)), zap.String("path", cacheFilePath))
	return c, nil
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// GenerateContent checks the cache first. On a miss it calls the real
// generator without holding the lock, then stores the result and persists
// the cache file. Concurrent misses for the same prompt may both reach the
// provider; the last response wins.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	key := cacheKey(prompt)

	c.mu.Lock()
	content, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content using real generator: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = resp.Content
	if err := c.saveLocked(); err != nil {
		c.logger.Warn("failed to persist llm cache", zap.Error(err))
	}
	return resp, nil
}

// Len returns the number of cached responses.
func (c *CachedTextGenerator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *CachedTextGenerator) saveLocked() error {
	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}
