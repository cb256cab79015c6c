package app

import (
	"context"
	"fmt"

	"mealcart/internal/cart"
	"mealcart/internal/config"
	"mealcart/internal/database"
	"mealcart/internal/ghost"
	"mealcart/internal/llm"
	"mealcart/internal/planner"

	"go.uber.org/zap"
)

// Setup builds an App with production collaborators from cfg. The returned
// cleanup closes the database and LLM client.
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	textGen, closer, err := llm.NewTextGenerator(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize %s client: %w", cfg.LLMProvider, err)
	}

	var ghostClient ghost.Client
	if cfg.PublishingEnabled() {
		ghostClient = ghost.NewClient(cfg)
	}

	application := NewApp(
		cfg,
		logger,
		db,
		planner.NewPlanner(textGen, logger),
		cart.NewWalmartFiller(cfg, logger),
		ghostClient,
	)

	cleanup := func() {
		if closer != nil {
			if err := closer.Close(); err != nil {
				logger.Warn("failed to close LLM client", zap.Error(err))
			}
		}
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	return application, cleanup, nil
}
