// Package cli holds the bootstrap shared by the fixpoint subcommands.
package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/persistence"
)

// Env is the loaded configuration plus the resources every command needs.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *persistence.Database
}

// Init loads configuration, builds the logger and opens the store.
func Init(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger = logger.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	db, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}
	return &Env{Config: cfg, Logger: logger, DB: db}, nil
}

// Close releases the store and flushes the logger.
func (e *Env) Close() {
	e.DB.Close()
	_ = e.Logger.Sync()
}
