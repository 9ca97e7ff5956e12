package server

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/fixpoint/internal/api/http"
	"github.com/spec-kit/fixpoint/internal/cli"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/persistence"
	"github.com/spec-kit/fixpoint/internal/repository"
	"github.com/spec-kit/fixpoint/internal/service"
	"github.com/spec-kit/fixpoint/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// NewCommand builds the serve command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP server",
		Long:    `Start the fixpoint HTTP API, applying migrations and demo data first when configured.`,
		RunE:    run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := cli.Init(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.Config, env.Logger

	if cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, env.DB, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	repos := repository.NewSet(env.DB)
	services := service.NewServices(cfg, repos, dispatcher, metrics, logger)

	defer worker.StartNotificationWorker(services.Notifications)()
	if redis != nil {
		bridge := events.NewRedisBridge(redis.Client, cfg.Redis.Channel, dispatcher, logger)
		defer worker.StartEventBridge(ctx, bridge, logger)()
	}

	if cfg.Database.SeedDemo {
		if _, err := services.Provisioning.SeedDemoData(ctx); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	app := httptransport.NewServer(httptransport.ServerDeps{
		Base:     ctx,
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		DB:       env.DB,
		Redis:    redis,
		Repos:    repos,
		Services: services,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.App.Addr()),
			zap.String("driver", env.DB.Driver),
			zap.String("version", cfg.App.Version))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// ctx is done, which also ends open event streams.
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
