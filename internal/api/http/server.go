package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/api/http/handlers"
	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/persistence"
	"github.com/spec-kit/fixpoint/internal/repository"
	"github.com/spec-kit/fixpoint/internal/service"
)

// ServerDeps bundles what the HTTP server needs.
type ServerDeps struct {
	// Base bounds the lifetime of event streams.
	Base     context.Context
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	DB       *persistence.Database
	Redis    *persistence.Redis
	Repos    repository.Set
	Services *service.Services
}

// NewServer builds the fiber app with every route registered.
func NewServer(deps ServerDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               deps.Config.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		IdleTimeout:           2 * time.Minute,
		ErrorHandler:          ErrorHandler(deps.Logger, deps.Metrics),
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.Config.App.RequestTimeout())

	svc := deps.Services
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(deps.Config.App.Name, deps.Config.App.Version, deps.DB, deps.Redis),
		Auth:           handlers.NewAuthHandler(svc.Auth),
		Incidents:      handlers.NewIncidentsHandler(svc.Incidents, svc.Views),
		Chief:          handlers.NewChiefHandler(svc.Incidents, svc.Views),
		Technician:     handlers.NewTechnicianHandler(svc.Incidents, svc.Views),
		Streams:        handlers.NewStreamHandler(deps.Base, svc.Views, deps.Logger.Named("sse")),
		Metrics:        handlers.NewMetricsHandler(deps.Metrics),
		AuthMiddleware: auth.NewAuthMiddleware(svc.Auth.TokenManager(), deps.Repos.Users),
	})
	return app
}
