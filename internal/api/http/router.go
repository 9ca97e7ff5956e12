package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fixpoint/internal/api/http/handlers"
	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Incidents      *handlers.IncidentsHandler
	Chief          *handlers.ChiefHandler
	Technician     *handlers.TechnicianHandler
	Streams        *handlers.StreamHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post("/auth/login", cfg.Auth.Login)

	authed := cfg.AuthMiddleware.Handle

	incidents := app.Group("/incidents", authed)
	incidents.Post("", auth.RequireRole(domain.RoleOrdinary), cfg.Incidents.Create)
	incidents.Get("/mine", auth.RequireRole(domain.RoleOrdinary), cfg.Incidents.Mine)
	incidents.Get("/mine/stream", auth.RequireRole(domain.RoleOrdinary), cfg.Streams.Mine)
	incidents.Get("/:id", auth.RequireAnyRole(), cfg.Incidents.Get)
	incidents.Get("/:id/history", auth.RequireAnyRole(), cfg.Incidents.History)

	chief := app.Group("/chief", authed, auth.RequireRole(domain.RoleChief))
	chief.Get("/incidents/unattended", cfg.Chief.Unattended)
	chief.Get("/incidents/unattended/stream", cfg.Streams.Unattended)
	chief.Get("/technicians", cfg.Chief.Technicians)
	chief.Post("/incidents/:id/assign", cfg.Chief.Assign)

	technician := app.Group("/technician", authed, auth.RequireRole(domain.RoleTechnician))
	technician.Get("/incidents", cfg.Technician.List)
	technician.Get("/incidents/stream", cfg.Streams.Technician)
	technician.Post("/incidents/:id/defer", cfg.Technician.Defer)
	technician.Post("/incidents/:id/resolve", cfg.Technician.Resolve)
}
