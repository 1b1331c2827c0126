package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-auth/internal/api/http/handlers"
	"github.com/spec-kit/practice-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	AdminChecker   auth.AdminChecker
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/login/external", cfg.Auth.LoginExternal)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Optional, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Optional, cfg.Auth.Me)
	authGroup.Get("/admin", cfg.AuthMiddleware.Optional, cfg.Auth.AdminCheck)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin(cfg.AdminChecker))
	admin.Get("/ping", cfg.Admin.Ping)
	admin.Get("/metrics", cfg.Admin.Metrics)
	admin.Get("/audit/:employee_id", cfg.Admin.AuditHistory)
}
