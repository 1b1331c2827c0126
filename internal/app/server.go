package app

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"

	httptransport "github.com/spec-kit/practice-auth/internal/api/http"
	"github.com/spec-kit/practice-auth/internal/api/http/handlers"
	"github.com/spec-kit/practice-auth/internal/auth"
)

// NewServer builds the fiber application over the container's services.
func NewServer(c *Container) *fiber.App {
	cfg := c.Config

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, c.Logger, c.Metrics, cfg.App.RequestTimeout(), httptransport.SessionCookieConfig{
		Name:   cfg.Auth.SessionCookieName,
		Secure: cfg.Auth.SessionCookieSecure,
		MaxAge: c.Sessions.RefreshTTL(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, c.HealthChecks()),
		Auth:           handlers.NewAuthHandler(c.Auth, cfg.Auth.ExternalIdentityHeader),
		Admin:          handlers.NewAdminHandler(c.Metrics, c.Audit),
		AuthMiddleware: auth.NewAuthMiddleware(c.Tokens),
		AdminChecker:   c.Auth,
	})
	return app
}

// HealthChecks returns readiness probes for the configured backends.
func (c *Container) HealthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"directory_breaker": func(context.Context) error {
			if c.Directory.State() == gobreaker.StateOpen {
				return errors.New("circuit open")
			}
			return nil
		},
	}
	if c.Database != nil {
		checks[c.Database.Dialect] = c.Database.Ping
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping
	}
	return checks
}
