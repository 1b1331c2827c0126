package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/config"
	"github.com/spec-kit/practice-auth/internal/events"
	"github.com/spec-kit/practice-auth/internal/observability"
	"github.com/spec-kit/practice-auth/internal/persistence"
	"github.com/spec-kit/practice-auth/internal/repository"
	"github.com/spec-kit/practice-auth/internal/service"
	"github.com/spec-kit/practice-auth/internal/session"
	"github.com/spec-kit/practice-auth/internal/worker"
)

// Container holds the wired dependencies shared by the server and the CLI.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Database *persistence.Database
	Redis    *persistence.Redis
	KV       persistence.KV

	Directory   *repository.BreakerDirectory
	Tokens      *auth.TokenManager
	Sessions    *session.Store
	Dispatcher  events.Dispatcher
	Admins      *service.AdminResolver
	Credentials *service.CredentialService
	Auth        *service.AuthService
	Audit       *service.AuditService
}

// New connects the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	if cfg.Auth.RefreshShorterThanAccess() {
		logger.Warn("refresh token TTL is shorter than access token TTL; access tokens can outlive their refresh token",
			zap.Int("access_ttl_seconds", cfg.Auth.AccessTokenTTLSeconds),
			zap.Int("refresh_ttl_seconds", cfg.Auth.RefreshTokenTTLSeconds))
	}

	inner, settings, err := c.openDirectory(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Directory = repository.NewBreakerDirectory(inner, cfg.Breaker, logger)

	if cfg.Database.SeedFile != "" {
		if _, err := SeedFromFile(ctx, c.Directory, cfg.Database.SeedFile, logger); err != nil {
			c.Close()
			return nil, err
		}
	}

	secret, err := c.signingSecret(ctx, settings)
	if err != nil {
		c.Close()
		return nil, err
	}

	switch cfg.Redis.Driver {
	case config.DriverMemory:
		c.KV = persistence.NewMemoryKV()
		logger.Info("using in-memory session cache")
	default:
		c.Redis = persistence.NewRedis(cfg.Redis, logger)
		c.KV = c.Redis
	}

	c.Tokens = auth.NewTokenManager(secret, cfg.Auth.AccessTokenTTL(), auth.WithTokenType(cfg.Auth.TokenType))
	c.Sessions = session.NewStore(c.KV, c.Tokens, cfg.Auth.RefreshTokenTTL(), logger)
	c.Dispatcher = events.NewInMemoryDispatcher()
	c.Audit = service.NewAuditService(c.Dispatcher, logger, c.Metrics, c.auditTrail())
	worker.StartAuditWorker(c.Audit)

	c.Admins = service.NewAdminResolver(c.Sessions, c.Directory, cfg.Auth.AdminCacheTTL(), logger)
	c.Credentials = service.NewCredentialService(service.CredentialDependencies{
		Directory:  c.Directory,
		Locks:      c.KV,
		Dispatcher: c.Dispatcher,
		Logger:     logger,
	}, cfg.Auth.MigrationLockTTL(), cfg.Auth.LegacyHashMinLength)
	c.Auth = service.NewAuthService(service.AuthDependencies{
		Directory:   c.Directory,
		Sessions:    c.Sessions,
		Tokens:      c.Tokens,
		Admins:      c.Admins,
		Credentials: c.Credentials,
		Dispatcher:  c.Dispatcher,
		Logger:      logger,
	})
	return c, nil
}

func (c *Container) openDirectory(ctx context.Context) (repository.Repository, auth.SecretStore, error) {
	cfg := c.Config.Database
	if cfg.Driver == config.DriverMemory {
		c.Logger.Warn("using in-memory staff directory; records are lost on exit")
		return repository.NewMemoryStaffRepository(), persistence.NewMemorySettings(), nil
	}

	db, err := persistence.OpenDatabase(ctx, cfg, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	c.Database = db

	if cfg.RunMigrations {
		if err := persistence.RunMigrations(ctx, db.SQL, db.Dialect, c.Logger); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return repository.NewSQLStaffRepository(db.SQL, db.Dialect), persistence.NewSQLSettings(db.SQL, db.Dialect), nil
}

func (c *Container) auditTrail() repository.AuditRepository {
	if c.Database == nil {
		return repository.NewMemoryAuditRepository()
	}
	return repository.NewSQLAuditRepository(c.Database.SQL, c.Database.Dialect)
}

func (c *Container) signingSecret(ctx context.Context, settings auth.SecretStore) (string, error) {
	if c.Config.Auth.TokenSecret != "" {
		return c.Config.Auth.TokenSecret, nil
	}
	secret, created, err := auth.LoadOrCreateSecret(ctx, settings, c.Config.Auth.SecretName)
	if err != nil {
		return "", fmt.Errorf("load signing secret: %w", err)
	}
	if created {
		c.Logger.Info("generated and stored a new signing secret", zap.String("name", c.Config.Auth.SecretName))
	}
	return secret, nil
}

// Close releases backend connections.
func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.Database != nil {
		c.Database.Close()
	}
}
