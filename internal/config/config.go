package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Breaker  BreakerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DatabaseConfig holds staff directory connection values.
type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	SeedFile       string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds session cache connection values.
type RedisConfig struct {
	Driver   string
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	TokenSecret            string
	SecretName             string
	TokenType              string
	AccessTokenTTLSeconds  int
	RefreshTokenTTLSeconds int
	AdminCacheTTLSeconds   int
	LegacyHashMinLength    int
	ExternalIdentityHeader string
	MigrationLockTTLSecs   int
	SessionCookieName      string
	SessionCookieSecure    bool
}

// BreakerConfig tunes the circuit breaker guarding directory lookups.
type BreakerConfig struct {
	MaxRequests         uint32
	IntervalSeconds     int
	TimeoutSeconds      int
	ConsecutiveFailures uint32
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "practice-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			DSN:            os.Getenv("DB_DSN"),
			MaxConns:       int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("DB_RUN_MIGRATIONS", true),
			SeedFile:       os.Getenv("DB_SEED_FILE"),
			ConnMaxIdleSec: int32(getEnvAsInt("DB_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("DB_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Driver:   strings.ToLower(getEnv("SESSION_CACHE_DRIVER", DriverRedis)),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			TokenSecret:            os.Getenv("AUTH_TOKEN_SECRET"),
			SecretName:             getEnv("AUTH_SECRET_NAME", "JWT_SECRET"),
			TokenType:              getEnv("AUTH_TOKEN_TYPE", "JWT"),
			AccessTokenTTLSeconds:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_SECONDS", 3600),
			RefreshTokenTTLSeconds: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_SECONDS", 900),
			AdminCacheTTLSeconds:   getEnvAsInt("AUTH_ADMIN_CACHE_TTL_SECONDS", 300),
			LegacyHashMinLength:    getEnvAsInt("AUTH_LEGACY_HASH_MIN_LENGTH", 20),
			ExternalIdentityHeader: getEnv("AUTH_EXTERNAL_IDENTITY_HEADER", "X-Auth-Request-Email"),
			MigrationLockTTLSecs:   getEnvAsInt("AUTH_MIGRATION_LOCK_TTL_SECONDS", 600),
			SessionCookieName:      getEnv("AUTH_SESSION_COOKIE_NAME", "sid"),
			SessionCookieSecure:    getEnvAsBool("AUTH_SESSION_COOKIE_SECURE", false),
		},
		Breaker: BreakerConfig{
			MaxRequests:         uint32(getEnvAsInt("DIRECTORY_BREAKER_MAX_REQUESTS", 1)),
			IntervalSeconds:     getEnvAsInt("DIRECTORY_BREAKER_INTERVAL_SECONDS", 60),
			TimeoutSeconds:      getEnvAsInt("DIRECTORY_BREAKER_TIMEOUT_SECONDS", 30),
			ConsecutiveFailures: uint32(getEnvAsInt("DIRECTORY_BREAKER_CONSECUTIVE_FAILURES", 5)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Redis.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unsupported SESSION_CACHE_DRIVER %q", c.Redis.Driver)
	}
	if c.Auth.AccessTokenTTLSeconds <= 0 {
		return fmt.Errorf("AUTH_ACCESS_TOKEN_TTL_SECONDS must be positive")
	}
	if c.Auth.RefreshTokenTTLSeconds <= 0 {
		return fmt.Errorf("AUTH_REFRESH_TOKEN_TTL_SECONDS must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

// RefreshTokenTTL returns the lifetime of refresh tokens and cached session fields.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLSeconds) * time.Second
}

// AdminCacheTTL returns how long a directory-resolved admin flag stays cached.
func (a AuthConfig) AdminCacheTTL() time.Duration {
	if a.AdminCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.AdminCacheTTLSeconds) * time.Second
}

// MigrationLockTTL bounds how long a crashed bulk migration can hold the lock.
func (a AuthConfig) MigrationLockTTL() time.Duration {
	if a.MigrationLockTTLSecs <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.MigrationLockTTLSecs) * time.Second
}

// RefreshShorterThanAccess reports the inverted TTL relationship of the
// default configuration, where an access token outlives its refresh token.
func (a AuthConfig) RefreshShorterThanAccess() bool {
	return a.RefreshTokenTTLSeconds < a.AccessTokenTTLSeconds
}

// Interval returns the breaker's closed-state counter reset interval.
func (b BreakerConfig) Interval() time.Duration {
	return time.Duration(b.IntervalSeconds) * time.Second
}

// Timeout returns how long the breaker stays open.
func (b BreakerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
