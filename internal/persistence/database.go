package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/config"
)

// Database is an opened SQL backend together with its dialect.
type Database struct {
	SQL      *sql.DB
	Dialect  string
	postgres *Postgres
}

// OpenDatabase connects to the configured SQL driver.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Database{SQL: pg.DB(), Dialect: config.DriverPostgres, postgres: pg}, nil
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return &Database{SQL: db, Dialect: config.DriverSQLite}, nil
	default:
		return nil, fmt.Errorf("driver %q has no SQL backend", cfg.Driver)
	}
}

// Ping verifies connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d.postgres != nil {
		return d.postgres.Ping(ctx)
	}
	return d.SQL.PingContext(ctx)
}

// Close releases the backend.
func (d *Database) Close() {
	if d == nil {
		return
	}
	if d.postgres != nil {
		d.postgres.Close()
		return
	}
	if d.SQL != nil {
		_ = d.SQL.Close()
	}
}

// Rebind rewrites ? placeholders into the dialect's positional form.
func Rebind(dialect, query string) string {
	if dialect != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
