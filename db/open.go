package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// DialectOf picks the backend for dsn: postgres:// and postgresql:// URLs
// use Postgres, anything else is a SQLite path.
func DialectOf(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Handle, error) {
	dialect := DialectOf(dsn)

	var (
		raw *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		raw, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		raw.SetMaxOpenConns(10)
		raw.SetMaxIdleConns(5)
	default:
		raw, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Single connection: prevents concurrent write conflicts
		raw.SetMaxOpenConns(1)
		raw.SetMaxIdleConns(1)
		raw.SetConnMaxLifetime(0)

		for _, pragma := range sqlitePragmas {
			if _, err := raw.ExecContext(ctx, pragma); err != nil {
				raw.Close()
				return nil, fmt.Errorf("pragma failed (%s): %w", pragma, err)
			}
		}
	}

	if err := raw.PingContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if err := RunMigrations(ctx, raw, dialect); err != nil {
		raw.Close()
		return nil, err
	}
	return newHandle(raw, dialect), nil
}
