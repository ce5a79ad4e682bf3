// Package db opens the history database and hides the placeholder and
// transaction differences between SQLite and Postgres.
package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect names the SQL backend in use.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// execer is the statement surface shared by *sql.DB and *sql.Conn.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// binder runs statements written with ? placeholders, numbering them for
// Postgres.
type binder struct {
	ex      execer
	dialect Dialect
}

func (b binder) bind(query string) string {
	if b.dialect == DialectPostgres {
		return numberPlaceholders(query)
	}
	return query
}

func (b binder) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.ex.ExecContext(ctx, b.bind(query), args...)
}

func (b binder) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.ex.QueryContext(ctx, b.bind(query), args...)
}

func (b binder) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.ex.QueryRowContext(ctx, b.bind(query), args...)
}

// Handle is an open database pool together with its dialect.
type Handle struct {
	binder
	pool *sql.DB
}

func newHandle(pool *sql.DB, dialect Dialect) *Handle {
	return &Handle{binder: binder{ex: pool, dialect: dialect}, pool: pool}
}

func (h *Handle) Dialect() Dialect                      { return h.dialect }
func (h *Handle) PingContext(ctx context.Context) error { return h.pool.PingContext(ctx) }
func (h *Handle) Close() error                          { return h.pool.Close() }

// Tx is a transaction pinned to one connection. See WithTx.
type Tx struct {
	binder
}

// numberPlaceholders turns each ? outside single-quoted literals into $1,
// $2, ... in order.
func numberPlaceholders(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	quoted := false
	rest := query
	for {
		i := strings.IndexAny(rest, "'?")
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:i])
		switch {
		case rest[i] == '\'':
			// A doubled quote flips twice and stays inside the literal.
			quoted = !quoted
			b.WriteByte('\'')
		case quoted:
			b.WriteByte('?')
		default:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		}
		rest = rest[i+1:]
	}
}
