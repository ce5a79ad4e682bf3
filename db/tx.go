package db

import (
	"context"
	"fmt"

	"vidrank/logging"
)

// beginStatement opens a write transaction. SQLite takes its write lock
// up front.
func beginStatement(d Dialect) string {
	if d == DialectSQLite {
		return "BEGIN IMMEDIATE"
	}
	return "BEGIN"
}

// WithTx runs fn inside a transaction on a dedicated connection. The
// transaction commits when fn returns nil and rolls back when fn returns an
// error or panics.
func WithTx(ctx context.Context, h *Handle, fn func(tx *Tx) error) (err error) {
	conn, err := h.pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, beginStatement(h.dialect)); err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		cause := err
		p := recover()
		if p != nil {
			cause = fmt.Errorf("panic: %v", p)
		}
		if _, rbErr := conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK"); rbErr != nil {
			logger := logging.WithComponent("db")
			logger.Error().Err(rbErr).AnErr("cause", cause).Msg("rollback failed")
		}
		if p != nil {
			panic(p)
		}
	}()

	if err := fn(&Tx{binder{ex: conn, dialect: h.dialect}}); err != nil {
		return err
	}
	done = true
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
