package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
)

// InTx runs fn against a transaction-bound DB. Nested calls reuse the
// outer transaction.
func (s *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Engine) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	ctx, span := s.startSpan(ctx, "InTx")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if err = fn(ctx, &DB{conn: tx, inTx: true, ins: s.ins}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
