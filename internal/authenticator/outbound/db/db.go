package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tableName = "accounts"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is the PostgreSQL store.Engine over a single accounts table.
type DB struct {
	pool *pgxpool.Pool
	conn querier
	inTx bool
	ins  instrument.Instrumentation
}

func NewDB(pool *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		pool: pool,
		conn: pool,
		ins:  ins,
	}
}

// - 23505 unique_violation → store.ErrConflict
// - 40001 serialization_failure and 40P01 deadlock_detected are returned as is
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, store.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Ping checks the connection.
func (s *DB) Ping(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "Ping")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, "SELECT 1")
	return err
}

// Close closes the pool. It is a no-op inside a transaction.
func (s *DB) Close() {
	if s.inTx || s.pool == nil {
		return
	}
	s.pool.Close()
}
