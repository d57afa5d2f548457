package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
)

const createTable = `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name          TEXT NOT NULL,
	secret        TEXT NOT NULL,
	counter       INTEGER NOT NULL DEFAULT 0,
	"type"        INTEGER NOT NULL DEFAULT 0,
	provider      INTEGER NOT NULL DEFAULT 0,
	issuer        TEXT NULL,
	original_name TEXT NULL,
	CONSTRAINT ` + tableName + `_name_issuer_key UNIQUE NULLS NOT DISTINCT (name, issuer)
)`

// addColumnSQL holds the statements run, in order, to add each migrated column.
var addColumnSQL = map[string][]string{
	store.ColumnProvider: {
		`ALTER TABLE ` + tableName + ` ADD COLUMN IF NOT EXISTS provider INTEGER NOT NULL DEFAULT 0`,
	},
	store.ColumnIssuer: {
		`ALTER TABLE ` + tableName + ` ADD COLUMN IF NOT EXISTS issuer TEXT NULL`,
		`ALTER TABLE ` + tableName + ` DROP CONSTRAINT IF EXISTS ` + tableName + `_name_key`,
		`ALTER TABLE ` + tableName + ` ADD CONSTRAINT ` + tableName + `_name_issuer_key UNIQUE NULLS NOT DISTINCT (name, issuer)`,
	},
	store.ColumnOriginalName: {
		`ALTER TABLE ` + tableName + ` ADD COLUMN IF NOT EXISTS original_name TEXT NULL`,
	},
}

func (s *DB) EnsureTable(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureTable")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createTable)
	return s.mapError(err)
}

func (s *DB) Columns(ctx context.Context) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "Columns")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, s.mapError(err)
	}

	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, s.mapError(err)
	}

	return cols, nil
}

// AddColumn adds a migrated column. Adding the issuer column also swaps the
// name-only uniqueness for the (name, issuer) one, all in one transaction.
func (s *DB) AddColumn(ctx context.Context, column string) (err error) {
	ctx, span := s.startSpan(ctx, "AddColumn")
	defer func() { s.endSpan(span, err) }()

	stmts, ok := addColumnSQL[column]
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}

	return s.InTx(ctx, func(ctx context.Context, tx store.Engine) error {
		conn := tx.(*DB).conn
		for _, stmt := range stmts {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return s.mapError(err)
			}
		}
		return nil
	})
}
