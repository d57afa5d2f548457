package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
)

const selectColumns = `id, name, secret, counter, "type", provider, issuer, original_name`

// args accumulates positional query arguments.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func where(f store.Filter, a *args) string {
	var conds []string
	if f.ID != nil {
		conds = append(conds, "id = "+a.add(*f.ID))
	}
	if f.Name != nil {
		conds = append(conds, "name = "+a.add(*f.Name))
	}
	if f.Issuer != nil {
		conds = append(conds, "issuer = "+a.add(*f.Issuer))
	}
	if f.NoIssuer {
		conds = append(conds, "issuer IS NULL")
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanRecord(row pgx.CollectableRow) (entity.AccountRecord, error) {
	var (
		rec      entity.AccountRecord
		typ      int32
		provider int32
		issuer   *string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Secret, &rec.Counter, &typ, &provider, &issuer, &rec.OriginalName); err != nil {
		return entity.AccountRecord{}, err
	}

	rec.Type = entity.OTPType(typ)
	rec.Provider = entity.Provider(provider)
	if issuer != nil {
		rec.Issuer = *issuer
	}

	return rec, nil
}

func (s *DB) Find(ctx context.Context, f store.Filter) (_ []entity.AccountRecord, err error) {
	ctx, span := s.startSpan(ctx, "Find")
	defer func() { s.endSpan(span, err) }()

	var a args
	query := "SELECT " + selectColumns + " FROM " + tableName + where(f, &a) + " ORDER BY id"

	rows, err := s.conn.Query(ctx, query, a...)
	if err != nil {
		return nil, s.mapError(err)
	}

	recs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, s.mapError(err)
	}

	return recs, nil
}

func (s *DB) Insert(ctx context.Context, rec entity.AccountRecord) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Insert")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, `
		INSERT INTO `+tableName+` (name, secret, counter, "type", provider, issuer, original_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		rec.Name,
		rec.Secret,
		rec.Counter,
		int32(rec.Type),
		int32(rec.Provider),
		nullable(rec.Issuer),
		rec.OriginalName,
	).Scan(&id)
	if err != nil {
		return 0, s.mapError(err)
	}

	return id, nil
}

func (s *DB) Update(ctx context.Context, f store.Filter, p store.Patch) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer func() { s.endSpan(span, err) }()

	if p.IsEmpty() {
		return 0, nil
	}

	var (
		a    args
		sets []string
	)
	if p.ID != nil {
		sets = append(sets, "id = "+a.add(*p.ID))
	}
	if p.Name != nil {
		sets = append(sets, "name = "+a.add(*p.Name))
	}
	if p.Issuer != nil {
		sets = append(sets, "issuer = "+a.add(nullable(*p.Issuer)))
	}
	if p.Secret != nil {
		sets = append(sets, "secret = "+a.add(*p.Secret))
	}
	if p.Type != nil {
		sets = append(sets, `"type" = `+a.add(int32(*p.Type)))
	}
	if p.Counter != nil {
		sets = append(sets, "counter = "+a.add(*p.Counter))
	}
	if p.Provider != nil {
		sets = append(sets, "provider = "+a.add(int32(*p.Provider)))
	}

	query := "UPDATE " + tableName + " SET " + strings.Join(sets, ", ") + where(f, &a)

	tag, err := s.conn.Exec(ctx, query, a...)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) Delete(ctx context.Context, f store.Filter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	var a args
	tag, err := s.conn.Exec(ctx, "DELETE FROM "+tableName+where(f, &a), a...)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
