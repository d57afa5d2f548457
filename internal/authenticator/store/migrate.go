package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

// Migrate adds the provider, issuer and original_name columns when they
// are missing. Adding the issuer column also tags "<issuer>:name" records
// with an issuer from entity.AutoUpgradeIssuers.
//
// The backfill is guarded only by the issuer column being absent; it is
// not safe to re-run on a store that already has issuers.
func (s *Store) Migrate(ctx context.Context) error {
	columns, err := s.engine.Columns(ctx)
	if err != nil {
		return fmt.Errorf("store: inspect columns: %w", err)
	}

	has := func(col string) bool {
		return lo.ContainsBy(columns, func(c string) bool { return strings.EqualFold(c, col) })
	}

	if !has(ColumnProvider) {
		if err := s.engine.AddColumn(ctx, ColumnProvider); err != nil {
			return fmt.Errorf("store: add %s: %w", ColumnProvider, err)
		}
		slog.InfoContext(ctx, "account store migrated", "column", ColumnProvider)
	}

	if !has(ColumnIssuer) {
		if err := s.engine.AddColumn(ctx, ColumnIssuer); err != nil {
			return fmt.Errorf("store: add %s: %w", ColumnIssuer, err)
		}
		slog.InfoContext(ctx, "account store migrated", "column", ColumnIssuer)
	}

	if !has(ColumnOriginalName) {
		if err := s.engine.AddColumn(ctx, ColumnOriginalName); err != nil {
			return fmt.Errorf("store: add %s: %w", ColumnOriginalName, err)
		}
		slog.InfoContext(ctx, "account store migrated", "column", ColumnOriginalName)
	}

	// Find reads every column, so the backfill runs once all of them exist.
	if !has(ColumnIssuer) {
		return s.backfillIssuers(ctx)
	}

	return nil
}

func (s *Store) backfillIssuers(ctx context.Context) error {
	recs, err := s.engine.Find(ctx, Filter{NoIssuer: true})
	if err != nil {
		return fmt.Errorf("store: backfill issuers: %w", err)
	}

	for _, rec := range recs {
		issuer, ok := lo.Find(entity.AutoUpgradeIssuers, func(iss string) bool {
			return strings.HasPrefix(rec.Name, iss+":")
		})
		if !ok {
			continue
		}

		_, err := s.engine.Update(ctx, ByID(rec.ID), Patch{Issuer: &issuer})
		if errors.Is(err, ErrConflict) {
			slog.WarnContext(ctx, "skipped issuer backfill", "id", rec.ID, "issuer", issuer)
			continue
		}
		if err != nil {
			return fmt.Errorf("store: backfill issuers: %w", err)
		}
	}

	return nil
}
