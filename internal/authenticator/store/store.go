// Package store implements the credential store: identity resolution,
// duplicate handling, renames, ordering and schema migration of the
// accounts table on top of an Engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

// swapSentinelID is an id no real record uses, staged through during SwapID.
const swapSentinelID int64 = -1

// Store is the credential store.
type Store struct {
	engine Engine
}

// New wraps engine without touching the schema.
func New(engine Engine) *Store {
	return &Store{engine: engine}
}

// Open creates the accounts table if needed and migrates it.
func Open(ctx context.Context, engine Engine) (*Store, error) {
	if err := engine.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("store: create table: %w", err)
	}

	s := New(engine)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Close closes the engine.
func (s *Store) Close() {
	s.engine.Close()
}

func (s *Store) get(ctx context.Context, e Engine, idx entity.AccountIndex) (*entity.AccountRecord, error) {
	recs, err := e.Find(ctx, ByIndex(idx))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Exists reports whether a record with exactly idx exists.
func (s *Store) Exists(ctx context.Context, idx entity.AccountIndex) (bool, error) {
	rec, err := s.get(ctx, s.engine, idx)
	return rec != nil, err
}

// FindSimilar returns idx if it exists; otherwise, when idx has an issuer,
// the first record of that issuer with the same stripped name. Issuer-less
// indexes only match themselves.
func (s *Store) FindSimilar(ctx context.Context, idx entity.AccountIndex) (*entity.AccountIndex, error) {
	return s.findSimilar(ctx, s.engine, idx)
}

func (s *Store) findSimilar(ctx context.Context, e Engine, idx entity.AccountIndex) (*entity.AccountIndex, error) {
	rec, err := s.get(ctx, e, idx)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return &idx, nil
	}
	if !idx.HasIssuer() {
		return nil, nil
	}

	recs, err := e.Find(ctx, ByIssuer(idx.Issuer))
	if err != nil {
		return nil, err
	}

	stripped := idx.StrippedName()
	found, ok := lo.Find(recs, func(r entity.AccountRecord) bool {
		return r.Index().StrippedName() == stripped
	})
	if !ok {
		return nil, nil
	}

	similar := found.Index()
	return &similar, nil
}

// overwrites reports whether add resolves idx by overwriting.
func overwrites(idx entity.AccountIndex) bool {
	return idx.HasIssuer() || idx.IsLegacyGoogle()
}

// AddWillOverwrite reports whether Add with idx would overwrite an existing
// record instead of inserting a new one.
func (s *Store) AddWillOverwrite(ctx context.Context, idx entity.AccountIndex) (bool, error) {
	if !overwrites(idx) {
		return false, nil
	}

	similar, err := s.FindSimilar(ctx, idx)
	if err != nil {
		return false, err
	}
	return similar != nil, nil
}

// Add stores an account and returns the index actually written.
//
// With an issuer (or for the legacy Google account) a similar record is
// overwritten in place and renamed to the requested name when possible.
// Without an issuer nothing is overwritten: on a name collision "name(k)"
// is tried for k = 1.. until entity.MaxDuplicateNames.
func (s *Store) Add(ctx context.Context, in entity.NewAccount) (entity.AccountIndex, error) {
	idx := in.Index()

	if overwrites(idx) {
		return s.addOrOverwrite(ctx, idx, in)
	}

	return s.addWithSuffix(ctx, idx, in)
}

// addOrOverwrite resolves, overwrites and renames in one transaction, so
// readers never see the new secret under the old name.
func (s *Store) addOrOverwrite(ctx context.Context, idx entity.AccountIndex, in entity.NewAccount) (entity.AccountIndex, error) {
	written := idx

	err := s.engine.InTx(ctx, func(ctx context.Context, tx Engine) error {
		similar, err := s.findSimilar(ctx, tx, idx)
		if err != nil {
			return err
		}

		if similar == nil {
			_, err := tx.Insert(ctx, newRecord(idx, in))
			return err
		}

		typ := in.Type
		counter := in.Counter
		if _, err := s.update(ctx, tx, *similar, entity.AccountPatch{
			Secret:     &in.Secret,
			Type:       &typ,
			Counter:    &counter,
			GoogleHint: in.GoogleHint,
		}); err != nil {
			return err
		}

		written = *similar
		if similar.Name == idx.Name {
			return nil
		}

		renamed, err := s.rename(ctx, tx, *similar, idx.Name)
		if errors.Is(err, entity.ErrUnsupportedOperation) {
			renamed, err = false, nil
		}
		if err != nil {
			return err
		}
		if !renamed {
			slog.WarnContext(ctx, "overwritten account keeps its name",
				"account", similar.String(), "new_name", idx.Name)
			return nil
		}

		written = idx
		return nil
	})
	if err != nil {
		return entity.AccountIndex{}, err
	}

	return written, nil
}

func (s *Store) addWithSuffix(ctx context.Context, idx entity.AccountIndex, in entity.NewAccount) (entity.AccountIndex, error) {
	for k := 0; k < entity.MaxDuplicateNames; k++ {
		candidate := idx
		if k > 0 {
			candidate.Name = fmt.Sprintf("%s(%d)", idx.Name, k)
		}

		rec := newRecord(candidate, in)
		rec.OriginalName = lo.ToPtr(idx.Name)

		_, err := s.engine.Insert(ctx, rec)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return entity.AccountIndex{}, err
		}

		return candidate, nil
	}

	return entity.AccountIndex{}, fmt.Errorf("%w: %q", entity.ErrDuplicateLimit, idx.Name)
}

func newRecord(idx entity.AccountIndex, in entity.NewAccount) entity.AccountRecord {
	return entity.AccountRecord{
		Name:         idx.Name,
		Issuer:       idx.Issuer,
		Secret:       in.Secret,
		Type:         in.Type,
		Counter:      in.Counter,
		Provider:     entity.ProviderFromHint(in.GoogleHint),
		OriginalName: lo.ToPtr(idx.Name),
	}
}

// Update changes the given fields of an existing record. It returns false
// when no record matches idx.
func (s *Store) Update(ctx context.Context, idx entity.AccountIndex, p entity.AccountPatch) (bool, error) {
	return s.update(ctx, s.engine, idx, p)
}

func (s *Store) update(ctx context.Context, e Engine, idx entity.AccountIndex, p entity.AccountPatch) (bool, error) {
	if p.IsEmpty() {
		rec, err := s.get(ctx, e, idx)
		return rec != nil, err
	}

	patch := Patch{Secret: p.Secret, Type: p.Type, Counter: p.Counter}
	if p.GoogleHint != nil {
		patch.Provider = lo.ToPtr(entity.ProviderFromHint(p.GoogleHint))
	}

	n, err := e.Update(ctx, ByIndex(idx), patch)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Rename gives the record at old the name newName, keeping its issuer, id
// and every other field. It returns false when (newName, issuer) is taken or
// old does not exist. Renaming the legacy Google account is not supported.
func (s *Store) Rename(ctx context.Context, old entity.AccountIndex, newName string) (bool, error) {
	var renamed bool
	err := s.engine.InTx(ctx, func(ctx context.Context, tx Engine) error {
		var err error
		renamed, err = s.rename(ctx, tx, old, newName)
		return err
	})
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return renamed, nil
}

// rename checks the target first so a taken name does not reach the
// unique index and abort an enclosing transaction.
func (s *Store) rename(ctx context.Context, e Engine, old entity.AccountIndex, newName string) (bool, error) {
	if newName == old.Name {
		return true, nil
	}
	if old.Name == entity.LegacyGoogleAccountName {
		return false, entity.ErrUnsupportedOperation
	}

	existing, err := s.get(ctx, e, entity.AccountIndex{Name: newName, Issuer: old.Issuer})
	if err != nil || existing != nil {
		return false, err
	}

	n, err := e.Update(ctx, ByIndex(old), Patch{Name: &newName})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the record at idx, if any.
func (s *Store) Delete(ctx context.Context, idx entity.AccountIndex) error {
	_, err := s.engine.Delete(ctx, ByIndex(idx))
	return err
}

// IncrementCounter adds one to the HOTP counter of idx. The counter wraps
// at the int32 boundary. TOTP records are refused with
// entity.ErrUnsupportedOperation.
func (s *Store) IncrementCounter(ctx context.Context, idx entity.AccountIndex) error {
	return s.engine.InTx(ctx, func(ctx context.Context, tx Engine) error {
		rec, err := s.get(ctx, tx, idx)
		if err != nil {
			return err
		}
		if rec == nil {
			return entity.ErrNoSuchAccount
		}
		if rec.Type != entity.OTPTypeHOTP {
			return entity.ErrUnsupportedOperation
		}

		next := rec.Counter + 1
		_, err = tx.Update(ctx, ByID(rec.ID), Patch{Counter: &next})
		return err
	})
}

// Get returns the record at idx, or nil when there is none.
func (s *Store) Get(ctx context.Context, idx entity.AccountIndex) (*entity.AccountRecord, error) {
	return s.get(ctx, s.engine, idx)
}

// GetSecret returns the Base32 secret of idx; ok is false when it does not exist.
func (s *Store) GetSecret(ctx context.Context, idx entity.AccountIndex) (secret string, ok bool, err error) {
	rec, err := s.Get(ctx, idx)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Secret, true, nil
}

// GetCounter returns the HOTP counter of idx; ok is false when it does not exist.
func (s *Store) GetCounter(ctx context.Context, idx entity.AccountIndex) (counter int32, ok bool, err error) {
	rec, err := s.Get(ctx, idx)
	if err != nil || rec == nil {
		return 0, false, err
	}
	return rec.Counter, true, nil
}

// GetType returns the passcode type of idx; ok is false when it does not exist.
func (s *Store) GetType(ctx context.Context, idx entity.AccountIndex) (typ entity.OTPType, ok bool, err error) {
	rec, err := s.Get(ctx, idx)
	if err != nil || rec == nil {
		return entity.OTPTypeTOTP, false, err
	}
	return rec.Type, true, nil
}

// GetOriginalName returns the creation-time name of idx; ok is false when
// the record does not exist or predates original names.
func (s *Store) GetOriginalName(ctx context.Context, idx entity.AccountIndex) (name string, ok bool, err error) {
	rec, err := s.Get(ctx, idx)
	if err != nil || rec == nil || rec.OriginalName == nil {
		return "", false, err
	}
	return *rec.OriginalName, true, nil
}

// SwapID exchanges the ids, and so the list order, of two records in one
// transaction. Any failure rolls back and returns entity.ErrSwapFailed.
func (s *Store) SwapID(ctx context.Context, first, second entity.AccountIndex) error {
	err := s.engine.InTx(ctx, func(ctx context.Context, tx Engine) error {
		a, err := s.get(ctx, tx, first)
		if err != nil {
			return err
		}
		b, err := s.get(ctx, tx, second)
		if err != nil {
			return err
		}
		if a == nil || b == nil {
			return entity.ErrNoSuchAccount
		}
		if a.ID == b.ID {
			return nil
		}

		sentinel := swapSentinelID
		steps := []struct {
			filter Filter
			id     int64
		}{
			{filter: ByID(b.ID), id: sentinel},
			{filter: ByID(a.ID), id: b.ID},
			{filter: ByID(sentinel), id: a.ID},
		}
		for _, step := range steps {
			id := step.id
			n, err := tx.Update(ctx, step.filter, Patch{ID: &id})
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("updated %d rows", n)
			}
		}

		return nil
	})
	if err != nil {
		return errors.Join(entity.ErrSwapFailed, err)
	}

	return nil
}

// ListAccounts returns every account in stored order.
func (s *Store) ListAccounts(ctx context.Context) ([]entity.AccountIndex, error) {
	recs, err := s.engine.Find(ctx, All())
	if err != nil {
		return nil, err
	}

	return lo.Map(recs, func(r entity.AccountRecord, _ int) entity.AccountIndex {
		return r.Index()
	}), nil
}

// ListRecords returns every record in stored order.
func (s *Store) ListRecords(ctx context.Context) ([]entity.AccountRecord, error) {
	return s.engine.Find(ctx, All())
}
