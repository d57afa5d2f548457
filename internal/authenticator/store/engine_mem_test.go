package store

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

// memEngine is an in-memory Engine with the same uniqueness rules as the
// accounts table.
type memEngine struct {
	mu      *sync.Mutex
	recs    *[]entity.AccountRecord
	nextID  *int64
	columns *[]string
	inTx    bool

	failUpdateAt int // 1-based Update call that fails, 0 for never
	updates      *int
}

func newMemEngine() *memEngine {
	recs := []entity.AccountRecord{}
	next := int64(1)
	cols := []string{"id", "name", "secret", "counter", "type", ColumnProvider, ColumnIssuer, ColumnOriginalName}
	updates := 0
	return &memEngine{mu: &sync.Mutex{}, recs: &recs, nextID: &next, columns: &cols, updates: &updates}
}

func newLegacyMemEngine(recs ...entity.AccountRecord) *memEngine {
	e := newMemEngine()
	*e.columns = []string{"id", "name", "secret", "counter", "type"}
	for _, r := range recs {
		r.ID = *e.nextID
		*e.nextID++
		*e.recs = append(*e.recs, r)
	}
	return e
}

func (e *memEngine) lock() func() {
	if e.inTx {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

func (e *memEngine) EnsureTable(context.Context) error { return nil }

func (e *memEngine) Columns(context.Context) ([]string, error) {
	defer e.lock()()
	return slices.Clone(*e.columns), nil
}

func (e *memEngine) AddColumn(_ context.Context, column string) error {
	defer e.lock()()
	*e.columns = append(*e.columns, column)
	return nil
}

func (e *memEngine) Find(_ context.Context, f Filter) ([]entity.AccountRecord, error) {
	defer e.lock()()
	out := []entity.AccountRecord{}
	for _, r := range *e.recs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (e *memEngine) conflicts(rec entity.AccountRecord, skip int) bool {
	for i, r := range *e.recs {
		if i == skip {
			continue
		}
		if r.ID == rec.ID || (r.Name == rec.Name && r.Issuer == rec.Issuer) {
			return true
		}
	}
	return false
}

func (e *memEngine) Insert(_ context.Context, rec entity.AccountRecord) (int64, error) {
	defer e.lock()()
	rec.ID = *e.nextID
	if e.conflicts(rec, -1) {
		return 0, ErrConflict
	}
	*e.nextID++
	*e.recs = append(*e.recs, rec)
	return rec.ID, nil
}

func (e *memEngine) Update(_ context.Context, f Filter, p Patch) (int64, error) {
	defer e.lock()()
	*e.updates++
	if e.failUpdateAt > 0 && *e.updates == e.failUpdateAt {
		return 0, errors.New("injected failure")
	}

	var n int64
	for i, r := range *e.recs {
		if !f.Match(r) {
			continue
		}
		next := p.Apply(r)
		if e.conflicts(next, i) {
			return n, ErrConflict
		}
		(*e.recs)[i] = next
		n++
	}
	return n, nil
}

func (e *memEngine) Delete(_ context.Context, f Filter) (int64, error) {
	defer e.lock()()
	before := len(*e.recs)
	*e.recs = slices.DeleteFunc(*e.recs, f.Match)
	return int64(before - len(*e.recs)), nil
}

func (e *memEngine) InTx(ctx context.Context, fn func(ctx context.Context, tx Engine) error) error {
	if e.inTx {
		return fn(ctx, e)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := slices.Clone(*e.recs)
	next := *e.nextID
	tx := *e
	tx.inTx = true

	if err := fn(ctx, &tx); err != nil {
		*e.recs = snapshot
		*e.nextID = next
		return err
	}
	return nil
}

func (e *memEngine) Close() {}

func (e *memEngine) all() []entity.AccountRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := slices.Clone(*e.recs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
