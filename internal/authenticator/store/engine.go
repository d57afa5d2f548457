package store

import (
	"context"
	"errors"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

// Column names of the accounts table that may be missing on an old store.
const (
	ColumnProvider     = "provider"
	ColumnIssuer       = "issuer"
	ColumnOriginalName = "original_name"
)

// ErrConflict is returned by an Engine when a write breaks the (name, issuer)
// or id uniqueness.
var ErrConflict = errors.New("store: unique constraint violated")

// Engine is the persistence capability the store is built on: a single
// accounts table with exact-match reads and writes and transactions.
type Engine interface {
	// EnsureTable creates the accounts table when it does not exist.
	EnsureTable(ctx context.Context) error
	// Columns lists the live column names of the accounts table.
	Columns(ctx context.Context) ([]string, error)
	// AddColumn adds one of the Column* columns with its default.
	AddColumn(ctx context.Context, column string) error

	// Find returns the matching records ordered by id.
	Find(ctx context.Context, f Filter) ([]entity.AccountRecord, error)
	// Insert stores rec, assigning its id, and returns the id.
	Insert(ctx context.Context, rec entity.AccountRecord) (int64, error)
	// Update applies p to the matching records and returns how many changed.
	Update(ctx context.Context, f Filter, p Patch) (int64, error)
	// Delete removes the matching records and returns how many were removed.
	Delete(ctx context.Context, f Filter) (int64, error)

	// InTx runs fn in one transaction, rolled back when fn fails.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Engine) error) error

	Close()
}

// Filter is an exact-match predicate; nil fields match anything.
type Filter struct {
	ID     *int64
	Name   *string
	Issuer *string
	// NoIssuer matches records whose issuer is absent.
	NoIssuer bool
}

// ByIndex matches the record with exactly this (name, issuer).
func ByIndex(idx entity.AccountIndex) Filter {
	f := Filter{Name: &idx.Name}
	if idx.HasIssuer() {
		f.Issuer = &idx.Issuer
	} else {
		f.NoIssuer = true
	}
	return f
}

// ByIssuer matches every record of issuer.
func ByIssuer(issuer string) Filter {
	return Filter{Issuer: &issuer}
}

// ByID matches the record with id.
func ByID(id int64) Filter {
	return Filter{ID: &id}
}

// All matches every record.
func All() Filter {
	return Filter{}
}

// Patch sets the non-nil fields.
type Patch struct {
	ID       *int64
	Name     *string
	Issuer   *string
	Secret   *string
	Type     *entity.OTPType
	Counter  *int32
	Provider *entity.Provider
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.ID == nil && p.Name == nil && p.Issuer == nil && p.Secret == nil &&
		p.Type == nil && p.Counter == nil && p.Provider == nil
}

// Match reports whether rec satisfies f.
func (f Filter) Match(rec entity.AccountRecord) bool {
	if f.ID != nil && rec.ID != *f.ID {
		return false
	}
	if f.Name != nil && rec.Name != *f.Name {
		return false
	}
	if f.Issuer != nil && rec.Issuer != *f.Issuer {
		return false
	}
	if f.NoIssuer && rec.Issuer != "" {
		return false
	}
	return true
}

// Apply returns rec with p applied.
func (p Patch) Apply(rec entity.AccountRecord) entity.AccountRecord {
	if p.ID != nil {
		rec.ID = *p.ID
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Issuer != nil {
		rec.Issuer = *p.Issuer
	}
	if p.Secret != nil {
		rec.Secret = *p.Secret
	}
	if p.Type != nil {
		rec.Type = *p.Type
	}
	if p.Counter != nil {
		rec.Counter = *p.Counter
	}
	if p.Provider != nil {
		rec.Provider = *p.Provider
	}
	return rec
}
