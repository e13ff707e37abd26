package storage

import (
	"context"
	"errors"

	"budget/internal/core"
)

// DefaultKey is the storage identifier of the single ledger document.
const DefaultKey = "budgetApp"

// ErrStorageUnavailable wraps every failure of the persistence layer.
// Callers treat the operation as not applied.
var ErrStorageUnavailable = errors.New("storage unavailable")

// UpdateFunc computes the next ledger from the stored one.
type UpdateFunc func(core.Ledger) (core.Ledger, error)

// Ports for the record store.
type (
	// DocumentStore owns the persisted ledger. Load returns a fresh ledger
	// when nothing is stored; Save replaces the whole document at once.
	// Update loads, applies fn and saves as one unit that no other writer,
	// in this process or another, can interleave with. An error from fn is
	// returned unchanged and nothing is saved.
	DocumentStore interface {
		Load(ctx context.Context) (core.Ledger, error)
		Save(ctx context.Context, doc core.Ledger) error
		Update(ctx context.Context, fn UpdateFunc) (core.Ledger, error)
		Reset(ctx context.Context) error
		Close() error
	}
)
