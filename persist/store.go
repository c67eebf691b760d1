// Package persist saves and restores state-handle snapshots. A snapshot is
// the JSON document produced by Handle.Snapshot, keyed by the handle's ID;
// restoring produces a fresh handle over an equivalent graph (subscriptions
// and computed properties are runtime wiring and are not persisted — hosts
// re-register them after a load). Storage backends implement Store; the
// package provides an in-memory store for tests and a filesystem store with
// atomic writes.
package persist

import (
	"context"
	"errors"

	"github.com/rnx-ui/reactive/state"
)

// Sentinel errors for store operations.
var (
	ErrNotFound   = errors.New("snapshot not found")
	ErrInvalidKey = errors.New("invalid snapshot key")
	ErrSaveFailed = errors.New("save failed")
	ErrLoadFailed = errors.New("load failed")
)

// Store persists snapshots keyed by handle ID. Implementations are
// stateless between calls and must be safe for concurrent use.
type Store interface {
	// Save persists a snapshot, overwriting any existing one for the same ID.
	Save(ctx context.Context, id string, snapshot []byte) error

	// Load retrieves the snapshot for an ID. Returns ErrNotFound when absent.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes the snapshot for an ID. Missing IDs are ignored.
	Delete(ctx context.Context, id string) error

	// List returns all IDs with stored snapshots.
	List(ctx context.Context) ([]string, error)
}

// Save snapshots the handle into the store under the handle's ID.
func Save(ctx context.Context, store Store, h *state.Handle) error {
	snapshot, err := h.Snapshot()
	if err != nil {
		return err
	}
	return store.Save(ctx, h.ID(), snapshot)
}

// Load restores the handle stored under id. The restored handle keeps id as
// its own ID so a later Save overwrites the same snapshot.
func Load(ctx context.Context, store Store, id string, opts ...state.Option) (*state.Handle, error) {
	snapshot, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	opts = append(opts, state.WithID(id))
	return state.Restore(snapshot, opts...)
}
