// Package store defines the persistence boundary of the collection.
//
// The engine works on a fully resident snapshot; a store only loads and
// saves that snapshot as a whole.
package store

import (
	"context"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Snapshotter loads and saves the whole collection.
type Snapshotter interface {
	// Load returns the persisted collection. An empty store yields an
	// empty snapshot, not an error.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Save replaces the persisted collection atomically.
	Save(ctx context.Context, snap *domain.Snapshot) error

	// Close releases the underlying resources.
	Close() error
}
