package storage

import (
	"context"
	"time"
)

// ReservationSnapshot is the last successfully fetched reservation list.
// Records are kept as raw JSON so the cache does not depend on the model layout.
type ReservationSnapshot struct {
	FetchedAt time.Time
	Records   [][]byte
}

// SnapshotStore keeps the last reservation list for offline display
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot
	SaveSnapshot(ctx context.Context, snap *ReservationSnapshot) error

	// LoadSnapshot returns the stored snapshot or ErrSnapshotNotFound
	LoadSnapshot(ctx context.Context) (*ReservationSnapshot, error)

	// ClearSnapshot removes the stored snapshot; clearing an empty cache is not an error
	ClearSnapshot(ctx context.Context) error
}
