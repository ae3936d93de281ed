package storage

import "errors"

// Common client storage errors
var (
	// ErrSnapshotNotFound indicates that no reservation snapshot has been saved yet
	ErrSnapshotNotFound = errors.New("reservation snapshot not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
