package storage

import "context"

// CheckInFlagStore persists optimistic check-in flags between CLI runs
type CheckInFlagStore interface {
	// LoadCheckInFlags returns reservation ids marked as checked in locally
	LoadCheckInFlags(ctx context.Context) ([]int64, error)

	// SaveCheckInFlags replaces the stored set
	SaveCheckInFlags(ctx context.Context, ids []int64) error
}
