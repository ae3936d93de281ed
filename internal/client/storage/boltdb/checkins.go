package boltdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/hoteldesk/internal/client/storage"
)

var _ storage.CheckInFlagStore = (*Storage)(nil)

// LoadCheckInFlags returns ids of reservations checked in optimistically
func (s *Storage) LoadCheckInFlags(ctx context.Context) ([]int64, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ids []int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCheckIns)
		if bucket == nil {
			return fmt.Errorf("checkins bucket not found")
		}

		return bucket.ForEach(func(k, _ []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("invalid checkin key length %d", len(k))
			}
			ids = append(ids, int64(binary.BigEndian.Uint64(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// SaveCheckInFlags replaces the stored set of optimistic check-in flags
func (s *Storage) SaveCheckInFlags(ctx context.Context, ids []int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		// Пересоздаем bucket, чтобы удалить снятые флаги
		if err := tx.DeleteBucket(bucketCheckIns); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to reset checkins bucket: %w", err)
		}
		bucket, err := tx.CreateBucket(bucketCheckIns)
		if err != nil {
			return fmt.Errorf("failed to create checkins bucket: %w", err)
		}

		for _, id := range ids {
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(id))
			if err := bucket.Put(key, []byte{1}); err != nil {
				return fmt.Errorf("failed to save checkin flag %d: %w", id, err)
			}
		}

		return nil
	})
}
