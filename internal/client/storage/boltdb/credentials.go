package boltdb

import (
	"context"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/iudanet/hoteldesk/internal/client/storage"
)

// Compile-time check that Storage implements CredentialStore
var _ storage.CredentialStore = (*Storage)(nil)

// Get returns the stored value for key.
// Read failures are logged and reported as a missing key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool) {
	if s.db == nil {
		return "", false
	}

	var value string
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		// bbolt отдает срез, валидный только внутри транзакции
		value = string(data)
		found = true
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "credential store read failed", "key", key, "error", err)
		return "", false
	}

	return value, found
}

// Set stores value under key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}

		return nil
	})
}

// Clear removes the listed keys in a single transaction
func (s *Storage) Clear(ctx context.Context, keys ...string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}

		return nil
	})
}
