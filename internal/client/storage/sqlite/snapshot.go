package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/hoteldesk/internal/client/storage"
)

var _ storage.SnapshotStore = (*Storage)(nil)

// SaveSnapshot replaces the cached reservation list in one transaction
func (s *Storage) SaveSnapshot(ctx context.Context, snap *storage.ReservationSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_snapshot`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reservation_snapshot (position, record) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, record := range snap.Records {
		if _, err := stmt.ExecContext(ctx, i, string(record)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, fetched_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		snap.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the cached reservation list
func (s *Storage) LoadSnapshot(ctx context.Context) (*storage.ReservationSnapshot, error) {
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshot_meta WHERE id = 1`).Scan(&fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT record FROM reservation_snapshot ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	snap := &storage.ReservationSnapshot{
		FetchedAt: time.Unix(fetchedAt, 0),
		Records:   [][]byte{},
	}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		snap.Records = append(snap.Records, []byte(record))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}

	return snap, nil
}

// ClearSnapshot удаляет кэш броней (выход пользователя)
func (s *Storage) ClearSnapshot(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_snapshot`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_meta`); err != nil {
		return fmt.Errorf("failed to clear snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot clear: %w", err)
	}
	return nil
}
