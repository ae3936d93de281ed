package stays

import (
	"slices"
	"sync"

	"github.com/iudanet/hoteldesk/internal/models"
)

// Tracker holds optimistic check-in flags: reservations whose check-in
// succeeded on the server while the refreshed record has not been seen yet.
type Tracker struct {
	flags map[int64]struct{}
	mu    sync.RWMutex
}

// NewTracker creates a tracker, optionally restoring saved flags
func NewTracker(ids ...int64) *Tracker {
	t := &Tracker{flags: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		t.flags[id] = struct{}{}
	}
	return t
}

// MarkCheckedIn sets the flag after a successful check-in call
func (t *Tracker) MarkCheckedIn(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[id] = struct{}{}
}

// IsCheckedIn reports whether id carries an optimistic flag
func (t *Tracker) IsCheckedIn(id int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.flags[id]
	return ok
}

// Reconcile drops flags made redundant by authoritative data: a record that
// shows an actual check-in (or check-out) no longer needs the local flag.
// Returns the cleared ids.
func (t *Tracker) Reconcile(records []models.Reservation) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cleared []int64
	for _, rec := range records {
		if _, ok := t.flags[rec.ID]; !ok {
			continue
		}
		if rec.CheckedIn() || rec.CheckedOut() {
			delete(t.flags, rec.ID)
			cleared = append(cleared, rec.ID)
		}
	}
	return cleared
}

// IDs returns the flagged ids in ascending order
func (t *Tracker) IDs() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.flags))
	for id := range t.flags {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply reconciles the flags against records and derives every view
func (t *Tracker) Apply(records []models.Reservation) []StayView {
	t.Reconcile(records)

	views := make([]StayView, 0, len(records))
	for _, rec := range records {
		views = append(views, Derive(rec, t.IsCheckedIn(rec.ID)))
	}
	return views
}
