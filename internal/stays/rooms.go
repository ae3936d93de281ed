package stays

import (
	"sort"
	"time"

	"github.com/iudanet/hoteldesk/internal/models"
)

// RoomState is the housekeeping display state of a room
type RoomState string

const (
	RoomAvailable RoomState = "available"
	RoomOccupied  RoomState = "occupied"
	RoomCleaning  RoomState = "cleaning"
)

// RoomStatus is one row of the room board
type RoomStatus struct {
	Since         time.Time // начало текущего состояния, если известно
	Room          string
	State         RoomState
	Guest         string
	ReservationID int64
}

// RoomBoard derives the state of every room mentioned in records.
// A room is occupied while it has an active stay, cleaning for cleaningWindow
// after its latest actual check-out, and available otherwise.
// checkedIn reports optimistic check-in flags and may be nil.
func RoomBoard(records []models.Reservation, checkedIn func(id int64) bool, now time.Time, cleaningWindow time.Duration) []RoomStatus {
	board := make(map[string]*RoomStatus)
	lastCheckout := make(map[string]time.Time)

	for _, rec := range records {
		if rec.RoomNumber == "" {
			continue
		}
		row, ok := board[rec.RoomNumber]
		if !ok {
			row = &RoomStatus{Room: rec.RoomNumber, State: RoomAvailable}
			board[rec.RoomNumber] = row
		}

		flagged := checkedIn != nil && checkedIn(rec.ID)
		if DeriveStatus(rec, flagged) == StatusActive {
			row.State = RoomOccupied
			row.Guest = rec.GuestName
			row.ReservationID = rec.ID
			if rec.CheckInActual.Valid() {
				row.Since = rec.CheckInActual.Time
			}
			continue
		}

		if rec.CheckedOut() && rec.CheckOutActual.After(lastCheckout[rec.RoomNumber]) {
			lastCheckout[rec.RoomNumber] = rec.CheckOutActual.Time
		}
	}

	rows := make([]RoomStatus, 0, len(board))
	for room, row := range board {
		if row.State != RoomOccupied {
			if out, ok := lastCheckout[room]; ok && now.Sub(out) < cleaningWindow {
				row.State = RoomCleaning
				row.Since = out
			}
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Room < rows[j].Room })
	return rows
}
