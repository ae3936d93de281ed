package stays

import (
	"math"
	"strconv"
	"time"

	"github.com/iudanet/hoteldesk/internal/models"
)

// Status is the single display status of a stay
type Status string

const (
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Display layouts
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// DateTime is a formatted date/time pair. Time is empty for scheduled dates.
type DateTime struct {
	Date string
	Time string
}

// StayView is the read-only projection of a reservation
type StayView struct {
	Entry           DateTime
	Exit            DateTime
	GuestName       string
	DNI             string
	RoomNumber      string
	PaymentMethod   string
	Status          Status
	ID              int64
	NightlyRate     float64
	DiscountPercent float64
	Total           float64
	Nights          int
	Guests          int
	ServerTotal     bool // Total пришел от сервера, а не посчитан локально
}

// DeriveStatus applies the precedence rules, first match wins:
// checked out, cancelled, checked in (server or optimistic), confirmed, pending.
// Unknown state codes fall back to pending.
func DeriveStatus(rec models.Reservation, checkedIn bool) Status {
	state := rec.StateCode.Normalize()

	switch {
	case rec.CheckedOut():
		return StatusFinished
	case state == models.StateCancelled:
		return StatusCancelled
	case rec.CheckedIn() || checkedIn:
		return StatusActive
	case state == models.StateConfirmed:
		return StatusConfirmed
	default:
		return StatusPending
	}
}

// Derive builds the view of rec. checkedIn is the optimistic check-in flag.
func Derive(rec models.Reservation, checkedIn bool) StayView {
	total, fromServer := Total(rec)

	return StayView{
		ID:              rec.ID,
		GuestName:       rec.GuestName,
		DNI:             rec.DNI,
		RoomNumber:      rec.RoomNumber,
		PaymentMethod:   rec.PaymentMethod,
		Status:          DeriveStatus(rec, checkedIn),
		Entry:           pickDateTime(rec.CheckInActual, rec.CheckInScheduled),
		Exit:            pickDateTime(rec.CheckOutActual, rec.CheckOutScheduled),
		Nights:          Nights(rec),
		Guests:          rec.Guests(),
		NightlyRate:     rec.NightlyRate.Float64(),
		DiscountPercent: rec.DiscountPercent.Float64(),
		Total:           total,
		ServerTotal:     fromServer,
	}
}

// Total returns the server total when present, otherwise
// rate * nights * (1 - discount/100) rounded to cents.
// The discount percentage is taken as given and never recomputed.
func Total(rec models.Reservation) (total float64, fromServer bool) {
	if rec.TotalAmount != nil {
		return Round2(rec.TotalAmount.Float64()), true
	}

	gross := rec.NightlyRate.Float64() * float64(rec.TotalNights)
	return Round2(gross * (1 - rec.DiscountPercent.Float64()/100)), false
}

// Nights returns the stay length: the server night count when set,
// otherwise whole days between entry and exit dates.
func Nights(rec models.Reservation) int {
	if rec.TotalNights > 0 {
		return rec.TotalNights
	}

	entry := firstValid(rec.CheckInActual, rec.CheckInScheduled)
	exit := firstValid(rec.CheckOutActual, rec.CheckOutScheduled)
	if entry == nil || exit == nil {
		return 0
	}

	days := int(dateOnly(exit.Time).Sub(dateOnly(entry.Time)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Round2 rounds half away from zero to two decimals.
// The value is first printed with six decimals so that binary noise
// such as 1.005 -> 1.00499999 does not flip the result.
func Round2(v float64) float64 {
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(v*100, 'f', 6, 64), 64)
	if err != nil {
		return math.Round(v*100) / 100
	}
	return math.Round(scaled) / 100
}

func pickDateTime(actual, scheduled *models.Timestamp) DateTime {
	if actual.Valid() {
		return DateTime{
			Date: actual.Format(DateLayout),
			Time: actual.Format(TimeLayout),
		}
	}
	if scheduled.Valid() {
		return DateTime{Date: scheduled.Format(DateLayout)}
	}
	return DateTime{}
}

func firstValid(ts ...*models.Timestamp) *models.Timestamp {
	for _, t := range ts {
		if t.Valid() {
			return t
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
