package stays

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/hoteldesk/internal/models"
)

func ts(s string) *models.Timestamp {
	t, err := models.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return models.NewTimestamp(t)
}

func intPtr(v int) *int { return &v }

func amountPtr(v float64) *models.Amount {
	a := models.Amount(v)
	return &a
}

func TestDeriveStatus_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		rec       models.Reservation
		checkedIn bool
		want      Status
	}{
		{
			name: "checkout wins over pending",
			rec:  models.Reservation{StateCode: "pendiente", CheckOutActual: ts("2024-05-04T10:00:00Z")},
			want: StatusFinished,
		},
		{
			name: "checkout wins over cancelled",
			rec:  models.Reservation{StateCode: "cancelada", CheckOutActual: ts("2024-05-04T10:00:00Z")},
			want: StatusFinished,
		},
		{
			name:      "cancelled wins over check-in",
			rec:       models.Reservation{StateCode: "cancelled", CheckInActual: ts("2024-05-01T14:00:00Z")},
			checkedIn: true,
			want:      StatusCancelled,
		},
		{
			name: "server check-in",
			rec:  models.Reservation{StateCode: "confirmada", CheckInActual: ts("2024-05-01T14:00:00Z")},
			want: StatusActive,
		},
		{
			name:      "optimistic check-in",
			rec:       models.Reservation{StateCode: "confirmada"},
			checkedIn: true,
			want:      StatusActive,
		},
		{
			name: "confirmed",
			rec:  models.Reservation{StateCode: "Confirmada"},
			want: StatusConfirmed,
		},
		{
			name: "pending",
			rec:  models.Reservation{StateCode: "pendiente"},
			want: StatusPending,
		},
		{
			name: "unknown code falls back to pending",
			rec:  models.Reservation{StateCode: "no_show"},
			want: StatusPending,
		},
		{
			name: "empty checkout timestamp is absent",
			rec:  models.Reservation{StateCode: "pending", CheckOutActual: &models.Timestamp{}},
			want: StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.rec, tt.checkedIn))
		})
	}
}

func TestDerive(t *testing.T) {
	rec := models.Reservation{
		ID:                1,
		GuestName:         "Ana Diaz",
		DNI:               "30111222",
		RoomNumber:        "101",
		NumberOfGuests:    intPtr(2),
		NightlyRate:       120,
		TotalNights:       3,
		DiscountPercent:   10,
		PaymentMethod:     "tarjeta",
		StateCode:         "confirmada",
		CheckInScheduled:  ts("2024-05-01"),
		CheckOutScheduled: ts("2024-05-04"),
		CheckInActual:     ts("2024-05-01T14:05:00Z"),
	}

	view := Derive(rec, false)

	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, DateTime{Date: "01/05/2024", Time: "14:05"}, view.Entry)
	assert.Equal(t, DateTime{Date: "04/05/2024"}, view.Exit)
	assert.Equal(t, 3, view.Nights)
	assert.Equal(t, 2, view.Guests)
	assert.InDelta(t, 324.0, view.Total, 1e-9)
	assert.False(t, view.ServerTotal)
	assert.InDelta(t, 10.0, view.DiscountPercent, 1e-9)
	assert.Equal(t, "tarjeta", view.PaymentMethod)
}

func TestDerive_Idempotent(t *testing.T) {
	rec := models.Reservation{
		ID:              9,
		StateCode:       "pendiente",
		NightlyRate:     99.99,
		TotalNights:     7,
		DiscountPercent: 12.5,
		CheckOutActual:  ts("2024-06-10T11:00:00Z"),
	}

	first := Derive(rec, true)
	second := Derive(rec, true)
	assert.Equal(t, first, second)
	assert.Equal(t, StatusFinished, first.Status)
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name           string
		rec            models.Reservation
		want           float64
		wantFromServer bool
	}{
		{name: "server total wins", rec: models.Reservation{TotalAmount: amountPtr(150.5), NightlyRate: 100, TotalNights: 3}, want: 150.5, wantFromServer: true},
		{name: "server zero total is still authoritative", rec: models.Reservation{TotalAmount: amountPtr(0), NightlyRate: 100, TotalNights: 3}, want: 0, wantFromServer: true},
		{name: "computed without discount", rec: models.Reservation{NightlyRate: 100, TotalNights: 3}, want: 300},
		{name: "computed with discount", rec: models.Reservation{NightlyRate: 120, TotalNights: 3, DiscountPercent: 10}, want: 324},
		{name: "rounded half up", rec: models.Reservation{NightlyRate: 33.335, TotalNights: 1}, want: 33.34},
		{name: "binary noise", rec: models.Reservation{NightlyRate: 1.005, TotalNights: 1}, want: 1.01},
		{name: "no nights", rec: models.Reservation{NightlyRate: 100}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fromServer := Total(tt.rec)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.wantFromServer, fromServer)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 2.68, Round2(2.675), 1e-9)
	assert.InDelta(t, -2.68, Round2(-2.675), 1e-9)
	assert.InDelta(t, 10.0, Round2(9.999), 1e-9)
	assert.InDelta(t, 0.0, Round2(0.004), 1e-9)
}

func TestNights(t *testing.T) {
	tests := []struct {
		name string
		rec  models.Reservation
		want int
	}{
		{name: "server count", rec: models.Reservation{TotalNights: 4}, want: 4},
		{name: "scheduled dates", rec: models.Reservation{CheckInScheduled: ts("2024-05-01"), CheckOutScheduled: ts("2024-05-05")}, want: 4},
		{name: "actual dates win", rec: models.Reservation{
			CheckInScheduled:  ts("2024-05-01"),
			CheckOutScheduled: ts("2024-05-05"),
			CheckInActual:     ts("2024-05-02T15:00:00Z"),
			CheckOutActual:    ts("2024-05-03T09:00:00Z"),
		}, want: 1},
		{name: "missing exit", rec: models.Reservation{CheckInScheduled: ts("2024-05-01")}, want: 0},
		{name: "inverted dates", rec: models.Reservation{CheckInScheduled: ts("2024-05-05"), CheckOutScheduled: ts("2024-05-01")}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Nights(tt.rec))
		})
	}
}

func TestDerive_NoDates(t *testing.T) {
	view := Derive(models.Reservation{ID: 1}, false)
	assert.Equal(t, DateTime{}, view.Entry)
	assert.Equal(t, DateTime{}, view.Exit)
	assert.Equal(t, 1, view.Guests)
}
