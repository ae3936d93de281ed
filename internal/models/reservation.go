package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateCode код состояния брони, как его присылает сервер
type StateCode string

// Канонические коды состояния брони
const (
	StatePending   StateCode = "pending"
	StateConfirmed StateCode = "confirmed"
	StateCancelled StateCode = "cancelled"
)

// Normalize приводит серверный код состояния (испанский или английский,
// в любом регистре) к каноническому виду. Неизвестные коды возвращаются как есть.
func (c StateCode) Normalize() StateCode {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "pending", "pendiente":
		return StatePending
	case "confirmed", "confirmada", "confirmado":
		return StateConfirmed
	case "cancelled", "canceled", "cancelada", "cancelado":
		return StateCancelled
	default:
		return c
	}
}

// Reservation представляет запись брони, полученную от API.
// Клиент не пересчитывает скидку: DiscountPercent авторитетен.
type Reservation struct {
	CheckInScheduled  *Timestamp `json:"fecha_checkin,omitempty"`
	CheckOutScheduled *Timestamp `json:"fecha_checkout,omitempty"`
	CheckInActual     *Timestamp `json:"checkin_real,omitempty"`
	CheckOutActual    *Timestamp `json:"checkout_real,omitempty"`
	NumberOfGuests    *int       `json:"cantidad_huespedes,omitempty"`
	TotalAmount       *Amount    `json:"monto_total,omitempty"` // итог, посчитанный сервером
	GuestName         string     `json:"nombre_huesped"`
	DNI               string     `json:"dni"`
	RoomNumber        string     `json:"numero_habitacion"`
	PaymentMethod     string     `json:"metodo_pago,omitempty"`
	StateCode         StateCode  `json:"estado"`
	ID                int64      `json:"id"`
	NightlyRate       Amount     `json:"precio_noche"`
	DiscountPercent   Amount     `json:"porcentaje_descuento"`
	TotalNights       int        `json:"total_noches"`
}

// CheckedIn сообщает, зафиксирован ли фактический заезд на сервере
func (r Reservation) CheckedIn() bool {
	return r.CheckInActual.Valid()
}

// CheckedOut сообщает, зафиксирован ли фактический выезд (терминальное состояние)
func (r Reservation) CheckedOut() bool {
	return r.CheckOutActual.Valid()
}

// Guests возвращает количество гостей; отсутствующее значение считается как 1
func (r Reservation) Guests() int {
	if r.NumberOfGuests == nil {
		return 1
	}
	return *r.NumberOfGuests
}

// timestampLayouts форматы дат, которые встречаются в ответах API
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp время из API. Понимает RFC3339, локальное время без зоны
// и дату без времени. Пустая строка и null означают отсутствие значения.
type Timestamp struct {
	time.Time
}

// NewTimestamp оборачивает time.Time
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// ParseTimestamp разбирает строку в одном из поддерживаемых форматов.
// Время без зоны считается локальным временем отеля (time.Local).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", s)
}

// Valid сообщает, содержит ли значение момент времени
func (t *Timestamp) Valid() bool {
	return t != nil && !t.IsZero()
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Amount денежная сумма. Сервер присылает decimal либо числом, либо строкой ("120.00").
type Amount float64

// Float64 возвращает значение как float64
func (a Amount) Float64() float64 {
	return float64(a)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = Amount(v)
	return nil
}
