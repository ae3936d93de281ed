package api

// ActionResponse представляет ответ сервера на check-in/check-out
type ActionResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// RoomEvent представляет одно событие потока dashboard (SSE)
type RoomEvent struct {
	Type          string `json:"type"`                     // тип события, например "room_status"
	RoomNumber    string `json:"room_number,omitempty"`    // номер комнаты
	State         string `json:"state,omitempty"`          // новое состояние комнаты
	ReservationID int64  `json:"reservation_id,omitempty"` // связанная бронь
	Timestamp     string `json:"timestamp,omitempty"`      // время события от сервера
}
