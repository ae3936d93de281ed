package api

import "encoding/json"

// LoginRequest представляет запрос на аутентификацию сотрудника по DNI
type LoginRequest struct {
	DNI      string `json:"dni"`      // номер документа сотрудника
	Password string `json:"password"` // пароль
}

// LoginResponse представляет ответ на успешный логин.
// Сервер всегда возвращает token; пара access/refresh и профиль опциональны.
type LoginResponse struct {
	Token   string          `json:"token"`             // основной access token
	Access  string          `json:"access,omitempty"`  // JWT access token (если выдан)
	Refresh string          `json:"refresh,omitempty"` // refresh token (если выдан)
	Usuario json.RawMessage `json:"usuario,omitempty"` // профиль пользователя как есть
}

// RefreshRequest представляет запрос на обновление access token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse представляет ответ с новым access token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"` // новый refresh token при ротации
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`   // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
	Detail  string `json:"detail,omitempty"`  // сообщение в формате DRF
}

// Text возвращает первое непустое сообщение об ошибке
func (e ErrorResponse) Text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return e.Error
	}
}
