package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// HeaderRequestID заголовок с уникальным ID каждого исходящего запроса
const HeaderRequestID = "X-Request-ID"

var (
	// ErrNetwork indicates that no response was received (connectivity problem)
	ErrNetwork = errors.New("network unreachable")

	// ErrUnauthorized matches any *APIError with status 401
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates that the access token could not be renewed
	// and stored credentials were cleared
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken indicates a 401 without a stored refresh token
	ErrNoRefreshToken = errors.New("no refresh token")

	// errRefreshAborted is delivered to waiters if the refresh goroutine panics
	errRefreshAborted = errors.New("token refresh aborted")
)

// APIError представляет ответ сервера со статусом вне 2xx.
// Тело передается как есть: клиент не интерпретирует ошибки валидации.
type APIError struct {
	Message    string
	Body       []byte
	StatusCode int
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var errResp pkgapi.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Message = errResp.Text()
	}

	return apiErr
}

// Error implements error
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, string(e.Body))
}

// Is позволяет проверять 401 через errors.Is(err, ErrUnauthorized)
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
