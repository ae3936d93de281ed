package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/iudanet/hoteldesk/internal/models"
	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// ClientAPI is the set of typed API calls used by the services
type ClientAPI interface {
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	CheckIn(ctx context.Context, id int64) (*pkgapi.ActionResponse, error)
	CheckOut(ctx context.Context, id int64) (*pkgapi.ActionResponse, error)
}

var _ ClientAPI = (*Client)(nil)

// Login выполняет аутентификацию по DNI и паролю.
// Запрос анонимный: 401 здесь означает неверные учетные данные, а не истекший токен.
func (c *Client) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error) {
	var resp pkgapi.LoginResponse
	err := c.doJSON(ctx, Request{
		Method:    http.MethodPost,
		Path:      c.paths.Login,
		Body:      req,
		Anonymous: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// ListReservations получает все брони.
// Понимает как голый массив, так и пагинированный ответ {"results": [...]}.
func (c *Client) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: c.paths.Reservations})
	if err != nil {
		return nil, fmt.Errorf("list reservations request failed: %w", err)
	}

	records, err := decodeReservationList(resp.Body)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetReservation получает одну бронь
func (c *Client) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var rec models.Reservation
	err := c.doJSON(ctx, Request{Method: http.MethodGet, Path: c.reservationPath(id, "")}, &rec)
	if err != nil {
		return nil, fmt.Errorf("get reservation %d request failed: %w", id, err)
	}
	return &rec, nil
}

// CheckIn регистрирует фактический заезд гостя
func (c *Client) CheckIn(ctx context.Context, id int64) (*pkgapi.ActionResponse, error) {
	var resp pkgapi.ActionResponse
	err := c.doJSON(ctx, Request{Method: http.MethodPost, Path: c.reservationPath(id, "checkin")}, &resp)
	if err != nil {
		return nil, fmt.Errorf("check-in %d request failed: %w", id, err)
	}
	return &resp, nil
}

// CheckOut регистрирует фактический выезд гостя
func (c *Client) CheckOut(ctx context.Context, id int64) (*pkgapi.ActionResponse, error) {
	var resp pkgapi.ActionResponse
	err := c.doJSON(ctx, Request{Method: http.MethodPost, Path: c.reservationPath(id, "checkout")}, &resp)
	if err != nil {
		return nil, fmt.Errorf("check-out %d request failed: %w", id, err)
	}
	return &resp, nil
}

func (c *Client) reservationPath(id int64, action string) string {
	base := strings.TrimSuffix(c.paths.Reservations, "/")
	if action == "" {
		return fmt.Sprintf("%s/%d/", base, id)
	}
	return fmt.Sprintf("%s/%d/%s/", base, id, action)
}

func decodeReservationList(body []byte) ([]models.Reservation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results []models.Reservation `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("failed to decode reservations page: %w", err)
		}
		return page.Results, nil
	}

	var records []models.Reservation
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return records, nil
}
