package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// OpenStream открывает долгоживущий SSE поток dashboard.
// Авторизация и refresh работают так же, как для обычных запросов.
// Вызывающий обязан закрыть возвращенный поток.
func (c *Client) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	header := http.Header{}
	header.Set("Accept", "text/event-stream")
	header.Set("Cache-Control", "no-cache")

	// Общий таймаут httpClient оборвал бы поток
	resp, err := c.roundTrip(ctx, c.streamClient, Request{
		Method: http.MethodGet,
		Path:   c.paths.DashboardStream,
		Header: header,
	})
	if err != nil {
		return nil, fmt.Errorf("open dashboard stream: %w", err)
	}

	if !isSuccess(resp.StatusCode) {
		defer func() {
			_ = resp.Body.Close()
		}()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("open dashboard stream: %w", newAPIError(resp.StatusCode, body))
	}

	return resp.Body, nil
}
