package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// LoggingTransport логирует исходящие HTTP запросы.
// Логирует метод, путь, статус, время выполнения.
// НЕ логирует sensitive данные (токены, тела запросов, номера документов в путях)
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewLoggingTransport оборачивает base (nil - http.DefaultTransport)
func NewLoggingTransport(base http.RoundTripper, logger *slog.Logger) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingTransport{Base: base, Logger: logger}
}

// RoundTrip implements http.RoundTripper
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.Base.RoundTrip(req)

	duration := time.Since(start)
	attrs := []any{
		"method", req.Method,
		"path", sanitizePath(req.URL.Path),
		"request_id", req.Header.Get(HeaderRequestID),
		"authenticated", req.Header.Get("Authorization") != "",
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		t.Logger.Log(req.Context(), slog.LevelWarn, "HTTP request failed", append(attrs, "error", err)...)
		return nil, err
	}

	// Определяем уровень логирования на основе статуса
	logLevel := slog.LevelDebug
	if resp.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if resp.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}

	t.Logger.Log(req.Context(), logLevel, "HTTP request", append(attrs, "status", resp.StatusCode)...)

	return resp, nil
}

// sanitizePath маскирует sensitive сегменты пути.
// Например: /api/huespedes/dni/30111222/ превращается в /api/huespedes/dni/***/
func sanitizePath(path string) string {
	if !strings.Contains(path, "/dni/") && !strings.Contains(path, "/token/") {
		return path
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part != "dni" && part != "token" {
			continue
		}
		next := i + 1
		if next < len(parts) && parts[next] != "" && parts[next] != "refresh" {
			parts[next] = "***"
		}
	}
	return strings.Join(parts, "/")
}
