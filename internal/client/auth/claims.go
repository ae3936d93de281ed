package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/hoteldesk/internal/client/storage"
)

// ErrNoToken indicates that no access credential is stored
var ErrNoToken = errors.New("no access token")

// AccessClaims поля access token, которые полезны клиенту
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID    json.Number `json:"user_id,omitempty"`
	TokenType string      `json:"token_type,omitempty"`
}

// TokenInfo описывает сохраненный access token.
// Подпись не проверяется: клиент не знает ключа, решение принимает сервер.
type TokenInfo struct {
	ExpiresAt  time.Time // zero, если срок не указан или токен непрозрачный
	Subject    string
	UserID     string
	Refresh    bool // сохранен refresh token
	Opaque     bool // токен не является JWT
	Persistent bool // токен взят из legacy ключа "token"
}

// Expired сообщает, истек ли токен на момент now
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect читает сохраненный access token и разбирает его claims без проверки подписи
func (s *Session) Inspect(ctx context.Context) (*TokenInfo, error) {
	token, ok := s.store.Get(ctx, storage.KeyAccess)
	legacy := false
	if !ok || token == "" {
		token, ok = s.store.Get(ctx, storage.KeyToken)
		legacy = true
	}
	if !ok || token == "" {
		return nil, ErrNoToken
	}

	info := &TokenInfo{Persistent: legacy}
	if refresh, ok := s.store.Get(ctx, storage.KeyRefresh); ok && refresh != "" {
		info.Refresh = true
	}

	claims, err := ParseAccessClaims(token)
	if err != nil {
		info.Opaque = true
		return info, nil
	}

	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	info.Subject = claims.Subject
	info.UserID = claims.UserID.String()

	return info, nil
}

// ParseAccessClaims разбирает JWT без проверки подписи
func ParseAccessClaims(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}
