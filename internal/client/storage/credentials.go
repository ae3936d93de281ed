package storage

import (
	"context"
)

// Ключи хранилища учетных данных
const (
	KeyAccess  = "access"  // текущий bearer token для API
	KeyRefresh = "refresh" // refresh token
	KeyToken   = "token"   // legacy access token, который возвращает логин
	KeyUser    = "usuario" // кэшированный профиль пользователя (JSON)
)

// AllCredentialKeys перечисляет все ключи, которые очищаются при logout
var AllCredentialKeys = []string{KeyAccess, KeyRefresh, KeyToken, KeyUser}

//go:generate moq -out credentials_mock.go . CredentialStore

// CredentialStore defines process-wide persisted key-value storage for tokens
// and the cached user profile.
// Implementations must be safe for concurrent use.
type CredentialStore interface {
	// Get returns the value stored under key.
	// A missing key and an unreadable store both report ok == false.
	Get(ctx context.Context, key string) (value string, ok bool)

	// Set overwrites the value under key
	Set(ctx context.Context, key, value string) error

	// Clear removes the listed keys. Missing keys are ignored.
	Clear(ctx context.Context, keys ...string) error
}
