package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/crypto"
)

// KeyStoreSalt ключ, под которым хранится соль для ключа шифрования.
// Не входит в storage.AllCredentialKeys и переживает logout.
const KeyStoreSalt = "store_salt"

// SealedStore шифрует значения перед сохранением во внутреннее хранилище
// и расшифровывает при чтении. Ключи не шифруются.
type SealedStore struct {
	inner  storage.CredentialStore
	logger *slog.Logger
	key    []byte
}

var _ storage.CredentialStore = (*SealedStore)(nil)

// NewSealedStore оборачивает inner. key должен быть длиной 32 байта.
func NewSealedStore(inner storage.CredentialStore, key []byte, logger *slog.Logger) *SealedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SealedStore{inner: inner, key: key, logger: logger}
}

// OpenSealedStore выводит ключ из passphrase. Соль читается из inner,
// а при первом запуске генерируется и сохраняется.
func OpenSealedStore(ctx context.Context, inner storage.CredentialStore, passphrase string, logger *slog.Logger) (*SealedStore, error) {
	salt, err := loadOrCreateSalt(ctx, inner)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveStoreKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive store key: %w", err)
	}

	return NewSealedStore(inner, key, logger), nil
}

// Get расшифровывает значение. Значение, которое не удалось расшифровать
// (другой passphrase, поврежденные данные), считается отсутствующим.
func (s *SealedStore) Get(ctx context.Context, key string) (string, bool) {
	sealed, ok := s.inner.Get(ctx, key)
	if !ok {
		return "", false
	}

	value, err := crypto.OpenString(sealed, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to decrypt credential", "key", key, "error", err)
		return "", false
	}
	return value, true
}

// Set шифрует и сохраняет значение
func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := crypto.SealString(value, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

// Clear удаляет ключи во внутреннем хранилище
func (s *SealedStore) Clear(ctx context.Context, keys ...string) error {
	return s.inner.Clear(ctx, keys...)
}

func loadOrCreateSalt(ctx context.Context, inner storage.CredentialStore) ([]byte, error) {
	if encoded, ok := inner.Get(ctx, KeyStoreSalt); ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil && len(salt) == crypto.SaltSize {
			return salt, nil
		}
		return nil, fmt.Errorf("stored salt is corrupted")
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := inner.Set(ctx, KeyStoreSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}
	return salt, nil
}
