package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/iudanet/hoteldesk/internal/client/api"
	"github.com/iudanet/hoteldesk/internal/client/notify"
	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/models"
	"github.com/iudanet/hoteldesk/internal/validation"
	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// Причины неудачного логина
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonNetworkUnreachable = "network_unreachable"
	ReasonInvalidInput       = "invalid_input"
	ReasonServerError        = "server_error"
)

// LoginAPI вызов эндпоинта логина
//
//go:generate moq -out session_mock.go . LoginAPI
type LoginAPI interface {
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
}

// LoginResult содержит результат авторизации.
// Ожидаемые ошибки (неверный пароль, нет сети) возвращаются здесь, а не как error.
type LoginResult struct {
	User    *models.User // профиль, если сервер его вернул
	Reason  string       // одна из Reason* при Success == false
	Error   string       // сообщение для пользователя
	Success bool
}

// Session хранит признак авторизации процесса и управляет учетными данными
type Session struct {
	api           LoginAPI
	store         storage.CredentialStore
	snapshots     storage.SnapshotStore // может быть nil
	publisher     notify.Publisher
	logger        *slog.Logger
	authenticated atomic.Bool
}

// NewSession создает сессию. Признак авторизации берется из наличия
// access token в хранилище на момент создания.
func NewSession(ctx context.Context, loginAPI LoginAPI, store storage.CredentialStore, publisher notify.Publisher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		api:       loginAPI,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
	s.authenticated.Store(hasAccessToken(ctx, store))
	return s
}

// UseSnapshotCache подключает кэш броней, который очищается при смене пользователя
func (s *Session) UseSnapshotCache(snapshots storage.SnapshotStore) {
	s.snapshots = snapshots
}

// IsAuthenticated сообщает, считается ли процесс авторизованным
func (s *Session) IsAuthenticated() bool {
	return s.authenticated.Load()
}

// Login выполняет аутентификацию по DNI и паролю.
// Делает ровно один запрос к серверу.
func (s *Session) Login(ctx context.Context, dni, password string) LoginResult {
	dni = validation.NormalizeDNI(dni)
	if err := validation.ValidateDNI(dni); err != nil {
		return s.fail(ReasonInvalidInput, err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return s.fail(ReasonInvalidInput, err.Error())
	}

	resp, err := s.api.Login(ctx, pkgapi.LoginRequest{DNI: dni, Password: password})
	if err != nil {
		reason, msg := classifyLoginError(err)
		s.logger.InfoContext(ctx, "Login failed", "reason", reason)
		return s.fail(reason, msg)
	}

	token := resp.Token
	if token == "" {
		token = resp.Access
	}
	if token == "" {
		s.logger.ErrorContext(ctx, "Login response has no token")
		return s.fail(ReasonServerError, "login response has no token")
	}

	user, err := s.saveCredentials(ctx, token, resp)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save credentials", "error", err)
		return s.fail(ReasonServerError, fmt.Sprintf("failed to save credentials: %v", err))
	}

	// Кэш мог остаться от другого сотрудника
	if err := s.clearSnapshot(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear reservations cache", "error", err)
	}

	s.authenticated.Store(true)
	s.logger.InfoContext(ctx, "Logged in", "refreshable", resp.Refresh != "")

	return LoginResult{Success: true, User: user}
}

// Logout очищает все учетные данные. Навигацию выполняет вызывающий код.
func (s *Session) Logout(ctx context.Context) error {
	s.authenticated.Store(false)
	if err := s.store.Clear(ctx, storage.AllCredentialKeys...); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if err := s.clearSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to clear reservations cache: %w", err)
	}
	return nil
}

func (s *Session) clearSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.ClearSnapshot(ctx)
}

// Expire вызывается клиентом API, когда обновить токен не удалось.
// Учетные данные к этому моменту уже очищены клиентом.
func (s *Session) Expire(ctx context.Context, cause error) {
	s.authenticated.Store(false)
	s.logger.WarnContext(ctx, "Session expired", "cause", cause)

	if s.publisher == nil {
		return
	}
	ev := notify.Event{
		Kind:     notify.KindSessionExpired,
		Level:    notify.LevelWarning,
		Message:  "Session expired, please log in again",
		Redirect: notify.RedirectLogin,
	}
	if cause != nil {
		ev.Data = map[string]string{"cause": cause.Error()}
	}
	s.publisher.Publish(ctx, ev)
}

// CurrentUser возвращает кэшированный профиль
func (s *Session) CurrentUser(ctx context.Context) (*models.User, bool) {
	raw, ok := s.store.Get(ctx, storage.KeyUser)
	if !ok {
		return nil, false
	}
	user, err := models.ParseUser(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Cached user profile is corrupted", "error", err)
		return nil, false
	}
	return user, true
}

// saveCredentials заменяет старые учетные данные новыми
func (s *Session) saveCredentials(ctx context.Context, token string, resp *pkgapi.LoginResponse) (*models.User, error) {
	if err := s.store.Clear(ctx, storage.AllCredentialKeys...); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
		return nil, err
	}
	if resp.Access != "" {
		if err := s.store.Set(ctx, storage.KeyAccess, resp.Access); err != nil {
			return nil, err
		}
	}
	if resp.Refresh != "" {
		if err := s.store.Set(ctx, storage.KeyRefresh, resp.Refresh); err != nil {
			return nil, err
		}
	}

	if len(resp.Usuario) == 0 || string(resp.Usuario) == "null" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(resp.Usuario, &user); err != nil {
		// профиль не обязателен, токен уже сохранен
		s.logger.WarnContext(ctx, "Login response has malformed user profile", "error", err)
		return nil, nil
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(resp.Usuario)); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Session) fail(reason, msg string) LoginResult {
	s.authenticated.Store(false)
	return LoginResult{Reason: reason, Error: msg}
}

func classifyLoginError(err error) (reason, msg string) {
	if errors.Is(err, api.ErrNetwork) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonNetworkUnreachable, "server is unreachable, check the connection"
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			if apiErr.Message != "" {
				return ReasonInvalidCredentials, apiErr.Message
			}
			return ReasonInvalidCredentials, "invalid dni or password"
		}
		return ReasonServerError, apiErr.Error()
	}

	return ReasonServerError, err.Error()
}

func hasAccessToken(ctx context.Context, store storage.CredentialStore) bool {
	if v, ok := store.Get(ctx, storage.KeyAccess); ok && v != "" {
		return true
	}
	v, ok := store.Get(ctx, storage.KeyToken)
	return ok && v != ""
}
