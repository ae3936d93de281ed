package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/hoteldesk/internal/client/storage"
	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// maxAttempts исходная попытка плюс один повтор после refresh
const maxAttempts = 2

// Paths содержит пути эндпоинтов относительно базового URL
type Paths struct {
	Login           string
	Refresh         string
	Reservations    string
	DashboardStream string
}

// DefaultPaths возвращает пути API по умолчанию
func DefaultPaths() Paths {
	return Paths{
		Login:           "/api/login/",
		Refresh:         "/api/token/refresh/",
		Reservations:    "/api/reservas/",
		DashboardStream: "/api/dashboard/stream/",
	}
}

// Config параметры клиента
type Config struct {
	Transport      http.RoundTripper // nil means http.DefaultTransport
	Paths          Paths
	BaseURL        string
	Timeout        time.Duration // таймаут обычного запроса, 0 - без таймаута
	RefreshTimeout time.Duration // таймаут вызова refresh
}

// SessionExpiredFunc вызывается после того, как refresh окончательно не удался
// и учетные данные уже очищены. Реализуется менеджером сессии.
type SessionExpiredFunc func(ctx context.Context, cause error)

// Request описывает один вызов API
type Request struct {
	Header http.Header
	Body   any // сериализуется в JSON; nil - без тела
	Method string
	Path   string
	// Anonymous отключает bearer-токен и обработку 401 (логин, refresh)
	Anonymous bool
}

// Response содержит полностью прочитанный ответ сервера
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// Decode декодирует JSON тело ответа в v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с API отеля.
// Подставляет bearer-токен из хранилища и прозрачно обновляет его при 401.
type Client struct {
	httpClient     *http.Client
	streamClient   *http.Client // без общего таймаута, для SSE
	store          storage.CredentialStore
	logger         *slog.Logger
	onExpired      SessionExpiredFunc
	expireMu       sync.Mutex // проверка и очистка хранилища выполняются атомарно
	baseURL        string
	paths          Paths
	refreshTimeout time.Duration
	gate           *refreshGate
}

// NewClient создает новый API клиент
func NewClient(cfg Config, store storage.CredentialStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}
	if cfg.Paths == (Paths{}) {
		cfg.Paths = DefaultPaths()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Ограничиваем количество редиректов
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		// Токен уходит только на тот же хост, что и исходный запрос
		if len(via) == 0 || req.URL.Host != via[0].URL.Host {
			req.Header.Del("Authorization")
			return nil
		}
		if auth := via[0].Header.Get("Authorization"); auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return nil
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		paths:          cfg.Paths,
		store:          store,
		logger:         logger,
		refreshTimeout: cfg.RefreshTimeout,
		gate:           &refreshGate{},
		httpClient: &http.Client{
			Timeout:       cfg.Timeout,
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		streamClient: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
	}
}

// OnSessionExpired регистрирует обработчик терминальной ошибки авторизации
func (c *Client) OnSessionExpired(fn SessionExpiredFunc) {
	c.onExpired = fn
}

// Paths возвращает настроенные пути API
func (c *Client) Paths() Paths {
	return c.paths
}

// Do выполняет запрос и возвращает прочитанный ответ.
// Любой статус вне 2xx возвращается как *APIError вместе с ответом.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpResp, err := c.roundTrip(ctx, c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	// Читаем тело ответа
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}

	// Проверяем статус код
	if !isSuccess(resp.StatusCode) {
		return resp, newAPIError(resp.StatusCode, body)
	}

	return resp, nil
}

// doJSON выполняет запрос и декодирует успешный ответ в result
func (c *Client) doJSON(ctx context.Context, req Request, result any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(result)
}

// roundTrip отправляет запрос, при 401 обновляет токен и повторяет запрос один раз.
// Возвращает ответ с открытым телом; закрывать его должен вызывающий.
func (c *Client) roundTrip(ctx context.Context, hc *http.Client, req Request) (*http.Response, error) {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var token string
	if !req.Anonymous {
		token = c.accessToken(ctx)
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, hc, req, payload, token, attempt)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized || req.Anonymous || attempt+1 >= maxAttempts {
			return resp, nil
		}

		// 401: тело не нужно, соединение можно вернуть в пул
		drainAndClose(resp.Body)

		token, err = c.renewAccess(ctx, token)
		if err != nil {
			return nil, err
		}
	}
}

// send выполняет одну попытку запроса
func (c *Client) send(ctx context.Context, hc *http.Client, req Request, payload []byte, token string, attempt int) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s (attempt %d): %w", ErrNetwork, req.Method, req.Path, attempt+1, err)
	}

	return resp, nil
}

// accessToken возвращает текущий access token.
// Сначала ключ access, затем legacy token, который выдает логин.
func (c *Client) accessToken(ctx context.Context) string {
	if token, ok := c.store.Get(ctx, storage.KeyAccess); ok && token != "" {
		return token
	}
	if token, ok := c.store.Get(ctx, storage.KeyToken); ok && token != "" {
		return token
	}
	return ""
}

// renewAccess возвращает токен для повтора запроса, отправленного с stale.
// Если токен уже обновил другой запрос, refresh не выполняется.
func (c *Client) renewAccess(ctx context.Context, stale string) (string, error) {
	if current := c.accessToken(ctx); current != "" && current != stale {
		return current, nil
	}

	refreshToken, ok := c.store.Get(ctx, storage.KeyRefresh)
	if !ok || refreshToken == "" {
		// Обновить нечем: сессия потеряна
		c.expireSession(ctx, ErrNoRefreshToken)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, ErrNoRefreshToken)
	}

	return c.gate.do(ctx, func() (string, error) {
		return c.refresh(ctx, refreshToken)
	})
}

// refresh выполняет единственный вызов refresh эндпоинта.
// Контекст отвязан от отмены вызывающего, чтобы его отмена не роняла всю очередь.
func (c *Client) refresh(parent context.Context, refreshToken string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.refreshTimeout)
	defer cancel()

	c.logger.DebugContext(ctx, "refreshing access token")

	var resp pkgapi.RefreshResponse
	err := c.doJSON(ctx, Request{
		Method:    http.MethodPost,
		Path:      c.paths.Refresh,
		Body:      pkgapi.RefreshRequest{Refresh: refreshToken},
		Anonymous: true,
	}, &resp)
	if err == nil && resp.Access == "" {
		err = fmt.Errorf("refresh response has no access token")
	}
	if err != nil {
		c.logger.WarnContext(ctx, "token refresh failed, ending session", "error", err)
		c.expireSession(ctx, err)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	if err := c.store.Set(ctx, storage.KeyAccess, resp.Access); err != nil {
		// Токен все равно используется для повторов в этом процессе
		c.logger.WarnContext(ctx, "failed to persist refreshed access token", "error", err)
	}
	if resp.Refresh != "" {
		if err := c.store.Set(ctx, storage.KeyRefresh, resp.Refresh); err != nil {
			c.logger.WarnContext(ctx, "failed to persist rotated refresh token", "error", err)
		}
	}

	c.logger.DebugContext(ctx, "access token refreshed")
	return resp.Access, nil
}

// expireSession очищает учетные данные и только затем сообщает менеджеру сессии.
// Если хранилище уже пусто (сессию завершил другой запрос), менеджер не уведомляется повторно.
func (c *Client) expireSession(ctx context.Context, cause error) {
	c.expireMu.Lock()
	hadCredentials := c.hasCredentials(ctx)
	if err := c.store.Clear(ctx, storage.AllCredentialKeys...); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear credentials", "error", err)
	}
	c.expireMu.Unlock()

	if !hadCredentials {
		c.logger.DebugContext(ctx, "session already expired", "cause", cause)
		return
	}
	if c.onExpired != nil {
		c.onExpired(ctx, cause)
	}
}

func (c *Client) hasCredentials(ctx context.Context) bool {
	for _, key := range []string{storage.KeyAccess, storage.KeyToken, storage.KeyRefresh} {
		if v, ok := c.store.Get(ctx, key); ok && v != "" {
			return true
		}
	}
	return false
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
