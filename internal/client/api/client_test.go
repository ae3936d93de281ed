package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/client/storage/memory"
	pkgapi "github.com/iudanet/hoteldesk/pkg/api"
)

// fakeAPI эмулирует сервер: /api/data требует Bearer <valid>, refresh выдает новый токен
type fakeAPI struct {
	// beforeRefresh вызывается внутри обработчика refresh до ответа
	beforeRefresh func()
	valid         string
	newAccess     string
	refreshStatus int
	dataCalls     atomic.Int32
	refreshCalls  atomic.Int32
	mu            sync.Mutex
	seenAuth      []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		f.dataCalls.Add(1)
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		f.seenAuth = append(f.seenAuth, auth)
		valid := f.valid
		f.mu.Unlock()

		if auth != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(pkgapi.ErrorResponse{Detail: "token not valid"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"), "refresh must be anonymous")

		var req pkgapi.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "REFRESH", req.Refresh)

		if f.beforeRefresh != nil {
			f.beforeRefresh()
		}

		if f.refreshStatus != 0 && f.refreshStatus != http.StatusOK {
			w.WriteHeader(f.refreshStatus)
			_ = json.NewEncoder(w).Encode(pkgapi.ErrorResponse{Detail: "token is invalid or expired"})
			return
		}

		f.mu.Lock()
		f.valid = f.newAccess
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(pkgapi.RefreshResponse{Access: f.newAccess})
	})

	return mux
}

type expiredRecorder struct {
	causes []error
	mu     sync.Mutex
}

func (e *expiredRecorder) handle(_ context.Context, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.causes = append(e.causes, cause)
}

func (e *expiredRecorder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.causes)
}

func newTestClient(t *testing.T, h http.Handler, seed map[string]string) (*Client, *memory.Store, *expiredRecorder) {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	store := memory.New(seed)
	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second}, store, nil)
	rec := &expiredRecorder{}
	client.OnSessionExpired(rec.handle)

	return client, store, rec
}

func getData(ctx context.Context, c *Client) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/data"})
}

// waitPending ждет, пока в очереди refresh окажется n ожидающих
func waitPending(c *Client, n int) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.gate.pending() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:8000", Timeout: 30 * time.Second}, memory.New(nil), nil)

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", client.baseURL)
	assert.Equal(t, DefaultPaths(), client.Paths())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Zero(t, client.streamClient.Timeout)
	assert.Equal(t, 15*time.Second, client.refreshTimeout)
}

func TestClient_AttachesBearer(t *testing.T) {
	tests := []struct {
		seed     map[string]string
		name     string
		wantAuth string
	}{
		{name: "access token", seed: map[string]string{storage.KeyAccess: "A1", storage.KeyToken: "T1"}, wantAuth: "Bearer A1"},
		{name: "legacy token fallback", seed: map[string]string{storage.KeyToken: "T1"}, wantAuth: "Bearer T1"},
		{name: "no token", seed: nil, wantAuth: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotRequestID string
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotRequestID = r.Header.Get(HeaderRequestID)
				w.WriteHeader(http.StatusOK)
			})
			client, _, _ := newTestClient(t, h, tt.seed)

			resp, err := getData(context.Background(), client)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantAuth, gotAuth)
			assert.NotEmpty(t, gotRequestID)
		})
	}
}

func TestClient_SendsJSONBodyAndHeaders(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "101", body["room"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 5}`))
	})
	client, _, _ := newTestClient(t, h, nil)

	header := http.Header{}
	header.Set("X-Custom", "yes")
	resp, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/things",
		Body:   map[string]string{"room": "101"},
		Header: header,
	})
	require.NoError(t, err)

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, 5, out.ID)
}

func TestClient_RefreshAndReplay(t *testing.T) {
	// старый токен не принимается до refresh
	api := &fakeAPI{valid: "never", newAccess: "NEW"}
	client, store, expired := newTestClient(t, api.handler(t), map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
	})

	resp, err := getData(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.dataCalls.Load())
	assert.Equal(t, []string{"Bearer OLD", "Bearer NEW"}, api.seenAuth)

	v, ok := store.Get(context.Background(), storage.KeyAccess)
	require.True(t, ok)
	assert.Equal(t, "NEW", v)
	assert.Zero(t, expired.count())
	assert.Zero(t, client.gate.pending())
}

func TestClient_SingleFlightRefresh(t *testing.T) {
	const n = 10

	api := &fakeAPI{valid: "never", newAccess: "NEW"}
	var client *Client
	// Держим refresh, пока остальные запросы не встанут в очередь
	api.beforeRefresh = func() { waitPending(client, n-1) }

	client, _, expired := newTestClient(t, api.handler(t), map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = getData(context.Background(), client)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load(), "exactly one refresh")

	newCount := 0
	for _, auth := range api.seenAuth {
		if auth == "Bearer NEW" {
			newCount++
		}
	}
	assert.Equal(t, n, newCount, "every request replayed with the new token")
	assert.Zero(t, expired.count())
	assert.Zero(t, client.gate.pending())
	assert.False(t, client.gate.inFlight)
}

func TestClient_RefreshFailureIsFatal(t *testing.T) {
	const n = 5

	api := &fakeAPI{valid: "never", refreshStatus: http.StatusUnauthorized}
	var client *Client
	api.beforeRefresh = func() { waitPending(client, n-1) }

	client, store, expired := newTestClient(t, api.handler(t), map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
		storage.KeyToken:   "OLD",
		storage.KeyUser:    `{"dni":"1"}`,
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = getData(context.Background(), client)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "request %d", i)
		assert.ErrorIs(t, err, ErrSessionExpired)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, 1, expired.count())

	// Хранилище очищено полностью
	assert.Empty(t, store.Snapshot())
	assert.False(t, client.gate.inFlight)
}

func TestClient_NoInfiniteRetry(t *testing.T) {
	// Сервер отвергает даже новый токен
	h := http.NewServeMux()
	var dataCalls, refreshCalls atomic.Int32
	h.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		_ = json.NewEncoder(w).Encode(pkgapi.RefreshResponse{Access: "NEW"})
	})

	client, store, expired := newTestClient(t, h, map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
	})

	resp, err := getData(context.Background(), client)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, int32(2), dataCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Zero(t, expired.count())

	// Повторный 401 не трогает учетные данные
	v, ok := store.Get(context.Background(), storage.KeyRefresh)
	require.True(t, ok)
	assert.Equal(t, "REFRESH", v)
}

func TestClient_UnauthorizedWithoutRefreshToken(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, store, expired := newTestClient(t, h, map[string]string{
		storage.KeyToken: "LEGACY",
		storage.KeyUser:  `{"dni":"1"}`,
	})

	_, err := getData(context.Background(), client)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, 1, expired.count())
	assert.Empty(t, store.Snapshot())
}

func TestClient_StaleTokenReplayedWithoutRefresh(t *testing.T) {
	var store *memory.Store
	var refreshCalls atomic.Int32
	var seen []string

	h := http.NewServeMux()
	h.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seen = append(seen, auth)
		if auth == "Bearer OLD" {
			// Другой запрос успел обновить токен, пока этот был в полете
			require.NoError(t, store.Set(r.Context(), storage.KeyAccess, "FRESH"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, s, _ := newTestClient(t, h, map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
	})
	store = s

	_, err := getData(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer OLD", "Bearer FRESH"}, seen)
	assert.Zero(t, refreshCalls.Load())
}

func TestClient_ErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		status      int
	}{
		{name: "validation error", status: http.StatusBadRequest, body: `{"detail":"room is occupied"}`, wantMessage: "server error (400): room is occupied"},
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"not allowed"}`, wantMessage: "server error (403): not allowed"},
		{name: "plain text", status: http.StatusInternalServerError, body: "boom", wantMessage: "request failed with status 500: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refreshCalls atomic.Int32
			h := http.NewServeMux()
			h.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			h.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
				refreshCalls.Add(1)
			})
			client, _, _ := newTestClient(t, h, map[string]string{
				storage.KeyAccess:  "A",
				storage.KeyRefresh: "R",
			})

			resp, err := getData(context.Background(), client)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, string(apiErr.Body))
			assert.Equal(t, tt.wantMessage, err.Error())
			assert.NotErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Zero(t, refreshCalls.Load())
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, memory.New(nil), nil)

	_, err := getData(context.Background(), client)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_RefreshNetworkErrorIsFatal(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		// обрываем соединение без ответа
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	})
	client, store, expired := newTestClient(t, h, map[string]string{
		storage.KeyAccess:  "A",
		storage.KeyRefresh: "R",
	})

	_, err := getData(context.Background(), client)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 1, expired.count())
	assert.Empty(t, store.Snapshot())
}

func TestClient_CancelledContext(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client, _, _ := newTestClient(t, h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := getData(ctx, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
}

func TestAPIError_IsUnauthorized(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: http.StatusUnauthorized}, ErrUnauthorized)
	assert.NotErrorIs(t, &APIError{StatusCode: http.StatusForbidden}, ErrUnauthorized)
}

func TestClient_RedirectKeepsTokenOnSameHost(t *testing.T) {
	var gotAuth string
	h := http.NewServeMux()
	h.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/data/v2", http.StatusFound)
	})
	h.HandleFunc("/api/data/v2", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})
	client, _, _ := newTestClient(t, h, map[string]string{storage.KeyAccess: "SECRET"})

	resp, err := getData(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer SECRET", gotAuth)
}

func TestClient_RedirectDropsTokenForOtherHost(t *testing.T) {
	var reached atomic.Bool
	var gotAuth atomic.Value
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached.Store(true)
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(other.Close)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/landing", http.StatusFound)
	})
	client, _, _ := newTestClient(t, h, map[string]string{storage.KeyAccess: "SECRET"})

	resp, err := getData(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, reached.Load())
	assert.Equal(t, "", gotAuth.Load())
}

func TestClient_SessionExpiredReportedOnce(t *testing.T) {
	const n = 5

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, store, expired := newTestClient(t, h, map[string]string{
		storage.KeyAccess: "OLD",
		storage.KeyToken:  "OLD",
	})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = getData(context.Background(), client)
		}(i)
	}
	wg.Wait()

	// Следующий запрос после очистки хранилища тоже получает 401
	_, err := getData(context.Background(), client)
	errs = append(errs, err)

	for i, err := range errs {
		assert.ErrorIs(t, err, ErrSessionExpired, "request %d", i)
	}
	assert.Equal(t, 1, expired.count())
	assert.Empty(t, store.Snapshot())
}

func TestClient_RefreshFailureThenUnauthorizedReportedOnce(t *testing.T) {
	api := &fakeAPI{valid: "never", refreshStatus: http.StatusUnauthorized}
	client, _, expired := newTestClient(t, api.handler(t), map[string]string{
		storage.KeyAccess:  "OLD",
		storage.KeyRefresh: "REFRESH",
	})

	_, err := getData(context.Background(), client)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, 1, expired.count())

	_, err = getData(context.Background(), client)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, 1, expired.count())
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}
