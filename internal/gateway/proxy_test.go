package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
)

func newGateway(t *testing.T, ads, users string, recorder metrics.Recorder) http.Handler {
	t.Helper()

	p, err := NewProxy(Options{
		Backends: map[string]string{BackendAds: ads, BackendUsers: users},
		Recorder: recorder,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	require.NoError(t, p.Mount(r, DefaultRoutes()))
	return r
}

func decodeGatewayError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body, 1, "gateway errors carry only the error field")
	msg, ok := body["error"].(string)
	require.True(t, ok)
	return msg
}

func TestProxy_ForwardsRequest(t *testing.T) {
	t.Parallel()

	var got struct {
		method, path, query, body, contentType, requestID string
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.body = string(b)
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get(middleware.RequestIDHeader)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ad 1 created","id":1}`))
	}))
	defer backend.Close()

	h := newGateway(t, backend.URL, "http://users.invalid", nil)

	req := httptest.NewRequest(http.MethodPost, "/ads?source=web", strings.NewReader(`{"title":"Bike"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"ad 1 created","id":1}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/ads", got.path)
	assert.Equal(t, "source=web", got.query)
	assert.Equal(t, `{"title":"Bike"}`, got.body)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "req-42", got.requestID)
}

func TestProxy_RoutesToOwningBackend(t *testing.T) {
	t.Parallel()

	ads := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"ads"`))
	}))
	defer ads.Close()
	users := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"users"`))
	}))
	defer users.Close()

	h := newGateway(t, ads.URL, users.URL, nil)

	tests := []struct {
		method, target, want string
	}{
		{http.MethodGet, "/ads/by-user?userId=1", `"ads"`},
		{http.MethodGet, "/ads/7", `"ads"`},
		{http.MethodDelete, "/ads/by-user?userId=1", `"ads"`},
		{http.MethodGet, "/users/ads?id=1", `"users"`},
		{http.MethodGet, "/users/3", `"users"`},
		{http.MethodDelete, "/users?id=3", `"users"`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, tt.target)
		assert.Equal(t, tt.want, rec.Body.String(), tt.target)
	}
}

func TestProxy_NormalizesBackendErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"domain envelope", http.StatusNotFound, `{"title":"Ads error","detail":"user 999999: user not found","code":"USER_NOT_FOUND"}`, "user 999999: user not found"},
		{"error field", http.StatusBadRequest, `{"error":"bad things"}`, "bad things"},
		{"title only", http.StatusInternalServerError, `{"title":"General error"}`, "General error"},
		{"plain text", http.StatusBadGateway, "upstream sad\n", "upstream sad"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer backend.Close()

			h := newGateway(t, backend.URL, backend.URL, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads/1", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, decodeGatewayError(t, rec))
		})
	}
}

func TestProxy_TransportFailure(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.NotFoundHandler())
	deadURL := backend.URL
	backend.Close()

	recorder := metrics.NewInMemory()
	h := newGateway(t, deadURL, deadURL, recorder)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeGatewayError(t, rec)
	assert.True(t, strings.HasPrefix(msg, "create ad failed: "), msg)
	assert.Equal(t, uint64(1), recorder.Count(metrics.ProxyKey(BackendAds, "create ad", http.StatusInternalServerError)))
}

func TestProxy_Fallbacks(t *testing.T) {
	t.Parallel()

	h := newGateway(t, "http://ads.invalid", "http://users.invalid", nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found", decodeGatewayError(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/ads", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", decodeGatewayError(t, rec))
}

func TestNewProxy_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewProxy(Options{Backends: map[string]string{BackendAds: "localhost:8081"}})
	assert.Error(t, err)
}

func TestMount_RequiresBackend(t *testing.T) {
	t.Parallel()

	p, err := NewProxy(Options{Backends: map[string]string{BackendAds: "http://ads"}})
	require.NoError(t, err)

	err = p.Mount(chi.NewRouter(), DefaultRoutes())
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestProxy_RelaysRedirectVerbatim(t *testing.T) {
	t.Parallel()

	var followed bool
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ads/moved" {
			followed = true
			return
		}
		http.Redirect(w, r, "/ads/moved", http.StatusFound)
	}))
	t.Cleanup(backend.Close)

	g := newGateway(t, backend.URL, backend.URL, nil)

	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads/7", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ads/moved", rec.Header().Get("Location"))
	assert.False(t, followed)
}
