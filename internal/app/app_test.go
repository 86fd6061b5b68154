package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adboard/adboard/internal/gateway"
	"github.com/adboard/adboard/internal/handler"
	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/repository"
	"github.com/adboard/adboard/internal/service"
)

type alwaysFound struct{}

func (alwaysFound) CheckUser(ctx context.Context, id int64) (peer.Existence, error) {
	return peer.Found, nil
}

type downStore struct{}

func (downStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestAdsRouter_OpsEndpoints(t *testing.T) {
	t.Parallel()

	prom := metrics.NewPrometheus("ads")
	r := AdsRouter(service.NewAdService(repository.NewMemoryAdStore(), alwaysFound{}, prom, nil), Deps{
		Recorder:       prom,
		MetricsHandler: prom.Handler(),
		Ready:          []handler.Check{{Name: "store", Checker: downStore{}}},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ads", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adboard_http_requests_total")
}

func TestAdsRouter_DomainFallbacks(t *testing.T) {
	t.Parallel()

	r := AdsRouter(service.NewAdService(repository.NewMemoryAdStore(), alwaysFound{}, nil, nil), Deps{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Ads error"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/ads", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouters_OversizedBodyEnvelope(t *testing.T) {
	t.Parallel()

	ads := AdsRouter(service.NewAdService(repository.NewMemoryAdStore(), alwaysFound{}, nil, nil), Deps{MaxRequestBodySize: 16})

	rec := httptest.NewRecorder()
	ads.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", strings.NewReader(`{"title":"a very long title","price":1,"userId":1}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"title":"Ads error","detail":"request body too large","code":"REQUEST_TOO_LARGE"}`, rec.Body.String())

	proxy, err := gateway.NewProxy(gateway.Options{
		Backends: map[string]string{gateway.BackendAds: "http://ads.invalid", gateway.BackendUsers: "http://users.invalid"},
	})
	require.NoError(t, err)
	gw, err := GatewayRouter(proxy, GatewayConfig{Routes: gateway.DefaultRoutes()}, Deps{MaxRequestBodySize: 16})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", strings.NewReader(`{"title":"a very long title","price":1,"userId":1}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, rec.Body.String())
}

func TestGatewayRouter_RateLimited(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	recorder := metrics.NewInMemory()
	proxy, err := gateway.NewProxy(gateway.Options{
		Backends: map[string]string{gateway.BackendAds: backend.URL, gateway.BackendUsers: backend.URL},
	})
	require.NoError(t, err)

	limiter := middleware.NewLocalLimiter(1, 1)
	r, err := GatewayRouter(proxy, GatewayConfig{
		Routes:    gateway.DefaultRoutes(),
		RateLimit: middleware.RateLimitConfig{Enabled: true, Limiter: limiter, Burst: 1},
	}, Deps{Recorder: recorder})
	require.NoError(t, err)

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("/ads").Code)

	rec := send("/ads")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `{"error":"rate limit exceeded`))
	assert.Equal(t, uint64(1), recorder.Count(metrics.RateLimitedKey("local")))

	assert.Equal(t, http.StatusOK, send("/healthz").Code, "probes are not limited")
}

func TestGatewayRouter_RejectsUnroutableTable(t *testing.T) {
	t.Parallel()

	proxy, err := gateway.NewProxy(gateway.Options{Backends: map[string]string{gateway.BackendAds: "http://ads"}})
	require.NoError(t, err)

	_, err = GatewayRouter(proxy, GatewayConfig{Routes: gateway.DefaultRoutes()}, Deps{})
	assert.ErrorIs(t, err, gateway.ErrInvalidRoute)
}
