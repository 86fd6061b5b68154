package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
)

// maxResponseBytes caps how much of a backend response is buffered.
const maxResponseBytes = 8 << 20

// Options configures a Proxy.
type Options struct {
	// Backends maps a backend name to its base URL.
	Backends   map[string]string
	HTTPClient *http.Client
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// Proxy forwards requests to the domain services.
type Proxy struct {
	backends map[string]string
	client   *http.Client
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewProxy creates a Proxy. Every backend needs an absolute base URL.
func NewProxy(opts Options) (*Proxy, error) {
	backends := make(map[string]string, len(opts.Backends))
	for name, raw := range opts.Backends {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("backend %s: invalid base URL %q", name, raw)
		}
		backends[name] = strings.TrimRight(raw, "/")
	}

	p := &Proxy{
		backends: backends,
		client:   opts.HTTPClient,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if p.client == nil {
		p.client = &http.Client{
			Timeout: 10 * time.Second,
			// Backend redirects are relayed to the caller, never followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if p.recorder == nil {
		p.recorder = metrics.NewNoop()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Mount registers every route on r, plus the JSON 404 and 405 fallbacks.
func (p *Proxy) Mount(r chi.Router, routes []Route) error {
	for _, rt := range routes {
		if err := rt.validate(); err != nil {
			return err
		}
		if _, ok := p.backends[rt.Backend]; !ok {
			return fmt.Errorf("%w: no base URL for backend %q", ErrInvalidRoute, rt.Backend)
		}
		r.Method(rt.Method, rt.Pattern, p.Handler(rt))
	}
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	return nil
}

// Handler returns the forwarding handler for one route.
func (p *Proxy) Handler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := p.forward(w, r, rt)
		p.recorder.ObserveProxy(rt.Backend, rt.Operation, status, time.Since(start))
	}
}

// forward relays one request and returns the status written to the client.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, rt Route) int {
	target := p.backends[rt.Backend] + r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return p.transportFailure(w, r, rt, err)
	}
	req.ContentLength = r.ContentLength
	copyRequestHeaders(req, r)

	resp, err := p.client.Do(req)
	if err != nil {
		return p.transportFailure(w, r, rt, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return p.transportFailure(w, r, rt, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := errorMessage(resp.StatusCode, payload)
		p.logger.WarnContext(r.Context(), "backend error",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("backend", rt.Backend),
			slog.String("operation", rt.Operation),
			slog.Int("status", resp.StatusCode),
			slog.String("error", msg),
		)
		writeError(w, resp.StatusCode, msg)
		return resp.StatusCode
	}

	for _, h := range []string{"Content-Type", "Location"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(payload)
	return resp.StatusCode
}

func (p *Proxy) transportFailure(w http.ResponseWriter, r *http.Request, rt Route, err error) int {
	cause := err
	var ue *url.Error
	if errors.As(err, &ue) {
		cause = ue.Err
	}

	p.logger.ErrorContext(r.Context(), "backend unreachable",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("backend", rt.Backend),
		slog.String("operation", rt.Operation),
		slog.String("error", err.Error()),
	)

	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", rt.Operation, cause))
	return http.StatusInternalServerError
}

// copyRequestHeaders forwards the content headers and correlation IDs.
func copyRequestHeaders(dst, src *http.Request) {
	for _, h := range []string{"Content-Type", "Accept"} {
		if v := src.Header.Get(h); v != "" {
			dst.Header.Set(h, v)
		}
	}

	requestID := middleware.GetRequestID(src.Context())
	if requestID == "" {
		requestID = src.Header.Get(middleware.RequestIDHeader)
	}
	if requestID != "" {
		dst.Header.Set(middleware.RequestIDHeader, requestID)
	}

	traceID := middleware.GetTraceID(src.Context())
	if traceID == "" {
		traceID = src.Header.Get(middleware.TraceIDHeader)
	}
	if traceID != "" {
		dst.Header.Set(middleware.TraceIDHeader, traceID)
	}
}

// errorMessage picks the message of a backend error response.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"detail", "error", "title"} {
			if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return http.StatusText(status)
}

// ErrorResponse is the gateway's only error shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "resource not found")
}

// MethodNotAllowed answers known paths hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// TooLarge rejects a request whose declared body exceeds the size limit.
func TooLarge(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
}

// Panic renders the 500 written after a recovered panic.
func Panic(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusInternalServerError, "internal server error")
}
