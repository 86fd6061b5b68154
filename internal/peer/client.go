package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/middleware"
)

// maxBodyBytes caps how much of a peer response is read.
const maxBodyBytes = 4 << 20

// Options configures a peer client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// base holds the plumbing shared by UserClient and AdsClient.
type base struct {
	peer     string
	baseURL  string
	http     *http.Client
	recorder metrics.Recorder
	logger   *slog.Logger
}

func newBase(peer string, opts Options) base {
	b := base{
		peer:     peer,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     opts.HTTPClient,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if b.http == nil {
		b.http = NewHTTPClient(DefaultTimeout)
	}
	if b.recorder == nil {
		b.recorder = metrics.NewNoop()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// result is a classified peer response.
type result struct {
	existence Existence
	status    int
	body      []byte
}

// call performs one request and classifies the answer. A non-nil error is
// returned only for Rejected and Unreachable outcomes.
func (b base) call(ctx context.Context, operation, method, path string, query url.Values) (result, error) {
	start := time.Now()
	res, err := b.do(ctx, operation, method, path, query)
	b.recorder.ObservePeerCall(b.peer, operation, res.existence.String(), time.Since(start))

	attrs := []any{
		slog.String("peer", b.peer),
		slog.String("operation", operation),
		slog.String("outcome", res.existence.String()),
		slog.String("request_id", middleware.GetRequestID(ctx)),
	}
	if err != nil {
		b.logger.Warn("peer call failed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		b.logger.Debug("peer call", attrs...)
	}

	return res, err
}

func (b base) do(ctx context.Context, operation, method, path string, query url.Values) (result, error) {
	target := b.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return result{existence: Unreachable}, b.unavailable(operation, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	forwardHeaders(ctx, req)

	resp, err := b.http.Do(req)
	if err != nil {
		return result{existence: Unreachable}, b.unavailable(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return result{existence: Unreachable, status: resp.StatusCode}, b.unavailable(operation, fmt.Errorf("reading body: %w", err))
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if len(body) > 0 && !gjson.ValidBytes(body) {
			return result{existence: Unreachable, status: resp.StatusCode}, b.unavailable(operation, errors.New("undecodable response body"))
		}
		return result{existence: Found, status: resp.StatusCode, body: body}, nil
	case http.StatusNotFound:
		return result{existence: NotFound, status: resp.StatusCode, body: body}, nil
	default:
		return result{existence: Rejected, status: resp.StatusCode, body: body}, &RejectedError{
			Peer:      b.peer,
			Operation: operation,
			Status:    resp.StatusCode,
			Detail:    detailOf(body),
		}
	}
}

func (b base) unavailable(operation string, err error) error {
	return &UnavailableError{Peer: b.peer, Operation: operation, Err: err}
}

// forwardHeaders propagates correlation IDs from the inbound request.
func forwardHeaders(ctx context.Context, req *http.Request) {
	if id := middleware.GetRequestID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}
	if id := middleware.GetTraceID(ctx); id != "" {
		req.Header.Set(middleware.TraceIDHeader, id)
	}
}

// detailOf picks a human readable message from a peer error body.
func detailOf(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"detail", "error", "title", "message"} {
			if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	return strings.TrimSpace(string(body))
}
