package peer

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one peer call end to end.
	DefaultTimeout = 3 * time.Second
	// dialTimeout is the connection timeout.
	dialTimeout = 2 * time.Second
)

// NewHTTPClient creates an HTTP client for service-to-service calls.
// It does not follow redirects.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dial := dialTimeout
	if timeout < dial {
		dial = timeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dial,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
