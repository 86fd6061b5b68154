package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

func (n *NoopRecorder) ObservePeerCall(peer, operation, outcome string, duration time.Duration) {}

func (n *NoopRecorder) IncCascade(outcome string) {}

func (n *NoopRecorder) AddMutations(entity, action string, count int) {}

func (n *NoopRecorder) ObserveProxy(backend, operation string, status int, duration time.Duration) {}

func (n *NoopRecorder) IncRateLimited(limiter string) {}
