// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by peer calls and cascades.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
)

// Cascade outcomes recorded by the user service.
const (
	CascadeDeleted = "deleted"
	CascadeNoop    = "noop"
	CascadeFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Inbound HTTP
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Cross-service calls
	ObservePeerCall(peer, operation, outcome string, duration time.Duration)
	IncCascade(outcome string)

	// Entity mutations; entity is "ad" or "user", action is created/updated/deleted.
	AddMutations(entity, action string, n int)

	// Gateway
	ObserveProxy(backend, operation string, status int, duration time.Duration)
	IncRateLimited(limiter string)
}
