package metrics

import (
	"fmt"
	"sync"
	"time"
)

// InMemoryRecorder stores counters in memory for tests.
// Keys are "<family>:<label>:<label>..." strings; see the Key helpers.
type InMemoryRecorder struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{counters: make(map[string]uint64)}
}

// Count returns the current value of a counter key.
func (m *InMemoryRecorder) Count(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// Snapshot returns a copy of all counters.
func (m *InMemoryRecorder) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

func (m *InMemoryRecorder) add(key string, n uint64) {
	m.mu.Lock()
	m.counters[key] += n
	m.mu.Unlock()
}

// PeerKey names the counter for a peer call outcome.
func PeerKey(peer, operation, outcome string) string {
	return fmt.Sprintf("peer:%s:%s:%s", peer, operation, outcome)
}

// CascadeKey names the counter for a cascade outcome.
func CascadeKey(outcome string) string {
	return "cascade:" + outcome
}

// MutationKey names the counter for entity mutations.
func MutationKey(entity, action string) string {
	return fmt.Sprintf("mutation:%s:%s", entity, action)
}

// ProxyKey names the counter for proxied requests.
func ProxyKey(backend, operation string, status int) string {
	return fmt.Sprintf("proxy:%s:%s:%d", backend, operation, status)
}

// RateLimitedKey names the counter for rejected requests.
func RateLimitedKey(limiter string) string {
	return "ratelimited:" + limiter
}

// HTTPKey names the counter for inbound requests.
func HTTPKey(method, route string, status int) string {
	return fmt.Sprintf("http:%s:%s:%d", method, route, status)
}

func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.add(HTTPKey(method, route, status), 1)
}

func (m *InMemoryRecorder) ObservePeerCall(peer, operation, outcome string, duration time.Duration) {
	m.add(PeerKey(peer, operation, outcome), 1)
}

func (m *InMemoryRecorder) IncCascade(outcome string) {
	m.add(CascadeKey(outcome), 1)
}

func (m *InMemoryRecorder) AddMutations(entity, action string, n int) {
	if n <= 0 {
		return
	}
	m.add(MutationKey(entity, action), uint64(n))
}

func (m *InMemoryRecorder) ObserveProxy(backend, operation string, status int, duration time.Duration) {
	m.add(ProxyKey(backend, operation, status), 1)
}

func (m *InMemoryRecorder) IncRateLimited(limiter string) {
	m.add(RateLimitedKey(limiter), 1)
}
