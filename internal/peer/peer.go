// Package peer implements the HTTP clients the domain services use to reach
// each other. Every call is a single attempt bound to the caller's context,
// and its outcome is reported as an explicit Existence value.
package peer

import (
	"errors"
	"fmt"
)

// Existence is the outcome of a peer call.
type Existence int

const (
	// Found means the peer answered 200.
	Found Existence = iota + 1
	// NotFound means the peer answered 404.
	NotFound
	// Rejected means the peer answered with any other status.
	Rejected
	// Unreachable means no usable answer arrived: transport failure,
	// timeout, cancellation or an undecodable body.
	Unreachable
)

func (e Existence) String() string {
	switch e {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

var (
	// ErrPeerUnavailable wraps every Unreachable outcome.
	ErrPeerUnavailable = errors.New("peer unavailable")
	// ErrPeerRejected wraps every Rejected outcome.
	ErrPeerRejected = errors.New("peer rejected request")
)

// RejectedError carries the status and detail a peer answered with.
type RejectedError struct {
	Peer      string
	Operation string
	Status    int
	Detail    string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: status %d", e.Peer, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Peer, e.Operation, e.Status, e.Detail)
}

func (e *RejectedError) Unwrap() error { return ErrPeerRejected }

// UnavailableError carries the transport or decode failure behind an
// Unreachable outcome.
type UnavailableError struct {
	Peer      string
	Operation string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Peer, e.Operation, e.Err)
}

// Is reports ErrPeerUnavailable so callers can match with errors.Is while
// Unwrap still exposes the cause (for example context.DeadlineExceeded).
func (e *UnavailableError) Is(target error) bool { return target == ErrPeerUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }
