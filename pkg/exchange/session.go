// Package exchange orchestrates the intersection protocol between the two
// roles. The initiator drives a session against a responder through a
// Transport and learns the result; the responder only ever answers. Two
// strategies are supported: one bulk setup/request/response exchange over
// the whole element sequence, and an incremental mode running one micro
// exchange per element through a bounded worker pool for element counts too
// large for a single bulk round trip.
package exchange

import (
	"fmt"
	"time"

	"github.com/sharedview/sharedview/internal/hash"
	"github.com/sharedview/sharedview/pkg/psi"
)

// Role of one party in a session.
type Role int

const (
	// RoleInitiator drives the session and learns the result.
	RoleInitiator Role = iota
	// RoleResponder serves setup and request processing.
	RoleResponder
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return "undefined"
	}
}

// State of a session. The initiator walks Idle, SetupRequested,
// SetupReceived, RequestSent, ResponseReceived, Derived, Done; the
// responder walks Idle, SetupServed, AwaitingRequest, Done. Any failure
// drops the session back to Idle with no partial output; the caller
// re-runs the whole session.
type State int

const (
	StateIdle State = iota
	StateSetupRequested
	StateSetupReceived
	StateRequestSent
	StateResponseReceived
	StateDerived
	StateSetupServed
	StateAwaitingRequest
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSetupRequested:
		return "setup-requested"
	case StateSetupReceived:
		return "setup-received"
	case StateRequestSent:
		return "request-sent"
	case StateResponseReceived:
		return "response-received"
	case StateDerived:
		return "derived"
	case StateSetupServed:
		return "setup-served"
	case StateAwaitingRequest:
		return "awaiting-request"
	case StateDone:
		return "done"
	default:
		return "undefined"
	}
}

// DefaultWorkers is the incremental mode worker pool size when the caller
// does not pick one.
const DefaultWorkers = 10

var (
	// ErrState is triggered when the remote side drives the protocol out
	// of order, e.g. a request blob arriving before any setup was served.
	ErrState = fmt.Errorf("protocol message arrived in the wrong session state")
	// ErrIndexRange is triggered by a micro exchange query carrying a
	// negative element index. The index names a position in the querying
	// side's own sequence, so no upper bound applies here.
	ErrIndexRange = fmt.Errorf("element index out of range")
	// ErrContract is triggered when a derived result is inconsistent
	// with the session's element count. It signals a version mismatch
	// with the intersection engine, not a recoverable condition.
	ErrContract = fmt.Errorf("intersection result violates the session contract")
)

// Config carries the knobs shared by both roles and both strategies.
// The zero value is usable: membership is not revealed, the false positive
// rate, worker count and ristretto implementation fall back to defaults and
// round trips carry no explicit timeout.
type Config struct {
	// Reveal selects what the initiator learns.
	Reveal psi.RevealMode
	// FPR is the aggregate false positive rate budget for the session.
	FPR float64
	// RistrettoType selects the group implementation, which must match
	// on both sides.
	RistrettoType int
	// HasherType selects the hash keying the responder's incremental
	// membership index; zero picks highwayhash. Purely local, the digests
	// never cross the wire.
	HasherType int
	// Timeout bounds every individual round trip; zero means no bound.
	// Cancellation propagates into the in-flight network call.
	Timeout time.Duration
	// Workers bounds the incremental mode pool.
	Workers int
	// Observer receives progress and completion events.
	Observer Observer
}

func (c Config) withDefaults() Config {
	if c.FPR == 0 {
		c.FPR = psi.DefaultFPR
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.HasherType == 0 {
		c.HasherType = hash.Highway
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	return c
}

// validateResult checks a derived result against the session's element
// count n.
func validateResult(result *psi.Result, n int64) error {
	if result.Size < 0 || result.Size > n {
		return fmt.Errorf("%w: size %d for %d elements", ErrContract, result.Size, n)
	}
	if result.Reveal == psi.RevealMembership && int64(len(result.Members)) != result.Size {
		return fmt.Errorf("%w: %d member indices for size %d", ErrContract, len(result.Members), result.Size)
	}
	for _, m := range result.Members {
		if m < 0 || m >= n {
			return fmt.Errorf("%w: member index %d outside [0,%d)", ErrContract, m, n)
		}
	}
	return nil
}
