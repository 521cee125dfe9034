// Package psi computes the two party set intersection primitive consumed by
// the exchange layer. The responder blinds every element of its local set
// with a session scalar and publishes the blinded points inside a compact
// probabilistic set encoding (the setup blob). The initiator blinds its own
// elements with a second scalar (the request blob), has the responder apply
// its scalar on top (the response blob), strips its own blinding and tests
// each doubly blinded point against the setup. Neither side ever sees the
// other's elements, only blinded points.
package psi

import (
	"fmt"
)

// RevealMode selects what the initiator learns from a session.
type RevealMode int

const (
	// RevealSizeOnly derives only the size of the intersection. No code
	// path under this mode constructs the index list.
	RevealSizeOnly RevealMode = iota
	// RevealMembership derives the indices of the initiator's elements
	// that are in the intersection.
	RevealMembership
)

func (m RevealMode) String() string {
	switch m {
	case RevealSizeOnly:
		return "size-only"
	case RevealMembership:
		return "membership"
	default:
		return "undefined"
	}
}

var (
	// ErrInvalidFPR is a pre-flight rejection of a nonsense false
	// positive rate.
	ErrInvalidFPR = fmt.Errorf("false positive rate must be in (0,1)")
	// ErrMalformedRequest is triggered when a request blob is not a
	// whole number of encoded points.
	ErrMalformedRequest = fmt.Errorf("request blob is not a whole number of encoded points")
	// ErrMalformedResponse is triggered when a response blob does not
	// carry exactly one point per requested element.
	ErrMalformedResponse = fmt.Errorf("response blob does not match the request cardinality")
)

// Result is the outcome of one session, produced exactly once. Members is
// nil under RevealSizeOnly and holds sorted indices into the initiator's
// element sequence under RevealMembership.
type Result struct {
	Reveal  RevealMode
	Size    int64
	Members []int64
}

// Responder holds the responder side secret of one session.
type Responder struct {
	gr Ristretto
}

// NewResponder creates a responder with a fresh session secret using the
// given ristretto implementation.
func NewResponder(ristrettoType int) *Responder {
	return &Responder{gr: NewRistretto(ristrettoType)}
}

// CreateSetup blinds every local element read from elements, until elements
// closes, and packs the blinded points into a setup blob structure sized
// for n local elements. queryHint is the advertised element count of the
// remote side: the per query false positive rate is divided by it so the
// aggregate rate over the remote set stays within fpr. A hint of zero (not
// advertised) or a wildly inaccurate one degrades the effective rate or the
// setup cost, it is never an error.
func (r *Responder) CreateSetup(fpr float64, queryHint int64, n int64, elements <-chan []byte) (*Setup, error) {
	if fpr <= 0 || fpr >= 1 {
		return nil, ErrInvalidFPR
	}
	if queryHint < 1 {
		queryHint = 1
	}
	setup := newSetup(n, fpr/float64(queryHint))
	for element := range elements {
		setup.add(r.gr.DeriveMultiply(element))
	}
	return setup, nil
}

// ProcessRequest applies the responder secret on top of each encoded point
// of a request blob, preserving order.
func (r *Responder) ProcessRequest(request []byte) ([]byte, error) {
	if len(request)%EncodedLen != 0 {
		return nil, ErrMalformedRequest
	}
	var response = make([]byte, 0, len(request))
	var p [EncodedLen]byte
	for off := 0; off < len(request); off += EncodedLen {
		copy(p[:], request[off:off+EncodedLen])
		q, err := r.gr.Multiply(p)
		if err != nil {
			return nil, err
		}
		response = append(response, q[:]...)
	}
	return response, nil
}

// Initiator holds the initiator side secret of one session.
type Initiator struct {
	gr Ristretto
}

// NewInitiator creates an initiator with a fresh session secret using the
// given ristretto implementation.
func NewInitiator(ristrettoType int) *Initiator {
	return &Initiator{gr: NewRistretto(ristrettoType)}
}

// CreateRequest blinds the canonical bytes of every element, in index
// order, into one opaque request blob.
func (i *Initiator) CreateRequest(canons [][]byte) []byte {
	var request = make([]byte, 0, len(canons)*EncodedLen)
	for _, canon := range canons {
		p := i.gr.DeriveMultiply(canon)
		request = append(request, p[:]...)
	}
	return request
}

// Derive strips the initiator blinding from each point of the response blob
// and tests it against the setup, producing the session result for n
// request elements. Under RevealSizeOnly only a scalar count is computed;
// the index list is never built.
func (i *Initiator) Derive(setup *Setup, response []byte, n int64, reveal RevealMode) (*Result, error) {
	if int64(len(response)) != n*EncodedLen {
		return nil, ErrMalformedResponse
	}
	var result = &Result{Reveal: reveal}
	var p [EncodedLen]byte
	for idx := int64(0); idx < n; idx++ {
		copy(p[:], response[idx*EncodedLen:(idx+1)*EncodedLen])
		q, err := i.gr.InverseMultiply(p)
		if err != nil {
			return nil, err
		}
		if !setup.Test(q) {
			continue
		}
		result.Size++
		if reveal == RevealMembership {
			result.Members = append(result.Members, idx)
		}
	}
	return result, nil
}
