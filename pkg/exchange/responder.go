package exchange

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/sharedview/sharedview/internal/hash"
	"github.com/sharedview/sharedview/pkg/log"
	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

// Responder answers sessions over one local element sequence. Bulk sessions
// walk ServeSetup then ProcessRequest; incremental micro exchanges hit
// QueryElement against an index of the local set precomputed once at
// construction.
type Responder struct {
	mu     sync.Mutex
	cfg    Config
	canons [][]byte
	engine *psi.Responder
	state  State

	// incremental membership index, salted digest to element indices
	hasher hash.Hasher
	index  map[uint64][]int64
}

// NewResponder indexes the local element sequence and returns a responder
// ready to serve sessions.
func NewResponder(elements []segment.Element, cfg Config) (*Responder, error) {
	r := &Responder{
		cfg:    cfg.withDefaults(),
		canons: segment.Canons(elements),
		state:  StateIdle,
		index:  make(map[uint64][]int64, len(elements)),
	}

	// the salt never crosses the wire, it only keys the local index
	var salt = make([]byte, hash.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("could not sample an index salt: %w", err)
	}
	h, err := hash.New(r.cfg.HasherType, salt)
	if err != nil {
		return nil, err
	}
	r.hasher = h
	for i, canon := range r.canons {
		d := h.Hash64(canon)
		r.index[d] = append(r.index[d], int64(i))
	}
	return r, nil
}

// N returns the responder's element count.
func (r *Responder) N() int64 {
	return int64(len(r.canons))
}

// ServeSetup starts a fresh session with a new secret, blinds the local
// set and returns the setup blob. queryHint is the remote side's advertised
// element count; zero or inaccurate hints degrade the false positive rate
// tuning but never fail. Serving a new setup abandons any session in
// flight, matching the rule that an aborted run restarts from idle.
func (r *Responder) ServeSetup(ctx context.Context, queryHint int64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := log.GetLoggerFromContextWithName(ctx, "responder")

	r.engine = psi.NewResponder(r.cfg.RistrettoType)
	r.state = StateSetupServed
	logger.V(1).Info("Serving setup", "local elements", len(r.canons), "query hint", queryHint)

	var elements = make(chan []byte)
	go func() {
		defer close(elements)
		for _, canon := range r.canons {
			elements <- canon
		}
	}()
	setup, err := r.engine.CreateSetup(r.cfg.FPR, queryHint, int64(len(r.canons)), elements)
	if err != nil {
		r.state = StateIdle
		return nil, err
	}
	blob, err := setup.MarshalBinary()
	if err != nil {
		r.state = StateIdle
		return nil, err
	}
	r.state = StateAwaitingRequest
	return blob, nil
}

// ProcessRequest answers the request blob of the session started by the
// last ServeSetup.
func (r *Responder) ProcessRequest(ctx context.Context, request []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := log.GetLoggerFromContextWithName(ctx, "responder")

	if r.state != StateAwaitingRequest {
		return nil, fmt.Errorf("%w: request in state %s", ErrState, r.state)
	}
	response, err := r.engine.ProcessRequest(request)
	if err != nil {
		r.state = StateIdle
		return nil, err
	}
	logger.V(1).Info("Processed request", "points", len(request)/psi.EncodedLen)
	r.state = StateDone
	return response, nil
}

// QueryElement answers one incremental micro exchange: the payload of the
// matching local element and true on membership, or an explicit
// non-membership status. Membership depends only on the canonical bytes;
// index is the querying side's position in its own element sequence, which
// the responder's count says nothing about, so only a negative index is
// rejected as malformed.
func (r *Responder) QueryElement(index int64, canon []byte) ([]byte, bool, error) {
	if index < 0 {
		return nil, false, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	for _, i := range r.index[r.hasher.Hash64(canon)] {
		if bytes.Equal(r.canons[i], canon) {
			return r.canons[i], true, nil
		}
	}
	return nil, false, nil
}
