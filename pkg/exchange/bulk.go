package exchange

import (
	"context"
	"fmt"

	"github.com/sharedview/sharedview/internal/util"
	"github.com/sharedview/sharedview/pkg/log"
	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

// stage 1: advertise our element count and fetch the setup blob
// stage 2: blind the local elements and exchange request for response
// stage 3: unblind the response and derive the result

// Initiator drives sessions against a responder reached through t. One
// Initiator runs one session at a time; a failed session resets to idle and
// the caller re-runs it from scratch, there are no automatic retries.
type Initiator struct {
	t     Transport
	cfg   Config
	state State
}

// NewInitiator returns an initiator using t as the communication layer.
func NewInitiator(t Transport, cfg Config) *Initiator {
	return &Initiator{t: t, cfg: cfg.withDefaults(), state: StateIdle}
}

// State returns the current session state.
func (i *Initiator) State() State {
	return i.state
}

// Intersect runs one bulk session over elements and returns the result.
// Any transport or decode failure aborts the session with no partial
// output.
func (i *Initiator) Intersect(ctx context.Context, elements []segment.Element) (*psi.Result, error) {
	logger := log.GetLoggerFromContextWithName(ctx, "bulk")
	n := int64(len(elements))

	fail := func(err error) (*psi.Result, error) {
		i.state = StateIdle
		i.cfg.Observer.Failure(err)
		return nil, err
	}

	// stage 1: advertise our element count and fetch the setup blob
	i.state = StateSetupRequested
	logger.V(1).Info("Starting stage 1", "elements", n)
	setupBlob, err := i.roundTrip(ctx, func(c context.Context) ([]byte, error) {
		return i.t.FetchSetup(c, n)
	})
	if err != nil {
		return fail(fmt.Errorf("setup: %w", err))
	}
	setup, err := psi.UnmarshalSetup(setupBlob)
	if err != nil {
		return fail(fmt.Errorf("setup: %w", err))
	}
	i.state = StateSetupReceived
	logger.V(1).Info("Finish stage 1", "setup bytes", len(setupBlob))

	// stage 2: blind the local elements and exchange request for response
	engine := psi.NewInitiator(i.cfg.RistrettoType)
	request := engine.CreateRequest(segment.Canons(elements))
	i.state = StateRequestSent
	responseBlob, err := i.roundTrip(ctx, func(c context.Context) ([]byte, error) {
		return i.t.Exchange(c, request)
	})
	if err != nil {
		return fail(fmt.Errorf("request: %w", err))
	}
	i.state = StateResponseReceived
	logger.V(1).Info("Finish stage 2", "response bytes", len(responseBlob))

	// stage 3: unblind the response and derive the result
	result, err := engine.Derive(setup, responseBlob, n, i.cfg.Reveal)
	if err != nil {
		return fail(fmt.Errorf("derive: %w", err))
	}
	i.state = StateDerived
	if err := validateResult(result, n); err != nil {
		return fail(err)
	}
	i.state = StateDone
	logger.V(1).Info("Finish stage 3", "size", result.Size)

	i.cfg.Observer.Progress(n, n)
	i.cfg.Observer.Complete(result)
	return result, nil
}

// roundTrip applies the configured timeout to one network call and keeps
// cancellation flowing into it.
func (i *Initiator) roundTrip(ctx context.Context, call func(context.Context) ([]byte, error)) ([]byte, error) {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}
	var blob []byte
	err := util.Sel(ctx, func() error {
		var err error
		blob, err = call(ctx)
		return err
	})
	return blob, err
}
