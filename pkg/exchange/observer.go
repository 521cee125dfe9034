package exchange

import (
	"github.com/sharedview/sharedview/pkg/psi"
)

// Observer receives session events. It keeps UI concerns out of the
// coordinator's control flow; implementations must be cheap, events are
// delivered synchronously from the session's aggregator.
type Observer interface {
	// Progress reports done out of total micro exchanges. Bulk sessions
	// report once on completion.
	Progress(done, total int64)
	// Failure reports the error that aborted the session.
	Failure(err error)
	// Complete reports the session result.
	Complete(result *psi.Result)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Progress(done, total int64) {}

func (NopObserver) Failure(err error) {}

func (NopObserver) Complete(*psi.Result) {}
