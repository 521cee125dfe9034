package exchange

import (
	"context"
)

// Transport carries the opaque protocol blobs between the two roles. It has
// no cryptographic meaning; blob internals are entirely the intersection
// engine's concern.
//
// Implementations must report every transport level failure (timeout,
// connection reset, malformed status) as an error. Query returns member
// false only for the protocol's explicit non-membership status; conflating
// the two would silently turn network failures into false redactions.
type Transport interface {
	// FetchSetup advertises the initiator's element count and retrieves
	// the responder's setup blob.
	FetchSetup(ctx context.Context, countHint int64) ([]byte, error)
	// Exchange sends a request blob and retrieves the response blob.
	Exchange(ctx context.Context, request []byte) ([]byte, error)
	// Query runs one incremental micro exchange for the element at index
	// with the given canonical bytes. payload is non nil only on
	// membership.
	Query(ctx context.Context, index int64, canon []byte) (payload []byte, member bool, err error)
}
