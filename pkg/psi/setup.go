package psi

import (
	"fmt"

	bloom "github.com/bits-and-blooms/bloom/v3"
)

// DefaultFPR is the aggregate false positive rate budget for one session
// when the caller does not pick one.
const DefaultFPR = 1e-6

// ErrReadingSetup is triggered when a setup blob cannot be decoded back
// into the membership structure.
var ErrReadingSetup = fmt.Errorf("could not decode a setup structure from the blob")

// Setup is the responder's compact encoding of its blinded element set. It
// travels between the parties as an opaque blob and answers only
// probabilistic membership, with a false positive rate fixed at creation.
type Setup struct {
	bf *bloom.BloomFilter
}

// newSetup sizes a membership structure for n blinded points at a per
// query false positive rate of fpr.
func newSetup(n int64, fpr float64) *Setup {
	if n < 1 {
		n = 1
	}
	return &Setup{bf: bloom.NewWithEstimates(uint(n), fpr)}
}

// add one encoded point
func (s *Setup) add(p [EncodedLen]byte) {
	s.bf.Add(p[:])
}

// Test reports whether an encoded point was (probably) added.
func (s *Setup) Test(p [EncodedLen]byte) bool {
	return s.bf.Test(p[:])
}

// MarshalBinary packs the structure into an opaque blob.
func (s *Setup) MarshalBinary() ([]byte, error) {
	return s.bf.MarshalJSON()
}

// UnmarshalSetup decodes b into a Setup.
func UnmarshalSetup(b []byte) (*Setup, error) {
	var bf = &bloom.BloomFilter{}
	if err := bf.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadingSetup, err)
	}
	return &Setup{bf: bf}, nil
}
