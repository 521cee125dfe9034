package hash

import (
	"fmt"

	"github.com/minio/highwayhash"
	"github.com/twmb/murmur3"
)

const (
	SaltLength = 32

	Highway = iota
	Murmur3
)

var (
	ErrUnknownHash        = fmt.Errorf("cannot create a hasher of unknown hash type")
	ErrSaltLengthMismatch = fmt.Errorf("provided salt is not %d length", SaltLength)
)

// Hasher implements different non cryptographic hashing functions
type Hasher interface {
	Hash64([]byte) uint64
}

// New creates a hasher of type t
func New(t int, salt []byte) (Hasher, error) {
	switch t {
	case Highway:
		return NewHighwayHasher(salt)
	case Murmur3:
		return NewMurmur3Hasher(salt)
	default:
		return nil, ErrUnknownHash
	}
}

// highway implementation of Hasher
type highway struct {
	salt []byte
}

// NewHighwayHasher returns a highwayhash hasher that uses salt as its
// 32 byte key
func NewHighwayHasher(salt []byte) (highway, error) {
	if len(salt) != SaltLength {
		return highway{}, ErrSaltLengthMismatch
	}

	return highway{salt: salt}, nil
}

func (h highway) Hash64(p []byte) uint64 {
	return highwayhash.Sum64(p, h.salt)
}

// Murmur3 implementation of Hasher
type murmur64 struct {
	salt []byte
}

// NewMurmur3Hasher returns a Murmur3 hasher that uses salt as a prefix to
// the bytes being summed
func NewMurmur3Hasher(salt []byte) (murmur64, error) {
	if len(salt) != SaltLength {
		return murmur64{}, ErrSaltLengthMismatch
	}

	return murmur64{salt: salt}, nil
}

func (m murmur64) Hash64(p []byte) uint64 {
	// prepend the salt in m and then Sum
	return murmur3.Sum64(append(m.salt, p...))
}
