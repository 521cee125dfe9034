package psi

import (
	"crypto/rand"
	"fmt"
	"log"

	gr "github.com/bwesterb/go-ristretto"
	r255 "github.com/gtank/ristretto255"
	"github.com/zeebo/blake3"
)

// EncodedLen is the length of an encoded ristretto point.
const EncodedLen = 32

const (
	RistrettoTypeR255 = iota
	RistrettoTypeGR
)

// ErrBadPoint is returned when a blob chunk does not decode to a group
// point.
var ErrBadPoint = fmt.Errorf("could not decode a ristretto point")

// Ristretto is a prime-order group scalar bound to one session secret.
// DeriveMultiply hashes an element onto the group and blinds it with the
// secret, Multiply re-blinds an already encoded point and InverseMultiply
// strips this session's blinding from an encoded point.
type Ristretto interface {
	DeriveMultiply(element []byte) [EncodedLen]byte
	Multiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error)
	InverseMultiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error)
}

type gRistretto struct {
	key *gr.Scalar
	inv *gr.Scalar
}

type r255Ristretto struct {
	key *r255.Scalar
	inv *r255.Scalar
}

// NewRistretto returns a group handle of type t with a fresh random
// session secret.
func NewRistretto(t int) Ristretto {
	switch t {
	case RistrettoTypeGR:
		var key gr.Scalar
		key.Rand()
		var inv gr.Scalar
		inv.Inverse(&key)
		return &gRistretto{key: &key, inv: &inv}
	default:
		var key = r255.NewScalar()
		var uniformBytes = make([]byte, 64)
		if _, err := rand.Read(uniformBytes); err != nil {
			log.Fatalf("could not generate uniform bytes to seed r255")
		}
		key.FromUniformBytes(uniformBytes)
		var inv = r255.NewScalar().Invert(key)
		return &r255Ristretto{key: key, inv: inv}
	}
}

// derive hashes an element to 64 uniform bytes for the group derivation.
func derive(element []byte) []byte {
	h := blake3.New()
	h.Write(element)
	var uniform = make([]byte, 64)
	h.Digest().Read(uniform)
	return uniform
}

// "github.com/bwesterb/go-ristretto"
func (g *gRistretto) DeriveMultiply(element []byte) [EncodedLen]byte {
	var p gr.Point
	p.DeriveDalek(element)
	var q gr.Point
	q.ScalarMult(&p, g.key)
	var out [EncodedLen]byte
	q.BytesInto(&out)
	return out
}

func (g *gRistretto) Multiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error) {
	return g.multiply(encoded, g.key)
}

func (g *gRistretto) InverseMultiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error) {
	return g.multiply(encoded, g.inv)
}

func (g *gRistretto) multiply(encoded [EncodedLen]byte, s *gr.Scalar) ([EncodedLen]byte, error) {
	var out [EncodedLen]byte
	var p gr.Point
	if !p.SetBytes(&encoded) {
		return out, ErrBadPoint
	}
	p.ScalarMult(&p, s)
	p.BytesInto(&out)
	return out, nil
}

// "github.com/gtank/ristretto255"
func (r *r255Ristretto) DeriveMultiply(element []byte) [EncodedLen]byte {
	var p = r255.NewElement()
	p.FromUniformBytes(derive(element))
	p.ScalarMult(r.key, p)
	var out [EncodedLen]byte
	copy(out[:], p.Encode(nil))
	return out
}

func (r *r255Ristretto) Multiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error) {
	return r.multiply(encoded, r.key)
}

func (r *r255Ristretto) InverseMultiply(encoded [EncodedLen]byte) ([EncodedLen]byte, error) {
	return r.multiply(encoded, r.inv)
}

func (r *r255Ristretto) multiply(encoded [EncodedLen]byte, s *r255.Scalar) ([EncodedLen]byte, error) {
	var out [EncodedLen]byte
	var p = r255.NewElement()
	if err := p.Decode(encoded[:]); err != nil {
		return out, ErrBadPoint
	}
	p.ScalarMult(s, p)
	copy(out[:], p.Encode(nil))
	return out, nil
}
