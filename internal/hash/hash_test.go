package hash

import (
	"crypto/rand"
	"fmt"
	"testing"
)

var xxx = []byte("e:0e1f461bbefa6e07cc2ef06b9ee1ed25101e24d4345af266ed2f5a58bcd26c5e")

func makeSalt() ([]byte, error) {
	var s = make([]byte, SaltLength)

	if n, err := rand.Read(s); err != nil {
		return nil, err
	} else if n != SaltLength {
		return nil, fmt.Errorf("requested %d rand bytes and got %d", SaltLength, n)
	} else {
		return s, nil
	}
}

func TestNew(t *testing.T) {
	s, err := makeSalt()
	if err != nil {
		t.Fatal(err)
	}
	for _, typ := range []int{Highway, Murmur3} {
		h, err := New(typ, s)
		if err != nil {
			t.Fatalf("type %d: %v", typ, err)
		}
		// deterministic under one salt
		if h.Hash64(xxx) != h.Hash64(xxx) {
			t.Errorf("type %d: hash of identical bytes differs", typ)
		}
	}
	if _, err := New(42, s); err != ErrUnknownHash {
		t.Errorf("expected ErrUnknownHash, got %v", err)
	}
	if _, err := New(Highway, s[:SaltLength-1]); err != ErrSaltLengthMismatch {
		t.Errorf("expected ErrSaltLengthMismatch, got %v", err)
	}
}

func TestSaltedness(t *testing.T) {
	s1, _ := makeSalt()
	s2, _ := makeSalt()
	for _, typ := range []int{Highway, Murmur3} {
		h1, _ := New(typ, s1)
		h2, _ := New(typ, s2)
		if h1.Hash64(xxx) == h2.Hash64(xxx) {
			t.Errorf("type %d: different salts produced the same digest", typ)
		}
	}
}

func BenchmarkHighway(b *testing.B) {
	s, _ := makeSalt()
	h, _ := NewHighwayHasher(s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Hash64(xxx)
	}
}

func BenchmarkMurmur3(b *testing.B) {
	s, _ := makeSalt()
	h, _ := NewMurmur3Hasher(s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Hash64(xxx)
	}
}
