// Package reconstruct turns a membership result back into a coherent output
// artifact: marked or redacted full text, a members-only extract, or a full
// image with non matching tiles filled.
package reconstruct

import (
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

var (
	// ErrReveal is a pre-flight rejection of a size-only result where
	// per element membership is required.
	ErrReveal = fmt.Errorf("reconstruction requires a membership result")
	// ErrContract is triggered by a member index outside the element
	// range; it signals a mismatch with the intersection engine.
	ErrContract = fmt.Errorf("member index outside the element range")
)

// fillerAlphabet maps hash bytes to filler symbols, one per input byte.
// 64 symbols divide 256 evenly.
const fillerAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Markers for the highlight output mode.
const (
	MarkMemberOpen     = "[+"
	MarkMemberClose    = "+]"
	MarkNonMemberOpen  = "[-"
	MarkNonMemberClose = "-]"
)

// Engine rebuilds text output for one run. It owns the run scoped redaction
// cache, so identical units redact identically within the run; engines are
// never shared across concurrent runs.
//
// Filler bytes are a pure function of (salt, unit bytes), so reruns with
// the same salt redact identically too. That determinism is a known
// weakness: a party that can guess a candidate unit can confirm its
// presence by comparing filler outputs. It is kept because stable output
// across runs is what the diffing workflow expects.
type Engine struct {
	salt  []byte
	cache map[string]string
}

// NewEngine returns an engine redacting under salt.
func NewEngine(salt []byte) *Engine {
	return &Engine{salt: salt, cache: make(map[string]string)}
}

// memberSet validates the result against n elements and indexes it.
func memberSet(result *psi.Result, n int64) (map[int64]bool, error) {
	if result.Reveal != psi.RevealMembership {
		return nil, ErrReveal
	}
	var members = make(map[int64]bool, len(result.Members))
	for _, m := range result.Members {
		if m < 0 || m >= n {
			return nil, fmt.Errorf("%w: %d of %d", ErrContract, m, n)
		}
		members[m] = true
	}
	return members, nil
}

func count(units []segment.Unit) int64 {
	var n int64
	for _, u := range units {
		if u.Elem >= 0 {
			n++
		}
	}
	return n
}

// Highlight emits a full copy of content with every element wrapped in a
// member or non member marker. Spans that carry no element, blank lines
// included, pass through untouched.
func (e *Engine) Highlight(content string, mode segment.Mode, result *psi.Result) (string, error) {
	units := segment.Units(content, mode)
	members, err := memberSet(result, count(units))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, u := range units {
		switch {
		case u.Elem < 0:
			b.WriteString(u.Text)
		case members[u.Elem]:
			b.WriteString(MarkMemberOpen)
			b.WriteString(u.Text)
			b.WriteString(MarkMemberClose)
		default:
			b.WriteString(MarkNonMemberOpen)
			b.WriteString(u.Text)
			b.WriteString(MarkNonMemberClose)
		}
	}
	return b.String(), nil
}

// Extract emits only the member units in original order. Line mode joins
// the extracted lines with newlines; the scan modes concatenate member
// units directly.
func (e *Engine) Extract(content string, mode segment.Mode, result *psi.Result) (string, error) {
	units := segment.Units(content, mode)
	members, err := memberSet(result, count(units))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, u := range units {
		if u.Elem < 0 || !members[u.Elem] {
			continue
		}
		if mode == segment.Line && b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(u.Text)
	}
	return b.String(), nil
}

// Redact emits a full copy of content with every non member element
// replaced by deterministic pseudorandom filler of identical byte length.
// Members and element-free spans pass through unchanged.
func (e *Engine) Redact(content string, mode segment.Mode, result *psi.Result) (string, error) {
	units := segment.Units(content, mode)
	members, err := memberSet(result, count(units))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, u := range units {
		if u.Elem < 0 || members[u.Elem] {
			b.WriteString(u.Text)
			continue
		}
		b.WriteString(e.filler(u.Text))
	}
	return b.String(), nil
}

// filler derives the replacement for one unit: an extendable hash of
// salt||unit, each output byte mapped through the filler alphabet, one
// symbol per input byte.
func (e *Engine) filler(unit string) string {
	if f, ok := e.cache[unit]; ok {
		return f
	}
	h := blake3.New()
	h.Write(e.salt)
	h.Write([]byte(unit))
	var material = make([]byte, len(unit))
	h.Digest().Read(material)
	for i, m := range material {
		material[i] = fillerAlphabet[int(m)%len(fillerAlphabet)]
	}
	f := string(material)
	e.cache[unit] = f
	return f
}
