package reconstruct

import (
	"strings"
	"testing"

	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

var salt = []byte("test-salt")

func membership(members ...int64) *psi.Result {
	return &psi.Result{Reveal: psi.RevealMembership, Size: int64(len(members)), Members: members}
}

func TestHighlightLines(t *testing.T) {
	// local A,B,C against remote B,C,D: A is not shared, blank lines
	// pass through untouched
	content := "A\n\nB\nC"
	out, err := NewEngine(salt).Highlight(content, segment.Line, membership(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	want := "[-A-]\n\n[+B+]\n[+C+]"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestExtractLines(t *testing.T) {
	out, err := NewEngine(salt).Extract("A\n\nB\nC", segment.Line, membership(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if out != "B\nC" {
		t.Errorf("expected %q, got %q", "B\nC", out)
	}
}

func TestExtractChars(t *testing.T) {
	out, err := NewEngine(salt).Extract("ab cd", segment.Char, membership(0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if out != "ac" {
		t.Errorf("expected %q, got %q", "ac", out)
	}
}

func TestRedactPreservesShape(t *testing.T) {
	content := "hello world\nsecret line\nhello world"
	// lines 0 and 2 shared, line 1 redacted
	out, err := NewEngine(salt).Redact(content, segment.Line, membership(0, 2))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "hello world" || lines[2] != "hello world" {
		t.Error("member lines must pass through unchanged")
	}
	if lines[1] == "secret line" {
		t.Error("non-member line leaked")
	}
	if len(lines[1]) != len("secret line") {
		t.Errorf("filler length %d differs from original %d", len(lines[1]), len("secret line"))
	}
}

func TestRedactDeterministic(t *testing.T) {
	content := "aaa\nbbb\naaa"
	e := NewEngine(salt)
	out, err := e.Redact(content, segment.Line, membership())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	// identical units redact identically within a run
	if lines[0] != lines[2] {
		t.Errorf("identical units produced different filler: %q vs %q", lines[0], lines[2])
	}
	// and across runs under the same salt
	again, err := NewEngine(salt).Redact(content, segment.Line, membership())
	if err != nil {
		t.Fatal(err)
	}
	if out != again {
		t.Error("reruns under the same salt must redact identically")
	}
	// a different salt diverges
	other, err := NewEngine([]byte("other-salt")).Redact(content, segment.Line, membership())
	if err != nil {
		t.Fatal(err)
	}
	if out == other {
		t.Error("different salts produced the same filler")
	}
}

func TestRedactWords(t *testing.T) {
	content := "keep drop keep"
	// tokens: keep, " ", drop, " ", keep — all but "drop" shared
	out, err := NewEngine(salt).Redact(content, segment.Word, membership(0, 1, 3, 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(content) {
		t.Fatalf("redaction changed the byte length: %d vs %d", len(out), len(content))
	}
	if !strings.HasPrefix(out, "keep ") || !strings.HasSuffix(out, " keep") {
		t.Errorf("member tokens must pass through, got %q", out)
	}
	if strings.Contains(out, "drop") {
		t.Errorf("non-member token leaked in %q", out)
	}
}

func TestSizeOnlyRejected(t *testing.T) {
	res := &psi.Result{Reveal: psi.RevealSizeOnly, Size: 1}
	if _, err := NewEngine(salt).Highlight("A", segment.Line, res); err != ErrReveal {
		t.Errorf("expected ErrReveal, got %v", err)
	}
}

func TestOutOfRangeIndexFatal(t *testing.T) {
	// an index past the element count is an engine contract violation
	if _, err := NewEngine(salt).Highlight("A\nB", segment.Line, membership(7)); err == nil {
		t.Error("expected a contract violation")
	}
}
