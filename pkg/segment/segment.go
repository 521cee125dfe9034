// Package segment decomposes captured content into ordered, independently
// comparable elements. Both parties must segment with the same mode, and the
// canonical bytes of a logically equal unit are byte identical on both
// sides, otherwise element indices desynchronize and nothing intersects.
package segment

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how content is decomposed into elements.
type Mode int

const (
	// Line splits on newlines and skips lines that are empty after
	// trimming.
	Line Mode = iota
	// Word tokenizes alphanumeric runs and emits every other rune,
	// whitespace included, as its own token.
	Word
	// Char emits every non-whitespace rune as one element.
	Char
)

func (m Mode) String() string {
	switch m {
	case Line:
		return "line"
	case Word:
		return "word"
	case Char:
		return "char"
	default:
		return "undefined"
	}
}

// ParseMode parses the CLI representation of a segmentation mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "line":
		return Line, nil
	case "word":
		return Word, nil
	case "char":
		return Char, nil
	default:
		return 0, fmt.Errorf("unsupported split mode %q", s)
	}
}

// Element is one atomic comparable unit. Indices are dense 0..N-1 in
// segmentation order.
type Element struct {
	Index int64
	Canon []byte
}

// Unit is one span of the original content in source order. Spans that
// entered the element stream carry their element index in Elem; spans that
// did not (whitespace in Char mode, blank lines and separators in Line
// mode) carry -1 and pass through reconstruction verbatim.
type Unit struct {
	Text string
	Elem int64
}

// Units walks content under mode and returns every span in source order.
// Concatenating the Text of all units reproduces content exactly, which is
// the property reconstruction relies on. Element indices are recomputed on
// the walk, never stored, so a re-walk always agrees with SplitText.
func Units(content string, mode Mode) []Unit {
	switch mode {
	case Line:
		return lineUnits(content)
	case Word:
		return wordUnits(content)
	default:
		return charUnits(content)
	}
}

// SplitText segments content into its ordered element sequence.
func SplitText(content string, mode Mode) []Element {
	var elements []Element
	for _, u := range Units(content, mode) {
		if u.Elem < 0 {
			continue
		}
		elements = append(elements, Element{Index: u.Elem, Canon: []byte(u.Text)})
	}
	return elements
}

// Canons returns the canonical bytes of elements in index order.
func Canons(elements []Element) [][]byte {
	var out = make([][]byte, len(elements))
	for i, e := range elements {
		out[i] = e.Canon
	}
	return out
}

func lineUnits(content string) []Unit {
	var units []Unit
	var next int64
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			units = append(units, Unit{Text: "\n", Elem: -1})
		}
		// blank lines carry no element
		if strings.TrimSpace(line) == "" {
			units = append(units, Unit{Text: line, Elem: -1})
			continue
		}
		units = append(units, Unit{Text: line, Elem: next})
		next++
	}
	return units
}

func alnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordUnits(content string) []Unit {
	var units []Unit
	var next int64
	var run []rune
	flush := func() {
		if len(run) > 0 {
			units = append(units, Unit{Text: string(run), Elem: next})
			next++
			run = run[:0]
		}
	}
	for _, r := range content {
		if alnum(r) {
			run = append(run, r)
			continue
		}
		flush()
		// every other rune, whitespace included, is its own token
		units = append(units, Unit{Text: string(r), Elem: next})
		next++
	}
	flush()
	return units
}

func charUnits(content string) []Unit {
	var units []Unit
	var next int64
	for _, r := range content {
		if unicode.IsSpace(r) {
			units = append(units, Unit{Text: string(r), Elem: -1})
			continue
		}
		units = append(units, Unit{Text: string(r), Elem: next})
		next++
	}
	return units
}
