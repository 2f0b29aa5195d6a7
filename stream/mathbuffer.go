package stream

import (
	"strings"
	"unicode"
)

// mathDelim delimits inline ($...$) and block ($$...$$) math expressions.
const mathDelim = '$'

type bufferMode int

const (
	modePlain bufferMode = iota
	modeInline
	modeBlock
)

// mathBuffer withholds text between math delimiters so the display sink
// never receives a partially formed expression. A complete expression is
// released as one atomic unit. The buffer is owned exclusively by the
// consumer loop and needs no synchronization.
//
// Delimiter handling is parity-based: escaped delimiters and runs of
// three or more are not given deeper LaTeX semantics. Any text still
// pending at stream end is flushed verbatim.
type mathBuffer struct {
	mode    bufferMode
	pending []rune
}

// feedRune consumes one rune and returns displayable text, if any.
func (b *mathBuffer) feedRune(r rune) (string, bool) {
	switch b.mode {
	case modeInline:
		b.pending = append(b.pending, r)
		if r != mathDelim {
			return "", false
		}
		// "$$" with nothing between opens a block expression rather
		// than closing an empty inline one.
		if len(b.pending) == 2 {
			b.mode = modeBlock
			return "", false
		}
		return b.take(), true

	case modeBlock:
		b.pending = append(b.pending, r)
		n := len(b.pending)
		if r == mathDelim && n >= 4 && b.pending[n-2] == mathDelim {
			return b.take(), true
		}
		return "", false

	default:
		if r != mathDelim {
			return string(r), true
		}
		b.mode = modeInline
		b.pending = append(b.pending, r)
		return "", false
	}
}

// feedChunk consumes a whole fragment. A fragment that leaves an
// unmatched delimiter is withheld, combined with later fragments, and
// released in full once the delimiter count balances out.
func (b *mathBuffer) feedChunk(s string) (string, bool) {
	if len(b.pending) == 0 && !strings.ContainsRune(s, mathDelim) {
		return s, s != ""
	}
	b.pending = append(b.pending, []rune(s)...)
	if !delimitersBalanced(b.pending) {
		b.mode = modeInline
		return "", false
	}
	return b.take(), true
}

// flush returns any withheld text verbatim and resets the buffer. Safe
// to call repeatedly; later calls return empty.
func (b *mathBuffer) flush() string {
	if len(b.pending) == 0 {
		b.mode = modePlain
		return ""
	}
	return b.take()
}

func (b *mathBuffer) take() string {
	out := string(b.pending)
	b.pending = b.pending[:0]
	b.mode = modePlain
	return out
}

// delimitersBalanced reports whether the text closes every math
// expression it opens. A doubled delimiter toggles block mode unless an
// inline expression is already open; a single delimiter outside block
// mode toggles inline mode.
func delimitersBalanced(runes []rune) bool {
	var inInline, inBlock bool
	for i := 0; i < len(runes); i++ {
		if runes[i] != mathDelim {
			continue
		}
		if !inInline && i+1 < len(runes) && runes[i+1] == mathDelim {
			inBlock = !inBlock
			i++
			continue
		}
		if !inBlock {
			inInline = !inInline
		}
	}
	return !inInline && !inBlock
}

// splitPacingUnits cuts already-balanced display text into word pacing
// units. Whitespace stays attached to the preceding token so the
// concatenation of all units reproduces the input exactly, and a
// complete math expression is kept as a single unit.
func splitPacingUnits(s string) []string {
	runes := []rune(s)
	var units []string
	i := 0
	for i < len(runes) {
		start := i
		if runes[i] == mathDelim {
			i = expressionEnd(runes, i)
		} else {
			for i < len(runes) && runes[i] != mathDelim && !unicode.IsSpace(runes[i]) {
				i++
			}
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		units = append(units, string(runes[start:i]))
	}
	return units
}

// expressionEnd returns the index just past the math expression opening
// at position i. Input is assumed balanced; an unterminated tail spans
// to the end.
func expressionEnd(runes []rune, i int) int {
	if i+1 < len(runes) && runes[i+1] == mathDelim {
		for j := i + 2; j+1 < len(runes); j++ {
			if runes[j] == mathDelim && runes[j+1] == mathDelim {
				return j + 2
			}
		}
		return len(runes)
	}
	for j := i + 1; j < len(runes); j++ {
		if runes[j] == mathDelim {
			return j + 1
		}
	}
	return len(runes)
}
