package knowledge

import (
	"fmt"
	"unicode/utf8"
)

// Split divides a fragment into bounded overlapping passages.
//
// The fragment text is covered by consecutive non-overlapping spans;
// each passage carries its span plus the tail of the preceding span as
// overlap, so context is not lost at chunk boundaries. Concatenating
// the non-overlapping spans reconstructs the original text exactly.
// Every passage is at most maxSize bytes, except when maxSize is
// smaller than a single multi-byte rune, which is then emitted whole.
//
// Cuts prefer paragraph boundaries, then sentence ends, then word
// breaks, falling back to a hard cut only when a single sentence
// exceeds the budget. Split is a pure function: identical input and
// configuration always produce identical passages.
func Split(frag Fragment, maxSize, overlap int) ([]Passage, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, max chunk size), got overlap=%d max=%d", overlap, maxSize)
	}

	text := frag.Text
	if text == "" {
		return nil, nil
	}

	// Each new span gets at most maxSize-overlap bytes so that span plus
	// overlap prefix never exceeds maxSize.
	budget := maxSize - overlap

	var passages []Passage
	start := 0
	for position := 0; start < len(text); position++ {
		end := start + budget
		if end >= len(text) {
			end = len(text)
		} else {
			end = cutPoint(text, start, end)
			// Tiny budgets can align the hard cut back onto start;
			// always advance by at least one rune.
			if end <= start {
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
		}

		prefix := start - overlap
		if prefix < 0 {
			prefix = 0
		}
		// A forced one-rune advance can make span plus overlap outgrow
		// maxSize; shrink the overlap to compensate. A single rune wider
		// than maxSize is still emitted whole.
		if end-prefix > maxSize {
			prefix = end - maxSize
			if prefix > start {
				prefix = start
			}
		}
		// Align forward so the overlap never grows past its budget.
		for prefix < start && !utf8.RuneStart(text[prefix]) {
			prefix++
		}

		passages = append(passages, Passage{
			ID:         PassageID(frag.ID, position),
			Text:       text[prefix:end],
			FragmentID: frag.ID,
			Position:   position,
		})
		start = end
	}

	return passages, nil
}

// cutPoint chooses the best split position in (start, limit], preferring
// a paragraph break, then a sentence end, then a space, then a hard cut
// aligned to a rune boundary.
func cutPoint(text string, start, limit int) int {
	window := text[start:limit]

	// Paragraph boundary: cut just after the blank line.
	if i := lastIndexAfter(window, "\n\n"); i > 0 {
		return start + i
	}

	// Sentence boundary: a terminator followed by whitespace.
	if i := lastSentenceEnd(window); i > 0 {
		return start + i
	}

	// Word boundary.
	if i := lastIndexAfter(window, " "); i > 0 {
		return start + i
	}

	// Hard cut; never split a UTF-8 sequence.
	return alignRuneStart(text, limit)
}

// lastIndexAfter returns the index just past the last occurrence of sep
// in s, or -1 when absent.
func lastIndexAfter(s, sep string) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		if s[i:i+len(sep)] == sep {
			return i + len(sep)
		}
	}
	return -1
}

// lastSentenceEnd returns the index just past the last sentence
// terminator that is followed by whitespace, or -1 when none exists.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			next := s[i+1]
			if next == ' ' || next == '\n' || next == '\t' {
				return i + 2
			}
		}
	}
	return -1
}

// alignRuneStart moves i backwards to the start of the UTF-8 sequence
// containing it.
func alignRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
