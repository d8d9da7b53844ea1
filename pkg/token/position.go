package token

import "fmt"

// Span is a half-open range of character (not byte) offsets in a document.
type Span struct {
	Start int // 0-based character offset, inclusive
	End   int // 0-based character offset, exclusive
}

// NewSpan returns the span [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty returns true if the span covers no characters.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains returns true if the span contains the given character offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// String returns the span as "start..end".
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
