package token

import (
	"fmt"
	"unicode/utf8"
)

// Cursor is a read-only view of a slice of a larger document.
//
// It pairs the remaining text with the character offset at which that text
// starts in the document. Scanners advance in bytes; the cursor converts
// those byte positions back into document-relative character offsets, so
// spans stay correct in the presence of multi-byte glyphs such as ½ or ⁄.
//
// Cursor is a small value type. Advancing returns a new Cursor and never
// modifies the receiver, so a scanner can keep a snapshot and retry another
// alternative from it.
type Cursor struct {
	text   string
	offset int // character offset of text[0] in the document
}

// NewCursor returns a cursor over the whole of text.
func NewCursor(text string) Cursor {
	return Cursor{text: text}
}

// NewCursorAt returns a cursor over text, which starts at the given
// character offset of some containing document.
func NewCursorAt(text string, charOffset int) Cursor {
	return Cursor{text: text, offset: charOffset}
}

// Text returns the remaining text.
func (c Cursor) Text() string {
	return c.text
}

// Offset returns the document character offset of the cursor.
func (c Cursor) Offset() int {
	return c.offset
}

// Len returns the remaining length in bytes.
func (c Cursor) Len() int {
	return len(c.text)
}

// IsEmpty returns true if no text remains.
func (c Cursor) IsEmpty() bool {
	return len(c.text) == 0
}

// Peek returns the next rune and its width in bytes, or (utf8.RuneError, 0)
// at the end of input.
func (c Cursor) Peek() (rune, int) {
	if c.IsEmpty() {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(c.text)
}

// Slice returns the text in the character range [start, end) relative to
// the cursor. See CharSlice.
func (c Cursor) Slice(start, end int) (string, bool) {
	return CharSlice(c.text, start, end)
}

// CharIndex converts a byte offset within the remaining text into a
// document-relative character index.
func (c Cursor) CharIndex(byteOffset int) int {
	return c.offset + CharIndexForByte(c.text, byteOffset)
}

// Range returns the document span covered by the remaining text.
func (c Cursor) Range() Span {
	return Span{Start: c.offset, End: c.offset + utf8.RuneCountInString(c.text)}
}

// Advance returns a cursor positioned n bytes further into the text.
// n is clamped to the remaining length.
func (c Cursor) Advance(n int) Cursor {
	if n <= 0 {
		return c
	}
	if n > len(c.text) {
		n = len(c.text)
	}
	return Cursor{text: c.text[n:], offset: c.CharIndex(n)}
}

// Next returns a cursor positioned one character further into the text.
func (c Cursor) Next() Cursor {
	_, size := c.Peek()
	return c.Advance(size)
}

// Consumed returns the text and document span between c and rest, where
// rest is a cursor obtained by advancing c.
func (c Cursor) Consumed(rest Cursor) (string, Span) {
	n := len(c.text) - len(rest.text)
	if n < 0 {
		n = 0
	}
	return c.text[:n], Span{Start: c.offset, End: rest.offset}
}

// String implements fmt.Stringer for debugging.
func (c Cursor) String() string {
	return fmt.Sprintf("%s: %q", c.Range(), c.text)
}
