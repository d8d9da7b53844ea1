package token

import "unicode/utf8"

// CharSlice returns the substring of s covering the character range
// [start, end). An empty range always yields "" and true, whatever its
// position. A range reaching past the last character of s yields false.
func CharSlice(s string, start, end int) (string, bool) {
	if start == end {
		return "", true
	}
	if start < 0 || end < start {
		return "", false
	}

	byteStart, byteEnd := -1, -1
	char := 0
	for i := range s {
		if char == start {
			byteStart = i
		}
		if char == end {
			byteEnd = i
			break
		}
		char++
	}
	if byteEnd < 0 && char == end {
		byteEnd = len(s)
	}
	if byteStart < 0 || byteEnd < 0 {
		return "", false
	}
	return s[byteStart:byteEnd], true
}

// CharIndexForByte converts a byte offset within s into a character index.
//
// Every character that starts before the byte offset is counted, so an
// offset landing inside a multi-byte character counts that character as
// covered. Offsets past the end of s clamp to the character count.
func CharIndexForByte(s string, byteOffset int) int {
	if byteOffset >= len(s) {
		return utf8.RuneCountInString(s)
	}
	n := 0
	for i := range s {
		if i >= byteOffset {
			break
		}
		n++
	}
	return n
}
