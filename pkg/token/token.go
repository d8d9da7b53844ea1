// Package token provides source positions for measurement scanning.
//
// A Cursor walks a document while reporting character offsets (not byte
// offsets), and a Span records the character range a scanned piece of text
// came from. Kind labels the segments a document is split into.
package token

import "fmt"

// Kind identifies what a scanned segment of a document holds.
type Kind int32

// Segment kinds.
const (
	TEXT    Kind = iota // plain text between measurements
	MEASURE             // a <number><unit> measurement
	INVALID             // a measurement attempt that failed with an error
)

var kindNames = map[Kind]string{
	TEXT:    "TEXT",
	MEASURE: "MEASURE",
	INVALID: "INVALID",
}

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
