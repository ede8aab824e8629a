// Package splice applies multiple byte-range replacements to a buffer in one
// pass, measuring every range against the buffer's original coordinates.
package splice

import "fmt"

// Range is a half-open byte interval [Offset, Offset+Length) in the original
// buffer. A zero Length denotes an insertion point.
type Range struct {
	// Offset is the byte index where the range begins (inclusive).
	Offset int

	// Length is the number of original bytes covered by the range.
	Length int
}

// End returns the exclusive end offset of the range.
func (r Range) End() int {
	return r.Offset + r.Length
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d]", r.Offset, r.End())
}

// Replacement pairs a range of the original buffer with the bytes that
// replace it.
type Replacement struct {
	Range

	// Data is the replacement payload. It may be shorter or longer than
	// the range, or empty for a deletion.
	Data []byte
}

// Delta returns the number of bytes the buffer grows (or shrinks, when
// negative) once the replacement is applied.
func (r Replacement) Delta() int {
	return len(r.Data) - r.Length
}

// Pair zips ranges and payloads positionally into replacements.
// It returns ErrArityMismatch when the two slices differ in length.
func Pair(ranges []Range, payloads [][]byte) ([]Replacement, error) {
	if len(ranges) != len(payloads) {
		return nil, &ArityError{Ranges: len(ranges), Payloads: len(payloads)}
	}

	reps := make([]Replacement, len(ranges))
	for i, r := range ranges {
		reps[i] = Replacement{Range: r, Data: payloads[i]}
	}
	return reps, nil
}
