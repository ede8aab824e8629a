package splice

import (
	"cmp"
	"math"
	"slices"
	"strconv"
)

// ValidateRanges checks every replacement against the original buffer length.
// Returns nil if all ranges fit, or a *RangeError for the first that does not.
func ValidateRanges(reps []Replacement, contentLen int) error {
	for idx, rep := range reps {
		switch {
		case rep.Offset < 0:
			return &RangeError{Index: idx, Range: rep.Range, Message: "offset is negative"}
		case rep.Length < 0:
			return &RangeError{Index: idx, Range: rep.Range, Message: "length is negative"}
		case rep.Offset > contentLen || rep.Length > contentLen-rep.Offset:
			return &RangeError{
				Index:   idx,
				Range:   rep.Range,
				Message: "end exceeds buffer length " + strconv.Itoa(contentLen),
			}
		}
	}
	return nil
}

// CompareRanges orders replacements by starting offset. At equal offsets an
// insertion (zero Length) sorts before a non-empty range, so the inserted
// bytes land ahead of that range's payload whatever the input order.
// Otherwise replacements starting at the same offset compare equal, and
// callers that need a deterministic order must sort stably.
func CompareRanges(a, b Replacement) int {
	return compareBounds(a.Range, b.Range)
}

// SortReplacements stably sorts replacements by CompareRanges.
// Replacements that compare equal keep their relative input order.
func SortReplacements(reps []Replacement) {
	sortRanged(reps)
}

// DetectOverlaps checks for overlapping neighbours in a sorted slice.
// Returns nil if no replacements overlap, or an *OverlapError for the first pair.
// Replacements must be sorted by SortReplacements before calling.
func DetectOverlaps(sorted []Replacement) error {
	return firstOverlap(sorted)
}

// ranged is satisfied by Range and every type embedding it.
type ranged interface {
	bounds() Range
}

func (r Range) bounds() Range {
	return r
}

func compareBounds(a, b Range) int {
	if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
		return c
	}
	switch {
	case a.Length == 0 && b.Length > 0:
		return -1
	case b.Length == 0 && a.Length > 0:
		return 1
	default:
		return 0
	}
}

func sortRanged[T ranged](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return compareBounds(a.bounds(), b.bounds())
	})
}

func firstOverlap[T ranged](sorted []T) error {
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1].bounds(), sorted[i].bounds()
		if overlaps(prev, next) {
			return &OverlapError{First: prev, Second: next}
		}
	}
	return nil
}

// overlaps reports whether next, which sorts after prev, starts before prev
// ends. An insertion strictly inside prev conflicts; one at either end does
// not.
func overlaps(prev, next Range) bool {
	return next.Offset < prev.End()
}

// growBy returns size+n, or false when the sum cannot be represented.
func growBy(size, n int) (int, bool) {
	if n > 0 && size > math.MaxInt-n {
		return 0, false
	}
	return size + n, true
}
