package splice

import (
	"errors"
	"fmt"
)

// Sentinel errors for categorization via errors.Is.
var (
	// ErrArityMismatch indicates ranges and payloads differ in count.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrRangeOutOfBounds indicates a range that does not fit the original buffer.
	ErrRangeOutOfBounds = errors.New("range out of bounds")

	// ErrOverlappingRanges indicates two replacements cover common bytes.
	ErrOverlappingRanges = errors.New("overlapping ranges")

	// ErrAllocationFailure indicates the patched buffer size cannot be represented.
	ErrAllocationFailure = errors.New("allocation failure")
)

// ArityError describes a ranges/payloads count mismatch.
type ArityError struct {
	Ranges   int
	Payloads int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: %d ranges but %d payloads", ErrArityMismatch, e.Ranges, e.Payloads)
}

// Unwrap returns ErrArityMismatch.
func (e *ArityError) Unwrap() error {
	return ErrArityMismatch
}

// RangeError describes a replacement whose range is invalid for the buffer.
type RangeError struct {
	// Index is the position of the replacement in the caller's input.
	Index int

	Range   Range
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: replacement %d %s: %s", ErrRangeOutOfBounds, e.Index, e.Range, e.Message)
}

// Unwrap returns ErrRangeOutOfBounds.
func (e *RangeError) Unwrap() error {
	return ErrRangeOutOfBounds
}

// OverlapError describes two overlapping replacements.
type OverlapError struct {
	First  Range
	Second Range
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %s and %s", ErrOverlappingRanges, e.First, e.Second)
}

// Unwrap returns ErrOverlappingRanges.
func (e *OverlapError) Unwrap() error {
	return ErrOverlappingRanges
}
