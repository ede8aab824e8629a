package splice

import "fmt"

// Options controls how replacements are checked before they are applied.
type Options struct {
	// CheckOverlaps rejects replacement sets whose ranges overlap with
	// ErrOverlappingRanges. When false, overlapping ranges are the caller's
	// responsibility and produce unspecified (but memory-safe) output.
	CheckOverlaps bool
}

// Step is a single splice scheduled by Plan.
type Step struct {
	Replacement

	// Index is the position of the replacement in the caller's input.
	Index int

	// EffectiveOffset is where the splice happens in the partially patched
	// buffer: the original offset shifted by all earlier replacements.
	EffectiveOffset int
}

// Plan validates replacements against a buffer of length contentLen and
// schedules them in CompareRanges order. It returns the steps
// and the length of the patched buffer. Plan never touches buffer contents;
// once it succeeds, executing its steps cannot fail.
func Plan(contentLen int, reps []Replacement, opts Options) ([]Step, int, error) {
	if len(reps) == 0 {
		return nil, contentLen, nil
	}

	if err := ValidateRanges(reps, contentLen); err != nil {
		return nil, 0, err
	}

	steps := make([]Step, len(reps))
	for i, rep := range reps {
		steps[i] = Step{Replacement: rep, Index: i}
	}
	sortRanged(steps)

	if opts.CheckOverlaps {
		if err := firstOverlap(steps); err != nil {
			return nil, 0, err
		}
	}

	size := contentLen
	delta := 0
	for i := range steps {
		step := &steps[i]
		step.EffectiveOffset = step.Offset + delta

		// Only reachable when overlapping ranges were let through.
		if step.EffectiveOffset < 0 || step.EffectiveOffset > size || step.Length > size-step.EffectiveOffset {
			return nil, 0, fmt.Errorf("%w: replacement %d %s lands outside the patched buffer",
				ErrOverlappingRanges, step.Index, step.Range)
		}

		var ok bool
		size, ok = growBy(size-step.Length, len(step.Data))
		if !ok {
			return nil, 0, fmt.Errorf("%w: patched size exceeds addressable memory", ErrAllocationFailure)
		}
		delta += step.Delta()
	}

	return steps, size, nil
}
