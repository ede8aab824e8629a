package splice

import "slices"

// Apply replaces each range with the payload at the same index.
// It returns ErrArityMismatch when ranges and payloads differ in count, and
// otherwise behaves like Replace with default options.
func Apply(buf []byte, ranges []Range, payloads [][]byte) ([]byte, error) {
	reps, err := Pair(ranges, payloads)
	if err != nil {
		return nil, err
	}
	return Replace(buf, reps, Options{})
}

// Replace applies all replacements to buf and returns the patched buffer.
//
// Ranges are interpreted in buf's original coordinates and applied in
// ascending offset order; replacements starting at the same offset are
// applied in input order. Every range is validated before the first splice,
// so on error buf is left unchanged.
//
// The patched buffer may share storage with buf. Payloads must not alias buf.
func Replace(buf []byte, reps []Replacement, opts Options) ([]byte, error) {
	steps, _, err := Plan(len(buf), reps, opts)
	if err != nil {
		return nil, err
	}
	return execute(buf, steps), nil
}

// execute splices planned steps into buf. Steps must come from Plan for a
// buffer of len(buf).
func execute(buf []byte, steps []Step) []byte {
	for _, step := range steps {
		buf = slices.Replace(buf, step.EffectiveOffset, step.EffectiveOffset+step.Length, step.Data...)
	}
	return buf
}
