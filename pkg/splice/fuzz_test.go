package splice_test

import (
	"bytes"
	"testing"

	"github.com/yaklabco/binsplice/pkg/splice"
)

// referenceApply copies unreplaced spans and payloads into a fresh buffer.
// Replacements must be sorted and disjoint.
func referenceApply(content []byte, sorted []splice.Replacement) []byte {
	var out bytes.Buffer
	cursor := 0
	for _, rep := range sorted {
		out.Write(content[cursor:rep.Offset])
		out.Write(rep.Data)
		cursor = rep.End()
	}
	out.Write(content[cursor:])
	return out.Bytes()
}

// replacementsFromSeed derives disjoint replacements from fuzz input.
// Each control byte picks a gap, a length and a payload size.
func replacementsFromSeed(contentLen int, control []byte) []splice.Replacement {
	var reps []splice.Replacement
	cursor := 0
	for i := 0; i+2 < len(control); i += 3 {
		gap := int(control[i] % 8)
		length := int(control[i+1] % 8)
		if cursor+gap > contentLen {
			break
		}
		start := cursor + gap
		if start+length > contentLen {
			length = contentLen - start
		}
		if length == 0 && gap == 0 && len(reps) > 0 && reps[len(reps)-1].Length == 0 {
			// Two insertions at one offset tie and reorder on reversal.
			continue
		}
		payload := bytes.Repeat([]byte{control[i+2]}, int(control[i+2]%6))
		reps = append(reps, splice.Replacement{
			Range: splice.Range{Offset: start, Length: length},
			Data:  payload,
		})
		cursor = start + length
	}
	return reps
}

func FuzzReplace(f *testing.F) {
	f.Add([]byte(""), []byte(""))
	f.Add([]byte("hello world"), []byte{1, 2, 3})
	f.Add([]byte("0123456789"), []byte{2, 3, 2, 1, 1, 0, 7, 0, 5})
	f.Add(bytes.Repeat([]byte{0xCC}, 64), []byte{0, 0, 4, 0, 0, 4, 3, 7, 1})
	f.Add([]byte("0123456789"), []byte{2, 0, 1, 0, 3, 2})

	f.Fuzz(func(t *testing.T, content, control []byte) {
		sorted := replacementsFromSeed(len(content), control)
		want := referenceApply(content, sorted)

		// Feed the replacements in reverse to exercise the sort.
		reversed := make([]splice.Replacement, len(sorted))
		for i, rep := range sorted {
			reversed[len(sorted)-1-i] = rep
		}

		got, err := splice.Replace(bytes.Clone(content), reversed, splice.Options{CheckOverlaps: true})
		if err != nil {
			t.Fatalf("Replace() error = %v", err)
		}

		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Replace() = %x, want %x", got, want)
		}
	})
}
