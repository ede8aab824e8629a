package splice_test

import (
	"bytes"
	"testing"

	"github.com/yaklabco/binsplice/pkg/splice"
)

// spreadReplacements returns n disjoint replacements across a buffer of
// size n*stride, alternating growth and shrinkage.
func spreadReplacements(n, stride int) []splice.Replacement {
	reps := make([]splice.Replacement, 0, n)
	for i := n - 1; i >= 0; i-- {
		data := []byte{0xAA}
		if i%2 == 0 {
			data = []byte{0xAA, 0xBB, 0xCC, 0xDD}
		}
		reps = append(reps, splice.Replacement{
			Range: splice.Range{Offset: i * stride, Length: 2},
			Data:  data,
		})
	}
	return reps
}

func BenchmarkReplaceSingle(b *testing.B) {
	content := bytes.Repeat([]byte{0x90}, 4096)
	reps := []splice.Replacement{{Range: splice.Range{Offset: 1024, Length: 4}, Data: []byte{1, 2}}}
	b.ResetTimer()
	for range b.N {
		_, _ = splice.Replace(content, reps, splice.Options{})
	}
}

func BenchmarkReplaceMany(b *testing.B) {
	const n, stride = 512, 64
	content := bytes.Repeat([]byte{0x90}, n*stride)
	reps := spreadReplacements(n, stride)
	b.ResetTimer()
	for range b.N {
		_, _ = splice.Replace(content, reps, splice.Options{CheckOverlaps: true})
	}
}

func BenchmarkPlan(b *testing.B) {
	const n, stride = 512, 64
	reps := spreadReplacements(n, stride)
	b.ResetTimer()
	for range b.N {
		_, _, _ = splice.Plan(n*stride, reps, splice.Options{CheckOverlaps: true})
	}
}
