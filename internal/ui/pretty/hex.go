package pretty

import (
	"fmt"
	"strings"
)

// DefaultPreviewBytes is how many bytes HexPreview shows by default.
const DefaultPreviewBytes = 16

// HexPreview renders up to limit bytes as space-separated hex pairs, with a
// trailing count of elided bytes. An empty slice renders as "(none)".
func HexPreview(data []byte, limit int) string {
	if len(data) == 0 {
		return "(none)"
	}
	if limit <= 0 {
		limit = DefaultPreviewBytes
	}

	shown := data
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	for i, c := range shown {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	if rest := len(data) - len(shown); rest > 0 {
		fmt.Fprintf(&b, " ... (+%d bytes)", rest)
	}
	return b.String()
}

// FormatOffset renders an offset as zero-padded hex.
func FormatOffset(off int) string {
	return fmt.Sprintf("0x%08x", off)
}

// Plural returns word, or word+"s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
