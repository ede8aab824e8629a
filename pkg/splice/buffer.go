package splice

// Buffer is a resizable byte buffer patched in place by ReplaceRanges.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
}

// NewBuffer creates a Buffer that takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the current contents. The slice is valid only until the
// next call to ReplaceRanges.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the current length of the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// ReplaceRanges applies reps to the buffer, resizing it as needed.
// On error the buffer is unchanged.
func (b *Buffer) ReplaceRanges(reps []Replacement, opts Options) error {
	patched, err := Replace(b.data, reps, opts)
	if err != nil {
		return err
	}
	b.data = patched
	return nil
}

// Apply is the positional form of ReplaceRanges: the i-th range is replaced by
// the i-th payload.
func (b *Buffer) Apply(ranges []Range, payloads [][]byte) error {
	reps, err := Pair(ranges, payloads)
	if err != nil {
		return err
	}
	return b.ReplaceRanges(reps, Options{})
}
