package reporter

import (
	"io"
	"os"
)

// bufWriterSize is the buffer size for buffered output writers (64 KiB).
const bufWriterSize = 64 * 1024

// Options configures reporter behavior.
type Options struct {
	// Writer is the destination for output (typically os.Stdout).
	Writer io.Writer

	Format Format

	// Color controls colorized output: "auto" (default), "always", "never".
	Color string

	// PreviewBytes caps the hex preview per replacement in text output.
	PreviewBytes int

	// Compact emits single-line JSON.
	Compact bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Writer:       os.Stdout,
		Format:       FormatText,
		Color:        "auto",
		PreviewBytes: 16,
	}
}
