// Package reporter renders patch results, Mach-O segment listings and
// prelinked kext inventories.
package reporter

import (
	"context"
	"fmt"

	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/prelink"
)

// Reporter formats and writes results.
type Reporter interface {
	// Report writes the outcome of a patch run.
	Report(ctx context.Context, result *patcher.Result) error

	// ReportSegments writes the segment table of a Mach-O image.
	ReportSegments(ctx context.Context, path string, img *macho.Image) error

	// ReportKexts writes the kexts embedded in a prelinked kernel.
	ReportKexts(ctx context.Context, path string, kexts []prelink.Kext) error
}

// New creates a Reporter for the specified options.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatJSON:
		return NewJSONReporter(opts), nil
	case FormatText:
		return NewTextReporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
