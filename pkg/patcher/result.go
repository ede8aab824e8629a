package patcher

import (
	"fmt"

	"github.com/yaklabco/binsplice/pkg/contentkind"
	"github.com/yaklabco/binsplice/pkg/splice"
)

// Change is one planned replacement with the context needed to report it.
type Change struct {
	splice.Step

	// Label names the patch in the manifest.
	Label string

	// Original holds the bytes the replacement removes.
	Original []byte
}

// Result describes a patch run over a single target.
type Result struct {
	// Path is the target that was read.
	Path string

	// Output is where the patched bytes were (or would be) written.
	Output string

	OriginalSize int
	FinalSize    int

	// Steps are the planned changes in application order.
	Steps []Change

	// Kind classifies the target content.
	Kind contentkind.Kind

	// BackupPath is the sidecar backup location when one was created.
	BackupPath    string
	BackupCreated bool

	// Written is true if Output was written to disk.
	Written bool

	// DryRun is true if the run only planned.
	DryRun bool
}

// Delta returns the net size change.
func (r *Result) Delta() int {
	return r.FinalSize - r.OriginalSize
}

// InPlace reports whether the target is its own output.
func (r *Result) InPlace() bool {
	return r.Output == r.Path
}

// Summary returns a one-line human-readable outcome.
func (r *Result) Summary() string {
	switch {
	case len(r.Steps) == 0:
		return "no replacements"
	case r.DryRun:
		return fmt.Sprintf("%d replacement(s) planned, %+d bytes", len(r.Steps), r.Delta())
	case r.Written && r.BackupCreated:
		return fmt.Sprintf("%d replacement(s) applied, %+d bytes (backup created)", len(r.Steps), r.Delta())
	case r.Written:
		return fmt.Sprintf("%d replacement(s) applied, %+d bytes", len(r.Steps), r.Delta())
	default:
		return "not written"
	}
}
