// Package patcher runs a patch manifest against a file: it reads the target,
// resolves and plans the replacements, and writes the result atomically with
// an optional sidecar backup.
package patcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/config"
	"github.com/yaklabco/binsplice/pkg/contentkind"
	"github.com/yaklabco/binsplice/pkg/fsutil"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/manifest"
	"github.com/yaklabco/binsplice/pkg/splice"
)

// Error categories for errors.Is.
var (
	// ErrFileNotFound indicates the target does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied indicates the target could not be accessed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidPatch indicates the manifest cannot be applied to the target.
	ErrInvalidPatch = errors.New("invalid patch")

	// ErrWriteFailure indicates the patched output could not be written.
	ErrWriteFailure = errors.New("write failure")
)

// Options controls a patch run.
type Options struct {
	// DryRun plans without writing anything.
	DryRun bool

	// Backup is the backup mode for in-place writes. Empty means none.
	Backup fsutil.BackupMode

	// AllowOverlaps skips the overlap check.
	AllowOverlaps bool
}

// OptionsFromConfig derives Options from a resolved configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{Backup: fsutil.BackupModeSidecar}
	}

	opts := Options{
		DryRun:        cfg.DryRun,
		AllowOverlaps: cfg.Overlaps == config.OverlapAllow,
		Backup:        fsutil.BackupModeNone,
	}
	if cfg.BackupsEnabled() {
		opts.Backup = fsutil.BackupMode(cfg.Backups.Mode)
		if opts.Backup == "" {
			opts.Backup = fsutil.BackupModeSidecar
		}
	}
	return opts
}

// Request names a target and the patches to apply to it.
type Request struct {
	// Path is the file to patch.
	Path string

	// Output is where the result is written. Empty means in place.
	Output string

	// Manifest holds the patches. Nil means no patches.
	Manifest *manifest.Manifest
}

// Patcher applies manifests to files.
type Patcher struct {
	Options Options
}

// New creates a Patcher.
func New(opts Options) *Patcher {
	return &Patcher{Options: opts}
}

// Run applies req to disk.
//
// Stages:
//  1. Read and snapshot the target.
//  2. Classify the content.
//  3. Resolve patches, parsing the target as Mach-O if any are
//     segment-relative.
//  4. Plan the splice.
//  5. Unless dry-run: verify the target is unchanged, back it up, splice and
//     write atomically.
//
// Nothing is written unless every stage before the write succeeds.
func (p *Patcher) Run(ctx context.Context, req Request) (*Result, error) {
	logger := logging.FromContext(ctx).With(logging.FieldPath, req.Path)

	content, snap, err := fsutil.ReadFile(ctx, req.Path)
	if err != nil {
		return nil, categorizeError(err)
	}

	result := &Result{
		Path:         req.Path,
		Output:       req.Output,
		OriginalSize: len(content),
		FinalSize:    len(content),
		DryRun:       p.Options.DryRun,
	}
	if result.Output == "" {
		result.Output = req.Path
	}

	result.Kind = contentkind.Detect(req.Path, content)
	if !result.Kind.Binary {
		logger.Warn("target looks like text; offsets are in bytes", logging.FieldKind, result.Kind.String())
	}

	m := req.Manifest
	if m == nil {
		m = &manifest.Manifest{}
	}

	reps, err := resolve(ctx, m, content)
	if err != nil {
		return nil, err
	}

	steps, finalSize, err := splice.Plan(len(content), reps, splice.Options{CheckOverlaps: !p.Options.AllowOverlaps})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	result.FinalSize = finalSize
	result.Steps = describe(steps, m.Labels(), content)

	logger.Debug("planned",
		logging.FieldReplacements, len(steps),
		logging.FieldOriginalSize, result.OriginalSize,
		logging.FieldFinalSize, finalSize)

	inPlace := sameFile(result.Output, req.Path)
	if p.Options.DryRun || (inPlace && len(steps) == 0) {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("patch cancelled: %w", err)
	}

	if inPlace {
		if err := fsutil.Verify(ctx, snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
		}

		created, err := fsutil.CreateBackup(ctx, snap, content, p.Options.Backup)
		if err != nil {
			return nil, fmt.Errorf("%w: create backup: %w", ErrWriteFailure, err)
		}
		result.BackupCreated = created
		if created {
			result.BackupPath = fsutil.BackupPath(req.Path, p.Options.Backup)
			logger.Debug("backup created", logging.FieldBackup, result.BackupPath)
		}
	}

	patched, err := splice.Replace(content, reps, splice.Options{CheckOverlaps: !p.Options.AllowOverlaps})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	if err := fsutil.WriteAtomic(ctx, result.Output, patched, snap.Mode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	result.Written = true

	logger.Debug("written", logging.FieldOutput, result.Output, logging.FieldBytes, len(patched))
	return result, nil
}

func resolve(ctx context.Context, m *manifest.Manifest, content []byte) ([]splice.Replacement, error) {
	var resolver manifest.SegmentResolver
	if m.NeedsResolver() {
		img, err := macho.Open(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrInvalidPatch, manifest.ErrResolverRequired, err)
		}
		resolver = img
	}

	reps, err := m.Resolve(ctx, resolver)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("patch cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return reps, nil
}

// describe attaches labels and removed bytes to planned steps. Original
// bytes are copied since splicing may reuse content's storage.
func describe(steps []splice.Step, labels []string, content []byte) []Change {
	changes := make([]Change, len(steps))
	for i, step := range steps {
		changes[i] = Change{
			Step:     step,
			Label:    labels[step.Index],
			Original: bytes.Clone(content[step.Offset:step.End()]),
		}
	}
	return changes
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func categorizeError(err error) error {
	switch {
	case errors.Is(err, fsutil.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, fsutil.ErrPermissionDenied):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return err
	}
}

// IsIOError reports whether err came from reading or writing files.
func IsIOError(err error) bool {
	return errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrWriteFailure) ||
		errors.Is(err, fsutil.ErrIsDirectory)
}
