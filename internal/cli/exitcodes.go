package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/configloader"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/manifest"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/prelink"
)

// Exit codes for binsplice.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates invalid input data: a config, manifest,
	// patch or image that cannot be used.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrUsage marks errors caused by invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// usageArgs wraps a cobra argument validator so its failures map to
// ExitInvalidUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// ExitCode maps an error returned by a command onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, configloader.ErrInvalidConfig),
		errors.Is(err, manifest.ErrInvalidManifest),
		errors.Is(err, patcher.ErrInvalidPatch),
		errors.Is(err, macho.ErrNotMachO),
		errors.Is(err, prelink.ErrNotPrelinked),
		errors.Is(err, prelink.ErrInvalidInfo),
		errors.Is(err, prelink.ErrKextNotFound):
		return ExitConfigError
	case patcher.IsIOError(err),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return ExitIOError
	default:
		return ExitInternalError
	}
}
