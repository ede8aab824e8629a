package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/fsutil"
	"github.com/yaklabco/binsplice/pkg/prelink"
	"github.com/yaklabco/binsplice/pkg/reporter"
)

type kextsFlags struct {
	format  string
	extract []string
	all     bool
	dir     string
}

func newKextsCommand() *cobra.Command {
	var flags kextsFlags

	cmd := &cobra.Command{
		Use:   "kexts <kernel>",
		Short: "List or extract the kexts of a prelinked kernel",
		Long: `List the kernel extensions embedded in a prelinked kernel's
__PRELINK_TEXT segment. Kexts are named from the __PRELINK_INFO property list
by load address; unnamed objects are listed as kext_<offset>.

With --extract or --all the selected Mach-O objects are written to --dir,
one file per kext.`,
		Example: `  binsplice kexts kernelcache
  binsplice kexts --extract com.apple.iokit.IOUSBFamily --dir out kernelcache
  binsplice kexts --all --dir out kernelcache`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKexts(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().StringArrayVarP(&flags.extract, "extract", "x", nil,
		"extract the kext with this name or bundle identifier (repeatable)")
	cmd.Flags().BoolVar(&flags.all, "all", false, "extract every kext")
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", ".", "directory to extract into")

	return cmd
}

func runKexts(cmd *cobra.Command, path string, flags kextsFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	format, err := reporter.ParseFormat(flags.format)
	if err != nil {
		return usageError(err)
	}
	if flags.all && len(flags.extract) > 0 {
		return usageError(errors.New("--all and --extract are mutually exclusive"))
	}

	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}

	kernel, err := prelink.Open(content)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, warning := range kernel.Warnings {
		logger.Warn("kext", logging.FieldError, warning)
	}

	selected := kernel.Kexts
	if len(flags.extract) > 0 {
		selected = make([]prelink.Kext, 0, len(flags.extract))
		for _, name := range flags.extract {
			kext, err := kernel.Lookup(name)
			if err != nil {
				return err
			}
			selected = append(selected, kext)
		}
	}

	if flags.all || len(flags.extract) > 0 {
		if err := os.MkdirAll(flags.dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", flags.dir, err)
		}
		for _, kext := range selected {
			out := filepath.Join(flags.dir, kext.FileName())
			if err := fsutil.WriteAtomic(ctx, out, kernel.Bytes(kext), fsutil.DefaultFileMode); err != nil {
				return fmt.Errorf("extract %s: %w", kext.FileName(), err)
			}
			logger.Debug("extracted",
				logging.FieldKext, kext.FileName(),
				logging.FieldBundleID, kext.BundleID,
				logging.FieldOutput, out,
				logging.FieldBytes, kext.Size)
		}
	}

	rep, err := reporter.New(reporter.Options{
		Writer: cmd.OutOrStdout(),
		Format: format,
		Color:  colorMode(cmd),
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}
	return rep.ReportKexts(ctx, path, selected)
}
