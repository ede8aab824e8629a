package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/config"
	"github.com/yaklabco/binsplice/pkg/fsutil"
	"github.com/yaklabco/binsplice/pkg/manifest"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/reporter"
)

type applyFlags struct {
	manifest      string
	replace       []string
	output        string
	dryRun        bool
	format        string
	noBackup      bool
	allowOverlaps bool
	yes           bool
}

func newApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Apply replacements to a file",
		Long:  applyLongDescription,
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.manifest, "manifest", "m", "", "patch manifest (YAML)")
	cmd.Flags().StringArrayVar(&flags.replace, "replace", nil, "inline replacement OFFSET:LENGTH:HEX (repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the result here instead of in place")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "plan and report without writing")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "do not create a sidecar backup")
	cmd.Flags().BoolVar(&flags.allowOverlaps, "allow-overlaps", false, "skip the overlapping-range check")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "do not ask before overwriting without a backup")

	return cmd
}

const applyLongDescription = `Apply byte-range replacements to a file.

Replacements come from a manifest, from --replace flags, or both. All offsets
refer to the original file. The file is patched in place unless --output is
given; in-place writes keep a sidecar backup (<file>.binsplice.bak) unless
backups are disabled.

Examples:
  binsplice apply -m patches.yml kernel
  binsplice apply --replace 0x1f00:4:1f2003d5 kernel
  binsplice apply --replace 0x40:0:cafe --dry-run kernel
  binsplice apply -m patches.yml -o kernel.patched --format json`

func runApply(cmd *cobra.Command, args []string, flags *applyFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	cliCfg := &config.Config{DryRun: flags.dryRun, NoBackups: flags.noBackup}
	if flags.allowOverlaps {
		cliCfg.Overlaps = config.OverlapAllow
	}
	if cmd.Flags().Changed("format") {
		cliCfg.Format = config.OutputFormat(flags.format)
	}

	cfg, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	m, err := buildManifest(flags)
	if err != nil {
		return err
	}

	target := m.TargetPath()
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		return usageError(errors.New("no target file: pass it as an argument or set target in the manifest"))
	}

	format, err := reporter.ParseFormat(string(cfg.Format))
	if err != nil {
		return usageError(err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:       cmd.OutOrStdout(),
		Format:       format,
		Color:        colorMode(cmd),
		PreviewBytes: reporter.DefaultOptions().PreviewBytes,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	opts := patcher.OptionsFromConfig(cfg)

	if !opts.DryRun && flags.output == "" && opts.Backup == fsutil.BackupModeNone && !flags.yes && isTerminal(cmd.InOrStdin()) {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("Patch %s in place without a backup?", target))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("aborted", logging.FieldPath, target)
			return nil
		}
	}

	logger.Debug("applying",
		logging.FieldPath, target,
		logging.FieldReplacements, len(m.Patches),
		logging.FieldDryRun, opts.DryRun,
		logging.FieldBackup, opts.Backup,
		logging.FieldOverlaps, cfg.Overlaps,
	)

	result, err := patcher.New(opts).Run(ctx, patcher.Request{
		Path:     target,
		Output:   flags.output,
		Manifest: m,
	})
	if err != nil {
		return err
	}

	if err := rep.Report(ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}
	return nil
}

// buildManifest loads --manifest, then appends --replace patches.
func buildManifest(flags *applyFlags) (*manifest.Manifest, error) {
	m := &manifest.Manifest{}
	if flags.manifest != "" {
		loaded, err := manifest.Load(flags.manifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	for _, inline := range flags.replace {
		patch, err := manifest.ParseInline(inline)
		if err != nil {
			return nil, usageError(fmt.Errorf("--replace %q: %w", inline, err))
		}
		m.Patches = append(m.Patches, patch)
	}

	if len(m.Patches) == 0 && flags.manifest == "" {
		return nil, usageError(errors.New("nothing to apply: pass --manifest or --replace"))
	}
	return m, nil
}
