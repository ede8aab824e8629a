// Package cli provides the Cobra command structure for binsplice.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root binsplice command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "binsplice",
		Short: "Apply byte-range patches to binary files",
		Long: `binsplice applies a set of byte-range replacements to a file in one pass.

Every range is given in the coordinates of the original file, so patches
never have to account for the size changes of earlier patches. Ranges can be
absolute or relative to a Mach-O segment or section. Files are written
atomically, with a sidecar backup by default.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newRestoreCommand())
	rootCmd.AddCommand(newSegmentsCommand())
	rootCmd.AddCommand(newKextsCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
