package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/pkg/fsutil"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/reporter"
)

func newSegmentsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "segments <file>",
		Short: "List the segments and sections of a Mach-O file",
		Long: `List the segments and sections of a Mach-O file with their file
offsets and sizes. Manifest patches can be written relative to any of them.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := reporter.ParseFormat(format)
			if err != nil {
				return usageError(err)
			}

			content, _, err := fsutil.ReadFile(ctx, args[0])
			if err != nil {
				return err
			}

			img, err := macho.Open(content)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			rep, err := reporter.New(reporter.Options{
				Writer: cmd.OutOrStdout(),
				Format: f,
				Color:  colorMode(cmd),
			})
			if err != nil {
				return fmt.Errorf("create reporter: %w", err)
			}
			return rep.ReportSegments(ctx, args[0], img)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")

	return cmd
}
