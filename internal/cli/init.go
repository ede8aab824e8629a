package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/configloader"
	"github.com/yaklabco/binsplice/internal/logging"
)

func newInitCommand() *cobra.Command {
	var force bool
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default .binsplice.yml",
		Long: `Create a .binsplice.yml with the default settings in the current
directory (or --dir). Existing files are kept unless --force is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.NewInteractive()

			path, err := configloader.WriteDefault(cmd.Context(), dir, force)
			if errors.Is(err, os.ErrExist) {
				return usageError(fmt.Errorf("%w; use --force to overwrite", err))
			}
			if err != nil {
				return err
			}

			logger.Info("created configuration file", logging.FieldPath, path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the file in")

	return cmd
}
