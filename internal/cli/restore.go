package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/fsutil"
)

func newRestoreCommand() *cobra.Command {
	var removeBackup bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a file from its sidecar backup",
		Long: `Restore a patched file from the backup taken by apply
(<file>.binsplice.bak). The backup is kept unless --remove-backup is given.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			restored, err := fsutil.RestoreBackup(ctx, path, fsutil.BackupModeSidecar, removeBackup)
			if err != nil {
				return err
			}
			if !restored {
				return fmt.Errorf("no backup for %s at %s: %w",
					path, fsutil.BackupPath(path, fsutil.BackupModeSidecar), fs.ErrNotExist)
			}

			logging.FromContext(ctx).Info("restored", logging.FieldPath, path,
				logging.FieldBackup, fsutil.BackupPath(path, fsutil.BackupModeSidecar))
			return nil
		},
	}

	cmd.Flags().BoolVar(&removeBackup, "remove-backup", false, "delete the backup after restoring")

	return cmd
}
