package fsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// BackupMode specifies how backups are stored.
type BackupMode string

const (
	// BackupModeSidecar stores the backup next to the target with BackupSuffix.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

// BackupSuffix is appended to the target path for sidecar backups.
const BackupSuffix = ".binsplice.bak"

// BackupPath returns where the backup of path lives, or "" when mode
// disables backups.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// CreateBackup copies the pristine content of a target to its backup path.
// An existing backup is never overwritten, so repeated patch runs keep the
// original bytes. Returns true if a backup was written.
func CreateBackup(ctx context.Context, snap *Snapshot, content []byte, mode BackupMode) (bool, error) {
	if snap == nil {
		return false, ErrNilSnapshot
	}

	backupPath := BackupPath(snap.Path, mode)
	if backupPath == "" {
		return false, nil
	}

	if _, err := os.Stat(backupPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat backup: %w", err)
	}

	if err := WriteAtomic(ctx, backupPath, content, snap.Mode); err != nil {
		return false, fmt.Errorf("write backup: %w", err)
	}
	return true, nil
}

// RestoreBackup writes the backup of path back over path. When remove is
// set, the backup is deleted afterwards. Returns false if no backup exists.
func RestoreBackup(ctx context.Context, path string, mode BackupMode, remove bool) (bool, error) {
	backupPath := BackupPath(path, mode)
	if backupPath == "" {
		return false, nil
	}

	content, snap, err := ReadFile(ctx, backupPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read backup: %w", err)
	}

	if err := WriteAtomic(ctx, path, content, snap.Mode); err != nil {
		return false, fmt.Errorf("restore from backup: %w", err)
	}

	if remove {
		if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
			return true, fmt.Errorf("remove backup: %w", err)
		}
	}
	return true, nil
}

// BackupExists reports whether a backup exists for path.
func BackupExists(path string, mode BackupMode) bool {
	backupPath := BackupPath(path, mode)
	if backupPath == "" {
		return false
	}
	_, err := os.Stat(backupPath)
	return err == nil
}
