// Package fsutil provides the file safety primitives used when patching:
// snapshots for detecting concurrent modification, atomic writes and
// sidecar backups.
package fsutil

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"time"
)

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrNilSnapshot is returned when a nil Snapshot is passed.
	ErrNilSnapshot = errors.New("nil snapshot")

	// ErrNotFound indicates the file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrPermissionDenied indicates a permission error.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIsDirectory indicates the path is a directory, not a file.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrModified indicates the file changed after it was read.
	ErrModified = errors.New("file modified since it was read")
)

// Snapshot captures the state of a file when it was read.
type Snapshot struct {
	Path    string
	Mode    os.FileMode
	ModTime time.Time
	Size    int64

	// Hash is the SHA-256 of the content that was read.
	Hash [32]byte
}

// ReadFile reads a file and snapshots its state for later modification checks.
func ReadFile(ctx context.Context, path string) ([]byte, *Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, classify(path, err)
	}
	if stat.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, classify(path, err)
	}

	return content, &Snapshot{
		Path:    path,
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
		Hash:    sha256.Sum256(content),
	}, nil
}

// Verify returns ErrModified if the file no longer matches the snapshot.
// Mod time and size are compared first; the content is re-hashed only when
// they match.
func Verify(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	stat, err := os.Stat(snap.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s was removed", ErrModified, snap.Path)
		}
		return fmt.Errorf("stat %s: %w", snap.Path, err)
	}

	if !stat.ModTime().Equal(snap.ModTime) || stat.Size() != snap.Size {
		return fmt.Errorf("%w: %s", ErrModified, snap.Path)
	}

	content, err := os.ReadFile(snap.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", snap.Path, err)
	}
	if sha256.Sum256(content) != snap.Hash {
		return fmt.Errorf("%w: %s", ErrModified, snap.Path)
	}
	return nil
}

func classify(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}
}
