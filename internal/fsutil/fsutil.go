// Package fsutil holds the filesystem primitives shared by the workspace
// store, the baseline snapshotter, and the committer: atomic writes,
// single-rename moves, and relative path validation.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/mrz1836/stagehand/internal/constants"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// Permission defaults for staged state.
const (
	DirPerm  = 0o750
	FilePerm = 0o600
)

// AtomicWrite writes data to path using write-temp, fsync, rename, so readers
// observe either the previous document or the new one.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + constants.TempFileSuffix
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// WriteOnce creates path with data and fails with fs.ErrExist if it already exists.
func WriteOnce(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return f.Close()
}

// renameFunc is swapped in tests to simulate cross-device and mid-commit failures.
//
//nolint:gochecknoglobals // Test seam for rename failures
var renameFunc = os.Rename

// MoveFile moves src to dst, creating dst's parent directories.
// It uses a single rename whenever both paths share a volume. On EXDEV it
// copies into a temp file beside dst, syncs it, and renames that into place,
// so dst still appears atomically; src is removed afterwards.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	return copyThenRename(src, dst)
}

func copyThenRename(src, dst string) error {
	in, err := os.Open(src) //#nosec G304 -- staged path comes from the commit manifest
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*"+constants.TempFileSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to copy across volumes: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Remove(src)
}

// SafeJoin joins a slash-separated relative path onto root and rejects
// absolute paths and anything that escapes root.
func SafeJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty relative path: %w", sherrors.ErrEmptyValue)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", rel, sherrors.ErrPathTraversal)
	}
	if clean == "." {
		return "", fmt.Errorf("%q names the root itself: %w", rel, sherrors.ErrPathTraversal)
	}
	return filepath.Join(root, clean), nil
}

// IsWithin reports whether path is root or lies beneath it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ListFiles returns every regular file under root as slash-separated paths
// relative to root, sorted. A missing root yields an empty list.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
