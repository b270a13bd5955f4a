package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// EnsureDir creates path and any missing parents. An existing directory is a
// no-op. A regular file or dangling symlink at path or at any ancestor is a
// path conflict.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return conflictErrorf("%s exists and is not a directory", path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		if conflict := findConflict(path); conflict != "" {
			return conflictErrorf("%s exists and is not a directory", conflict)
		}
		return ioError("stat "+path, err)
	}

	if err := os.MkdirAll(path, dirPerm); err != nil {
		if conflict := findConflict(path); conflict != "" {
			return conflictErrorf("%s exists and is not a directory", conflict)
		}
		return ioError("mkdir "+path, err)
	}
	return nil
}

// EnsureTree provisions dir and every named subdirectory as one operation.
// It only succeeds when all of them exist afterwards; on failure it can be
// called again.
func EnsureTree(dir string, subdirs []string) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}
	for _, name := range subdirs {
		if err := EnsureDir(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("subdirectory %q: %w", name, err)
		}
	}

	var missing []string
	for _, name := range subdirs {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.IsDir() {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ioError("verify "+dir, fmt.Errorf("missing subdirectories: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// findConflict walks from path towards the filesystem root and returns the
// first existing entry that is not a directory. Symlinks count as directories
// only when they resolve to one; a dangling link is a conflict.
func findConflict(path string) string {
	for p := filepath.Clean(path); ; {
		info, err := os.Lstat(p)
		if err == nil {
			if info.Mode()&fs.ModeSymlink != 0 {
				target, err := os.Stat(p)
				if err != nil || !target.IsDir() {
					return p
				}
				return ""
			}
			if !info.IsDir() {
				return p
			}
			return ""
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}
