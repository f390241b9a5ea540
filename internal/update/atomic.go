package update

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path via a ".tmp" sibling followed by a
// rename, so a crash between the write and the rename leaves path either
// unchanged or fully replaced — never partially written. If the rename
// fails because path already exists on a platform that disallows
// renaming over an existing file, it falls back to removing path first
// and retrying the rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return err
		}
		if err := os.Rename(tmp, path); err != nil {
			return err
		}
	}

	return nil
}

// CopyFileAtomic copies src to dst using the same atomic-rename convention
// as WriteFileAtomic.
func CopyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	perm := os.FileMode(0o640)
	if err == nil {
		perm = info.Mode().Perm()
	}
	return WriteFileAtomic(dst, data, perm)
}
