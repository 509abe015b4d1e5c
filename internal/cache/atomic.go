package cache

import (
	"os"
	"path/filepath"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

// writeFileAtomic writes data to a temp file in the target directory and renames
// it over path, so readers see either the old file or the new one.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return &catalog.FilesystemError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &catalog.FilesystemError{Op: "write", Path: tmpPath, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &catalog.FilesystemError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &catalog.FilesystemError{Op: "close", Path: tmpPath, Err: err}
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return &catalog.FilesystemError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return &catalog.FilesystemError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
