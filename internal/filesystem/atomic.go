package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces target with data so that readers see either the
// old content or the new, never a partial file. The data is written to a
// temporary file in the same directory, synced, then renamed over target.
// Missing parent directories are created with mode 0750.
func WriteFileAtomic(target string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp to target: %w", err)
	}
	return nil
}

// WriteFileExclusive writes data to target only if target does not exist
// yet. It reports false, with no error, when another writer got there
// first.
func WriteFileExclusive(target string, data []byte, perm os.FileMode) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return false, fmt.Errorf("creating parent directory: %w", err)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //nolint:gosec // G304: path from trusted config
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		_ = os.Remove(target)
		return false, fmt.Errorf("writing %s: %w", target, err)
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		return false, err
	}
	return true, f.Close()
}
