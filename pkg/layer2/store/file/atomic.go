package filestore

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// writeFileAtomic replaces path with data so that concurrent readers observe
// either the previous or the new contents, never a partial write.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	if err := renameio.WriteFile(path, data, perm); err != nil {
		return err
	}

	return syncDir(dir)
}

// syncDir makes the rename durable. Some platforms can't open directories
// for syncing, in which case it's a no-op.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	// nolint:errcheck
	defer d.Close()

	// nolint:errcheck
	d.Sync()
	return nil
}
