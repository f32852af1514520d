package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes the snapshot to a local file. Readers never see a
// partial file: the data goes to a temporary file in the same directory which
// then replaces the target.
type FileDestination struct {
	path string
}

// NewFileDestination returns a destination that writes to path, creating
// its directory when needed.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

// Name returns the file URL, e.g. "file:///var/backups/flags.jsonl".
func (d *FileDestination) Name() string { return "file://" + d.path }

// Write replaces the file with data.
func (d *FileDestination) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
