package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// File owns the read-merge-write cycle against one archive file. The mutex
// serializes concurrent merges into the same path; the write goes through a
// temp file and rename so readers never observe a half-written archive.
type File struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
}

// NewFile wraps the archive at path.
func NewFile(path string, log *slog.Logger) *File {
	return &File{path: path, log: log}
}

// Path returns the archive file location.
func (f *File) Path() string {
	return f.path
}

// MergeBatch merges a markdown batch into the archive file. A missing file
// counts as an empty archive.
func (f *File) MergeBatch(content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read archive: %w", err)
	}

	merged := Merge(string(existing), content)

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(merged), 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}

	f.log.Debug("archive merged", slog.String("path", f.path))
	return nil
}
