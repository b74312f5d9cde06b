// Package atomicfile reads whole files and writes them via a
// temp-file-then-rename so a reader never observes a half-written
// configuration file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ReadError wraps an I/O failure with the offending path, so callers
// (store's io-failure kind) can report it verbatim.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is the write-side counterpart of ReadError.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Read returns the full contents of path, or a *ReadError.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// Write persists payload to path by writing a sibling temporary file
// in the same directory and renaming it over the destination, so a
// concurrent reader of path only ever sees the previous complete
// content or the new complete content, never a partial write.
//
// If the payload already matches what is on disk, Write is a no-op —
// callers that write the same file repeatedly (Store.WriteFile) don't
// pay for a rename when nothing changed.
func Write(path string, payload []byte) error {
	if unchanged(path, payload) {
		return nil
	}

	dir := filepath.Dir(path)
	tmpName := filepath.Join(dir, ".confer-"+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	cleanup := true
	defer func() {
		if cleanup {
			_ = f.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(payload); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	cleanup = false

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// unchanged reports whether path already holds content fingerprinting
// identically to payload. Any error reading the existing file (most
// commonly: it doesn't exist yet) is treated as "changed" so Write
// proceeds normally.
func unchanged(path string, payload []byte) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if len(existing) != len(payload) {
		return false
	}
	return xxhash.Sum64(existing) == xxhash.Sum64(payload)
}
