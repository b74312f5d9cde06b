package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Write(path, []byte("a = 1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "a = 1\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Write(path, []byte("a = 1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.toml" {
		t.Fatalf("expected only config.toml in %s, got %v", dir, entries)
	}
}

func TestWriteSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Write(path, []byte("a = 1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info1, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := Write(path, []byte("a = 1\n")); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	info2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if info1.ModTime() != info2.ModTime() {
		t.Fatalf("expected no-op write to leave mtime unchanged: %v != %v", info1.ModTime(), info2.ModTime())
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var rerr *ReadError
	if !asReadError(err, &rerr) {
		t.Fatalf("expected *ReadError, got %T: %v", err, err)
	}
	if rerr.Path == "" {
		t.Fatal("expected path to be set")
	}
}

func asReadError(err error, target **ReadError) bool {
	re, ok := err.(*ReadError)
	if !ok {
		return false
	}
	*target = re
	return true
}
