package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	err := WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read result: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("Unexpected content %q", data)
	}
}

func TestWriteFileAtomic_RenderFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	renderErr := errors.New("boom")

	err := WriteFileAtomic(path, 0644, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return renderErr
	})
	if !errors.Is(err, renderErr) {
		t.Fatalf("Expected render error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected an empty directory, found %d entries", len(entries))
	}
}

func TestWriteFileAtomic_KeepsPreviousContentOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	WriteFileAtomic(path, 0644, func(w io.Writer) error { return errors.New("boom") })

	data, _ := os.ReadFile(path)
	if string(data) != "old" {
		t.Errorf("Expected previous content to survive, got %q", data)
	}
}

func TestWriteFileAtomic_ReplacesWithPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	err := WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat result: %v", err)
	}
	// The requested mode is applied through the umask, so only bits it can keep are checked.
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("Expected owner read/write, got %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("Expected replaced content, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
}
