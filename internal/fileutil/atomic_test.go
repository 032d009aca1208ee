package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeBytes(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "rank_table.bin")
	testData := []byte{0x01, 0x00, 0x02, 0x00}

	if err := WriteAtomic(testFile, 0644, writeBytes(testData)); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("File content mismatch: got %v, want %v", data, testData)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("File permissions mismatch: got %o, want %o", info.Mode().Perm(), 0644)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "rank_table.bin" {
			t.Errorf("Unexpected file in directory: %s", entry.Name())
		}
	}
}

func TestWriteAtomicOverwrite(t *testing.T) {
	t.Parallel()

	testFile := filepath.Join(t.TempDir(), "transition_table.bin")

	if err := WriteAtomic(testFile, 0644, writeBytes([]byte("initial"))); err != nil {
		t.Fatalf("Initial write failed: %v", err)
	}
	if err := WriteAtomic(testFile, 0644, writeBytes([]byte("updated content"))); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "updated content" {
		t.Errorf("File content mismatch: got %q", string(data))
	}
}

func TestWriteAtomicWriterErrorKeepsOriginal(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "rank_table.bin")
	if err := WriteAtomic(testFile, 0644, writeBytes([]byte("original"))); err != nil {
		t.Fatalf("Initial write failed: %v", err)
	}

	boom := errors.New("boom")
	err := WriteAtomic(testFile, 0644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("original file modified: got %q", string(data))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteAtomicInvalidDir(t *testing.T) {
	t.Parallel()

	err := WriteAtomic("/nonexistent/dir/test.bin", 0644, writeBytes([]byte("data")))
	if err == nil {
		t.Error("Expected error when writing to non-existent directory")
	}
}
