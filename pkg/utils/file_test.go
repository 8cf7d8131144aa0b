package utils

import (
	"path/filepath"
	"testing"
)

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	if err := WriteFile(path, "hello"); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil || got != "hello" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	if !FileExists(path) {
		t.Error("FileExists = false for written file")
	}
	if FileExists(filepath.Dir(path)) {
		t.Error("FileExists = true for a directory")
	}
}
