// Package writeback persists edited layout source back to disk.
package writeback

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile replaces the file at path with content.
// The write is atomic: content is written to a temp file first, then renamed.
// An existing file keeps its permissions; a new one is created 0644.
func WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".quickdir-write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	_ = os.Chmod(tmpName, mode) // best-effort permission sync

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// Rewrite reads path, passes its content through edit and writes the result
// back when it differs. It reports whether the file changed.
func Rewrite(path string, edit func(src []byte) ([]byte, error)) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read source %s: %w", path, err)
	}
	out, err := edit(src)
	if err != nil {
		return false, err
	}
	if bytes.Equal(src, out) {
		return false, nil
	}
	if err := WriteFile(path, out); err != nil {
		return false, err
	}
	return true, nil
}
