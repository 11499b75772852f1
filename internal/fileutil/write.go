package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteIfChanged writes data unless the file already holds the same bytes.
// Parent directories are created as needed.
func WriteIfChanged(path string, data []byte) error {
	_, err := WriteIfChangedTracked(path, data)
	return err
}

func WriteIfChangedTracked(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

func EnsureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
