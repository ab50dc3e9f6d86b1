package status

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile loads and validates the status file at path.
// A missing file yields an error wrapping os.ErrNotExist.
func ReadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	return Decode(data)
}

// WriteFile replaces the status file at path with snap. The new content is
// written to a temporary file first so readers never observe a partial file.
func WriteFile(path string, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp status file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write status file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod status file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
