// Package pathutil validates user-supplied file paths.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Path validation errors
var (
	ErrEmptyPath         = errors.New("file path cannot be empty")
	ErrInvalidCharacters = errors.New("file path contains invalid characters")
	ErrTraversal         = errors.New("file path leaves its base directory")
)

// Check rejects empty paths and paths containing NUL bytes.
func Check(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	if strings.Contains(path, "\x00") {
		return ErrInvalidCharacters
	}
	return nil
}

// CheckContained also rejects absolute paths and any ".." segment, so the
// path stays inside the directory it is resolved against. Segments are
// inspected before cleaning: "sql/../../etc/passwd" must not pass as
// "../etc/passwd" would not.
func CheckContained(path string) error {
	if err := Check(path); err != nil {
		return err
	}
	if filepath.IsAbs(path) || strings.HasPrefix(filepath.ToSlash(path), "/") {
		return fmt.Errorf("%w: %q is absolute", ErrTraversal, path)
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return fmt.Errorf("%w: %q", ErrTraversal, path)
		}
	}
	return nil
}
