// Package validation checks names coming from the server before they touch
// the local filesystem.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is wrapped by every rejection below.
var ErrUnsafePath = errors.New("unsafe path")

// ValidateFilename accepts a bare file name only: no separators of either
// platform, no NUL byte, and not "." or "..". Names such as "a..b.pdf" pass.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty file name", ErrUnsafePath)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: file name contains NUL: %q", ErrUnsafePath, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: file name contains a path separator: %q", ErrUnsafePath, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: file name %q", ErrUnsafePath, name)
	}
	return nil
}

// ValidatePathInDirectory fails when path, resolved against baseDir, ends up
// outside baseDir.
func ValidatePathInDirectory(path, baseDir string) error {
	if path == "" || baseDir == "" {
		return fmt.Errorf("%w: empty path or base directory", ErrUnsafePath)
	}

	base, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s escapes %s", ErrUnsafePath, path, baseDir)
	}
	return nil
}
