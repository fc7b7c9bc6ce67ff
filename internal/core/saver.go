package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rescale/pricestrip/internal/validation"
)

// ErrInvalidFileName is returned when a download name cannot be turned into a
// local file name.
var ErrInvalidFileName = errors.New("invalid file name")

// Saver writes downloaded payloads into a folder. Data is written to a
// temporary file in the same folder and renamed into place on success; the
// temporary file is always removed.
type Saver struct {
	Dir string
}

// LocalName reduces a server-supplied name to a bare file name.
func LocalName(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if err := validation.ValidateFilename(base); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidFileName, err)
	}
	return base, nil
}

// Save copies r to Dir/name and returns the final path and byte count.
func (s *Saver) Save(name string, r io.Reader) (string, int64, error) {
	base, err := LocalName(name)
	if err != nil {
		return "", 0, err
	}
	dest := filepath.Join(s.Dir, base)
	if err := validation.ValidatePathInDirectory(dest, s.Dir); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create download folder: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+base+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", n, fmt.Errorf("failed to copy %s: %w", base, copyErr)
	}
	if closeErr != nil {
		return "", n, fmt.Errorf("failed to write %s: %w", base, closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", n, fmt.Errorf("failed to move %s into place: %w", base, err)
	}
	return dest, n, nil
}
