// Package diskspace checks free space on the filesystem a download lands on.
package diskspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// DefaultSafetyMargin leaves 5% headroom above the announced size.
const DefaultSafetyMargin = 1.05

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Dir            string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space in %s: need %s, have %s available",
		e.Dir, humanize.Bytes(uint64(e.RequiredBytes)), humanize.Bytes(uint64(e.AvailableBytes)))
}

// Check returns an *InsufficientSpaceError when the filesystem holding dir
// has less than requiredBytes*margin free. dir need not exist yet; its
// closest existing parent is checked. When free space cannot be determined
// the check passes and the write is left to fail on its own.
func Check(dir string, requiredBytes int64, margin float64) error {
	if requiredBytes <= 0 {
		return nil
	}
	available, ok := Available(dir)
	if !ok {
		return nil
	}
	required := int64(float64(requiredBytes) * margin)
	if available < required {
		return &InsufficientSpaceError{Dir: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// Available reports the bytes free to the current user on the filesystem
// holding dir or its closest existing parent.
func Available(dir string) (int64, bool) {
	existing := existingParent(dir)
	if existing == "" {
		return 0, false
	}
	return availableBytes(existing)
}

func existingParent(dir string) string {
	p, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

// IsInsufficientSpaceError reports whether err wraps an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}
