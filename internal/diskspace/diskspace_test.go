package diskspace

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("small file", func(t *testing.T) {
		assert.NoError(t, Check(dir, 1024, DefaultSafetyMargin))
	})

	t.Run("unknown size", func(t *testing.T) {
		assert.NoError(t, Check(dir, -1, DefaultSafetyMargin))
	})

	t.Run("more than the disk", func(t *testing.T) {
		available, ok := Available(dir)
		if !ok {
			t.Skip("free space not available on this filesystem")
		}
		err := Check(dir, available+1, 1.0)
		require.Error(t, err)
		assert.True(t, IsInsufficientSpaceError(err))
	})

	t.Run("missing folder uses parent", func(t *testing.T) {
		assert.NoError(t, Check(filepath.Join(dir, "not", "yet"), 1024, DefaultSafetyMargin))
	})
}

func TestAvailable(t *testing.T) {
	available, ok := Available(t.TempDir())
	if !ok {
		t.Skip("free space not available on this filesystem")
	}
	assert.Greater(t, available, int64(0))
}

func TestIsInsufficientSpaceError(t *testing.T) {
	err := &InsufficientSpaceError{Dir: "/tmp", RequiredBytes: 1000, AvailableBytes: 500}
	assert.True(t, IsInsufficientSpaceError(err))
	assert.True(t, IsInsufficientSpaceError(fmt.Errorf("save: %w", err)))
	assert.False(t, IsInsufficientSpaceError(fmt.Errorf("other")))
	assert.False(t, IsInsufficientSpaceError(nil))
}

func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{Dir: "/tmp", RequiredBytes: 100_000_000, AvailableBytes: 50_000_000}
	assert.Equal(t, "insufficient disk space in /tmp: need 100 MB, have 50 MB available", err.Error())
}
