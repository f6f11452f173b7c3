package pagefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockwisedb/blockwise/internal/status"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "f.page")
}

func TestRoundTrip(t *testing.T) {
	path := tempPath(t)

	require.NoError(t, Create(path))

	h, err := Open(path)
	require.NoError(t, err)
	require.EqualValues(t, 1, h.TotalPages())

	require.NoError(t, h.AppendEmptyBlock())
	require.NoError(t, h.AppendEmptyBlock())
	require.EqualValues(t, 3, h.TotalPages())

	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	require.NoError(t, h.WriteBlock(1, buf))
	require.NoError(t, h.Close())

	h2, err := Open(path)
	require.NoError(t, err)
	defer h2.Close()

	out := make([]byte, PageSize)
	require.NoError(t, h2.ReadBlock(1, out))
	require.Equal(t, buf, out)
	require.EqualValues(t, 3, h2.TotalPages())
}

func TestReadOutOfRange(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, Create(path))
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, PageSize)
	err = h.ReadBlock(5, buf)
	require.Error(t, err)
}

func TestWriteAtEndAppends(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, Create(path))
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	require.EqualValues(t, 1, h.TotalPages())
	require.NoError(t, h.WriteBlock(1, make([]byte, PageSize)))
	require.EqualValues(t, 2, h.TotalPages())
}

func TestEnsureCapacity(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, Create(path))
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.EnsureCapacity(10))
	require.EqualValues(t, 10, h.TotalPages())

	// Shrinking back below current size is a no-op.
	require.NoError(t, h.EnsureCapacity(3))
	require.EqualValues(t, 10, h.TotalPages())
}

func TestCloseThenOperateFails(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, Create(path))
	h, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	buf := make([]byte, PageSize)
	require.ErrorIs(t, h.ReadBlock(0, buf), status.ErrFileHandleNotInit)
}

func TestDestroyMissingFails(t *testing.T) {
	err := Destroy(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestCreateExistingFails(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, Create(path))
	err := Create(path)
	require.Error(t, err)
	_ = os.Remove(path)
}
