package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockwisedb/blockwise/internal/heap"
	"github.com/blockwisedb/blockwise/internal/record"
)

func newTestTree(t *testing.T, n int) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx.bt")
	require.NoError(t, CreateBtree(path, record.TypeInt, 0, n))
	tr, err := OpenBtree(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestInsertFindKey(t *testing.T) {
	tr := newTestTree(t, 10)

	require.NoError(t, tr.InsertKey(record.IntValue(5), heap.RID{Page: 1, Slot: 0}))
	require.NoError(t, tr.InsertKey(record.IntValue(7), heap.RID{Page: 1, Slot: 1}))

	rid, err := tr.FindKey(record.IntValue(5))
	require.NoError(t, err)
	require.Equal(t, heap.RID{Page: 1, Slot: 0}, rid)

	_, err = tr.FindKey(record.IntValue(99))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFindKeyReturnsLastInserted(t *testing.T) {
	tr := newTestTree(t, 10)

	require.NoError(t, tr.InsertKey(record.IntValue(3), heap.RID{Page: 1, Slot: 0}))
	require.NoError(t, tr.InsertKey(record.IntValue(3), heap.RID{Page: 2, Slot: 0}))

	rid, err := tr.FindKey(record.IntValue(3))
	require.NoError(t, err)
	require.Equal(t, heap.RID{Page: 2, Slot: 0}, rid)
}

func TestDeleteKeyRemovesAllMatches(t *testing.T) {
	tr := newTestTree(t, 10)

	require.NoError(t, tr.InsertKey(record.IntValue(1), heap.RID{Page: 1, Slot: 0}))
	require.NoError(t, tr.InsertKey(record.IntValue(1), heap.RID{Page: 1, Slot: 1}))
	require.NoError(t, tr.InsertKey(record.IntValue(2), heap.RID{Page: 1, Slot: 2}))
	require.EqualValues(t, 3, tr.GetNumEntries())

	require.NoError(t, tr.DeleteKey(record.IntValue(1)))
	require.EqualValues(t, 1, tr.GetNumEntries())

	_, err := tr.FindKey(record.IntValue(1))
	require.ErrorIs(t, err, ErrKeyNotFound)

	rid, err := tr.FindKey(record.IntValue(2))
	require.NoError(t, err)
	require.Equal(t, heap.RID{Page: 1, Slot: 2}, rid)
}

// TestInsertGrowsChainAcrossNodes forces a small per-node capacity so
// inserts span multiple linked node pages.
func TestInsertGrowsChainAcrossNodes(t *testing.T) {
	tr := newTestTree(t, 2)

	for i := int32(0); i < 7; i++ {
		require.NoError(t, tr.InsertKey(record.IntValue(i), heap.RID{Page: uint32(i), Slot: 0}))
	}
	require.EqualValues(t, 7, tr.GetNumEntries())
	require.Greater(t, tr.GetNumNodes(), uint32(1))

	for i := int32(0); i < 7; i++ {
		rid, err := tr.FindKey(record.IntValue(i))
		require.NoError(t, err)
		require.Equal(t, uint32(i), rid.Page)
	}
}

func TestCreateBtreeClampsOversizeCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.bt")
	require.NoError(t, CreateBtree(path, record.TypeInt, 0, 1_000_000))

	tr, err := OpenBtree(path)
	require.NoError(t, err)
	defer tr.Close()

	require.Greater(t, tr.capacity, 0)
	require.LessOrEqual(t, tr.capacity, nodeCapacity(8192, record.Width(record.TypeInt, 0)))
}

func TestCloseThenOperateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.bt")
	require.NoError(t, CreateBtree(path, record.TypeInt, 0, 10))
	tr, err := OpenBtree(path)
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	err = tr.InsertKey(record.IntValue(1), heap.RID{Page: 1, Slot: 0})
	require.ErrorIs(t, err, ErrTreeClosed)
}

func TestReopenPersistsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.bt")
	require.NoError(t, CreateBtree(path, record.TypeInt, 0, 10))

	tr, err := OpenBtree(path)
	require.NoError(t, err)
	require.NoError(t, tr.InsertKey(record.IntValue(42), heap.RID{Page: 3, Slot: 2}))
	require.NoError(t, tr.Close())

	reopened, err := OpenBtree(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.EqualValues(t, 1, reopened.GetNumEntries())
	rid, err := reopened.FindKey(record.IntValue(42))
	require.NoError(t, err)
	require.Equal(t, heap.RID{Page: 3, Slot: 2}, rid)
}

func TestTreeScanReturnsAscendingOrder(t *testing.T) {
	tr := newTestTree(t, 3)

	for _, k := range []int32{5, 1, 4, 2, 3} {
		require.NoError(t, tr.InsertKey(record.IntValue(k), heap.RID{Page: uint32(k), Slot: 0}))
	}

	scan, err := tr.OpenTreeScan()
	require.NoError(t, err)
	defer scan.CloseTreeScan()

	var got []int32
	for {
		key, _, err := scan.NextEntry()
		if err != nil {
			require.ErrorIs(t, err, ErrNoMoreEntries)
			break
		}
		got = append(got, key.I)
	}
	require.Equal(t, []int32{1, 2, 3, 4, 5}, got)
}

func TestTreeScanSkipsDeletedEntries(t *testing.T) {
	tr := newTestTree(t, 10)

	require.NoError(t, tr.InsertKey(record.IntValue(1), heap.RID{Page: 1, Slot: 0}))
	require.NoError(t, tr.InsertKey(record.IntValue(2), heap.RID{Page: 2, Slot: 0}))
	require.NoError(t, tr.DeleteKey(record.IntValue(1)))

	scan, err := tr.OpenTreeScan()
	require.NoError(t, err)
	defer scan.CloseTreeScan()

	key, _, err := scan.NextEntry()
	require.NoError(t, err)
	require.Equal(t, int32(2), key.I)

	_, _, err = scan.NextEntry()
	require.ErrorIs(t, err, ErrNoMoreEntries)
}

func TestStringKeyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.bt")
	require.NoError(t, CreateBtree(path, record.TypeString, 8, 10))
	tr, err := OpenBtree(path)
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.InsertKey(record.StringValue("hello"), heap.RID{Page: 1, Slot: 0}))
	rid, err := tr.FindKey(record.StringValue("hello"))
	require.NoError(t, err)
	require.Equal(t, heap.RID{Page: 1, Slot: 0}, rid)
}
