package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockwisedb/blockwise/internal/record"
)

func newTestSchema(t *testing.T) *record.Schema {
	t.Helper()
	s, err := record.NewSchema([]record.Attribute{
		{Name: "a", Type: record.TypeInt},
		{Name: "b", Type: record.TypeString, TypeLength: 5},
	}, []int{0})
	require.NoError(t, err)
	return s
}

func newTestTable(t *testing.T) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.tbl")
	require.NoError(t, CreateTable(path, newTestSchema(t)))
	tbl, err := OpenTable(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func TestRecordInsertDeleteGet(t *testing.T) {
	tbl := newTestTable(t)

	var rids []RID
	for i := int32(1); i <= 3; i++ {
		rid, err := tbl.Insert([]record.Value{record.IntValue(i), record.StringValue("x")})
		require.NoError(t, err)
		rids = append(rids, rid)
	}
	require.EqualValues(t, 3, tbl.TotalTuples())

	first, err := tbl.Get(RID{Page: firstDataPageNum, Slot: 0})
	require.NoError(t, err)
	require.Equal(t, int32(1), first[0].I)

	require.NoError(t, tbl.Delete(RID{Page: firstDataPageNum, Slot: 1}))

	_, err = tbl.Get(RID{Page: firstDataPageNum, Slot: 1})
	require.ErrorIs(t, err, ErrRecordNotFound)
	require.EqualValues(t, 2, tbl.TotalTuples())

	_ = rids
}

func TestPredicateScan(t *testing.T) {
	tbl := newTestTable(t)

	for i := int32(1); i <= 5; i++ {
		_, err := tbl.Insert([]record.Value{record.IntValue(i), record.StringValue("row")})
		require.NoError(t, err)
	}

	scan := tbl.StartScan(func(values []record.Value) bool {
		return values[0].I > 2
	})
	defer scan.Close()

	var got []int32
	for {
		_, values, err := scan.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrNoMoreTuples)
			break
		}
		got = append(got, values[0].I)
	}
	require.Equal(t, []int32{3, 4, 5}, got)
}

func TestInsertSpansMultiplePages(t *testing.T) {
	tbl := newTestTable(t)
	n := tbl.slotsPerPage*2 + 3
	for i := 0; i < n; i++ {
		_, err := tbl.Insert([]record.Value{record.IntValue(int32(i)), record.StringValue("x")})
		require.NoError(t, err)
	}
	require.EqualValues(t, n, tbl.TotalTuples())
	require.Greater(t, tbl.firstFreePage, uint32(firstDataPageNum))
}

func TestUpdateRecord(t *testing.T) {
	tbl := newTestTable(t)
	rid, err := tbl.Insert([]record.Value{record.IntValue(1), record.StringValue("aa")})
	require.NoError(t, err)

	require.NoError(t, tbl.Update(rid, []record.Value{record.IntValue(99), record.StringValue("zz")}))
	vals, err := tbl.Get(rid)
	require.NoError(t, err)
	require.Equal(t, int32(99), vals[0].I)
	require.Equal(t, "zz", vals[1].S)
}

func TestCloseThenOperateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	require.NoError(t, CreateTable(path, newTestSchema(t)))
	tbl, err := OpenTable(path)
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	_, err = tbl.Insert([]record.Value{record.IntValue(1), record.StringValue("x")})
	require.ErrorIs(t, err, ErrTableClosed)
}

func TestReopenPersistsHeaderAndTuples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	require.NoError(t, CreateTable(path, newTestSchema(t)))

	tbl, err := OpenTable(path)
	require.NoError(t, err)
	_, err = tbl.Insert([]record.Value{record.IntValue(7), record.StringValue("hi")})
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	reopened, err := OpenTable(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.EqualValues(t, 1, reopened.TotalTuples())
	vals, err := reopened.Get(RID{Page: firstDataPageNum, Slot: 0})
	require.NoError(t, err)
	require.Equal(t, int32(7), vals[0].I)
}
