package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockwisedb/blockwise/internal/config"
	"github.com/blockwisedb/blockwise/internal/heap"
	"github.com/blockwisedb/blockwise/internal/record"
)

func testConfig(t *testing.T) *config.EngineConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.BufferPool.NumFrames = 4
	return cfg
}

func testSchema(t *testing.T) *record.Schema {
	t.Helper()
	s, err := record.NewSchema([]record.Attribute{
		{Name: "id", Type: record.TypeInt},
		{Name: "name", Type: record.TypeString, TypeLength: 8},
	}, []int{0})
	require.NoError(t, err)
	return s
}

func TestCreateAndOpenTable(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	tbl, err := db.CreateTable("users", testSchema(t))
	require.NoError(t, err)

	_, err = tbl.Insert([]record.Value{record.IntValue(1), record.StringValue("alice")})
	require.NoError(t, err)

	reopened, err := db.OpenTable("users")
	require.NoError(t, err)
	require.Same(t, tbl, reopened)
}

func TestCreateTableTwiceFails(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateTable("users", testSchema(t))
	require.NoError(t, err)

	_, err = db.CreateTable("users", testSchema(t))
	require.ErrorIs(t, err, ErrTableExists)
}

func TestCreateAndOpenIndex(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	tr, err := db.CreateIndex("users_id_idx", record.TypeInt, 0, 16)
	require.NoError(t, err)
	require.NoError(t, tr.InsertKey(record.IntValue(1), heap.RID{Page: 1, Slot: 0}))

	reopened, err := db.OpenIndex("users_id_idx")
	require.NoError(t, err)
	require.Same(t, tr, reopened)
}

func TestCloseThenOperateFails(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.CreateTable("users", testSchema(t))
	require.ErrorIs(t, err, ErrEngineClosed)
}

func TestDatabasePersistsDataDirLayout(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)

	_, err = db.CreateTable("orders", testSchema(t))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.FileExists(t, filepath.Join(cfg.Storage.DataDir, "orders.tbl"))
}

func TestListTablesAndIndexes(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateTable("orders", testSchema(t))
	require.NoError(t, err)
	_, err = db.CreateTable("users", testSchema(t))
	require.NoError(t, err)
	_, err = db.CreateIndex("users_id_idx", record.TypeInt, 0, 16)
	require.NoError(t, err)

	tables, err := db.ListTables()
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "users"}, tables)

	indexes, err := db.ListIndexes()
	require.NoError(t, err)
	require.Equal(t, []string{"users_id_idx"}, indexes)
}
