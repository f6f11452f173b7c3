// Package engine is the top-level facade tying configuration, tables, and
// indexes together into one database handle.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blockwisedb/blockwise/internal/config"
	"github.com/blockwisedb/blockwise/internal/heap"
	"github.com/blockwisedb/blockwise/internal/index"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

var (
	// ErrEngineClosed is returned by any operation after Close.
	ErrEngineClosed = fmt.Errorf("engine: database is closed: %w", status.ErrFileHandleNotInit)

	// ErrTableExists is returned by CreateTable for a name already on disk.
	ErrTableExists = errors.New("engine: table already exists")

	// ErrIndexExists is returned by CreateIndex for a name already on disk.
	ErrIndexExists = errors.New("engine: index already exists")
)

const (
	tableExt = ".tbl"
	indexExt = ".idx"
)

// Database is an open engine instance bound to one data directory. Table
// and index existence is determined solely from the page files on disk
// (each table's page 0 carries its own schema) — there is no separate
// metadata sidecar to keep in sync.
type Database struct {
	mu      sync.Mutex
	dataDir string
	cfg     *config.EngineConfig
	closed  bool

	tables  map[string]*heap.Table
	indexes map[string]*index.Tree
}

// Open opens (creating the directory if needed) a database rooted at
// cfg.Storage.DataDir. Pass config.Default() for engine defaults.
func Open(cfg *config.EngineConfig) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir: %w", err)
	}
	return &Database{
		dataDir: cfg.Storage.DataDir,
		cfg:     cfg,
		tables:  make(map[string]*heap.Table),
		indexes: make(map[string]*index.Tree),
	}, nil
}

func (db *Database) ensureOpen() error {
	if db.closed {
		return ErrEngineClosed
	}
	return nil
}

func (db *Database) tablePath(name string) string { return filepath.Join(db.dataDir, name+tableExt) }
func (db *Database) indexPath(name string) string { return filepath.Join(db.dataDir, name+indexExt) }

// listNamesLocked returns the sorted base names (extension stripped) of
// every file under dataDir ending in ext.
func (db *Database) listNamesLocked(ext string) ([]string, error) {
	entries, err := os.ReadDir(db.dataDir)
	if err != nil {
		return nil, fmt.Errorf("engine: list %s: %w", db.dataDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ext); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateTable creates a new table named name with the given schema.
func (db *Database) CreateTable(name string, schema *record.Schema) (*heap.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(db.tablePath(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	if err := heap.CreateTable(db.tablePath(name), schema); err != nil {
		return nil, err
	}

	tbl, err := heap.OpenTableWithCapacity(db.tablePath(name), db.cfg.BufferPool.NumFrames, db.cfg.ReplacerStrategy())
	if err != nil {
		return nil, err
	}
	db.tables[name] = tbl
	slog.Debug("engine: created table", "name", name)
	return tbl, nil
}

// OpenTable opens an already-created table, reusing the already-open handle
// if this Database already has it open.
func (db *Database) OpenTable(name string) (*heap.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	if tbl, ok := db.tables[name]; ok {
		return tbl, nil
	}

	tbl, err := heap.OpenTableWithCapacity(db.tablePath(name), db.cfg.BufferPool.NumFrames, db.cfg.ReplacerStrategy())
	if err != nil {
		return nil, err
	}
	db.tables[name] = tbl
	return tbl, nil
}

// ListTables returns the sorted names of every table in the data directory,
// open or not.
func (db *Database) ListTables() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	return db.listNamesLocked(tableExt)
}

// CreateIndex creates a new index named name over keyType-typed keys.
// n is the per-node entry capacity (0 clamps to the page-fitting maximum).
func (db *Database) CreateIndex(name string, keyType record.DataType, keyLength, n int) (*index.Tree, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(db.indexPath(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexExists, name)
	}

	if err := index.CreateBtree(db.indexPath(name), keyType, keyLength, n); err != nil {
		return nil, err
	}

	tr, err := index.OpenBtreeWithCapacity(db.indexPath(name), db.cfg.BufferPool.NumFrames, db.cfg.ReplacerStrategy())
	if err != nil {
		return nil, err
	}
	db.indexes[name] = tr
	slog.Debug("engine: created index", "name", name, "keyType", keyType.String())
	return tr, nil
}

// OpenIndex opens an already-created index, reusing an already-open handle
// if this Database already has it open.
func (db *Database) OpenIndex(name string) (*index.Tree, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	if tr, ok := db.indexes[name]; ok {
		return tr, nil
	}

	tr, err := index.OpenBtreeWithCapacity(db.indexPath(name), db.cfg.BufferPool.NumFrames, db.cfg.ReplacerStrategy())
	if err != nil {
		return nil, err
	}
	db.indexes[name] = tr
	return tr, nil
}

// ListIndexes returns the sorted names of every index in the data
// directory, open or not.
func (db *Database) ListIndexes() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	return db.listNamesLocked(indexExt)
}

// Close closes every table and index this Database handle has opened.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	for name, tbl := range db.tables {
		if err := tbl.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("engine: close table %s: %w", name, err)
		}
	}
	for name, tr := range db.indexes {
		if err := tr.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("engine: close index %s: %w", name, err)
		}
	}
	db.tables = nil
	db.indexes = nil
	return firstErr
}
