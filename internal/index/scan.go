package index

import (
	"sort"

	"github.com/blockwisedb/blockwise/internal/heap"
	"github.com/blockwisedb/blockwise/internal/record"
)

type treeEntry struct {
	key record.Value
	rid heap.RID
}

// TreeScan yields every live entry in ascending key order. Ordering is
// reconstructed at open time rather than maintained on insert, matching the
// chain's unsorted-append design (see package doc comment on key.go).
type TreeScan struct {
	entries []treeEntry
	pos     int
	closed  bool
}

// OpenTreeScan walks the whole node chain once, collecting every live
// entry, and returns them sorted by key.
func (t *Tree) OpenTreeScan() (*TreeScan, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}

	var entries []treeEntry
	err := t.visitChain(func(page uint32) error {
		h, err := t.pool.PinPage(page)
		if err != nil {
			return err
		}
		defer t.pool.UnpinPage(page)

		count, _ := readNodeHeader(h.Data)
		for i := 0; i < int(count); i++ {
			live, keyBytes, rid := readEntry(h.Data, i, t.keyWidth)
			if !live {
				continue
			}
			entries = append(entries, treeEntry{key: decodeKey(t.keyType, keyBytes), rid: rid})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return compareKeys(entries[i].key, entries[j].key) < 0
	})
	return &TreeScan{entries: entries}, nil
}

// NextEntry returns the next (key, rid) pair in ascending key order, or
// ErrNoMoreEntries once the scan is exhausted.
func (s *TreeScan) NextEntry() (record.Value, heap.RID, error) {
	if s.pos >= len(s.entries) {
		return record.Value{}, heap.RID{}, ErrNoMoreEntries
	}
	e := s.entries[s.pos]
	s.pos++
	return e.key, e.rid, nil
}

// CloseTreeScan releases the scan's in-memory snapshot. Idempotent.
func (s *TreeScan) CloseTreeScan() error {
	s.closed = true
	s.entries = nil
	return nil
}
