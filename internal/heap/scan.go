package heap

import (
	"errors"
	"fmt"

	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

// ErrNoMoreTuples wraps status.ErrNoMoreTuples: the normal end-of-scan
// control-flow signal, not a failure to be logged.
var ErrNoMoreTuples = fmt.Errorf("heap: scan exhausted: %w", status.ErrNoMoreTuples)

// Predicate filters scan results; a nil Predicate matches every record.
type Predicate func(values []record.Value) bool

// Scan drives a predicate-filtered sequential scan over a table.
type Scan struct {
	table        *Table
	totalEntries uint32
	curPage      uint32
	curSlot      int
	scanIndex    uint32
	pred         Predicate
	closed       bool
}

// StartScan initializes a Scan over every live record in t, optionally
// filtered by pred.
func (t *Table) StartScan(pred Predicate) *Scan {
	return &Scan{
		table:        t,
		totalEntries: t.totalTuples,
		curPage:      t.firstDataPage,
		curSlot:      -1,
		pred:         pred,
	}
}

// Next advances the scan and returns the next matching record. It returns
// ErrNoMoreTuples once scanIndex reaches totalEntries: scanIndex increments
// only on a successful read of a live slot, never on an empty one, so a
// non-matching-but-live record still counts toward the exhaustion bound.
func (s *Scan) Next() (RID, []record.Value, error) {
	if s.closed {
		return RID{}, nil, ErrTableClosed
	}
	for {
		if s.scanIndex >= s.totalEntries {
			return RID{}, nil, ErrNoMoreTuples
		}

		s.curSlot++
		if s.curSlot >= s.table.slotsPerPage {
			s.curSlot = 0
			s.curPage++
		}

		rid := RID{Page: s.curPage, Slot: uint32(s.curSlot)}
		values, err := s.table.Get(rid)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return RID{}, nil, err
		}
		s.scanIndex++

		if s.pred != nil && !s.pred(values) {
			continue
		}
		return rid, values, nil
	}
}

// Close releases scan state.
func (s *Scan) Close() error {
	s.closed = true
	return nil
}
