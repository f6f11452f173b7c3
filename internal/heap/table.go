package heap

import (
	"fmt"
	"log/slog"

	"github.com/blockwisedb/blockwise/internal/bufferpool"
	"github.com/blockwisedb/blockwise/internal/pagefile"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

// headerPageNum is the fixed page number of the table header.
const headerPageNum = 0

// firstDataPageNum is the fixed first data page number.
const firstDataPageNum = 1

// createBufferFrames is the buffer pool size CreateTable uses to write the
// header page.
const createBufferFrames = 3

// DefaultOpenBufferFrames is the buffer pool size OpenTable uses when the
// caller doesn't specify one via OpenTableWithCapacity.
const DefaultOpenBufferFrames = 16

var (
	// ErrTableClosed is returned by any operation on a Table after Close.
	ErrTableClosed = fmt.Errorf("heap: table is closed: %w", status.ErrFileHandleNotInit)

	// ErrSlotOutOfRange wraps status.ErrGeneralError: the caller passed a
	// slot index outside [0, slotsPerPage).
	ErrSlotOutOfRange = fmt.Errorf("heap: slot out of range: %w", status.ErrGeneralError)

	// ErrRecordNotFound wraps status.ErrRecordNotFound: the slot exists but
	// holds no live record.
	ErrRecordNotFound = fmt.Errorf("heap: record not found: %w", status.ErrRecordNotFound)
)

// Table is a live handle on one table, holding its header state in memory
// between OpenTable and Close.
type Table struct {
	path string
	file *pagefile.File
	pool *bufferpool.Pool

	schema        *record.Schema
	recSize       int
	slotsPerPage  int
	totalTuples   uint32
	firstFreePage uint32
	firstFreeSlot uint32
	firstDataPage uint32

	closed bool
}

// CreateTable creates the page file at path and writes its table header
// page for schema.
func CreateTable(path string, schema *record.Schema) error {
	if err := pagefile.Create(path); err != nil {
		return err
	}
	f, err := pagefile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pool, err := bufferpool.Init(f, createBufferFrames, bufferpool.FIFO)
	if err != nil {
		return err
	}

	h, err := pool.PinPage(headerPageNum)
	if err != nil {
		return err
	}
	hdr := tableHeader{
		RecSize:       uint32(schema.RecSize()),
		FirstFreePage: firstDataPageNum,
		FirstFreeSlot: 0,
		FirstDataPage: firstDataPageNum,
		Schema:        schema,
	}
	buf, err := encodeTableHeader(hdr, pagefile.PageSize)
	if err != nil {
		_ = pool.UnpinPage(headerPageNum)
		return err
	}
	copy(h.Data, buf)
	if err := pool.MarkDirty(headerPageNum); err != nil {
		return err
	}
	if err := pool.UnpinPage(headerPageNum); err != nil {
		return err
	}
	slog.Debug("heap: created table", "path", path, "recSize", schema.RecSize())
	return pool.Shutdown()
}

// OpenTable opens an existing table with the default buffer pool size.
func OpenTable(path string) (*Table, error) {
	return OpenTableWithCapacity(path, DefaultOpenBufferFrames, bufferpool.FIFO)
}

// OpenTableWithCapacity opens an existing table with an explicit buffer
// pool size and replacement strategy.
func OpenTableWithCapacity(path string, bpFrames int, strategy bufferpool.Strategy) (*Table, error) {
	f, err := pagefile.Open(path)
	if err != nil {
		return nil, err
	}
	pool, err := bufferpool.Init(f, bpFrames, strategy)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	h, err := pool.PinPage(headerPageNum)
	if err != nil {
		_ = pool.Shutdown()
		_ = f.Close()
		return nil, err
	}
	hdr, err := decodeTableHeader(h.Data)
	if err != nil {
		_ = pool.UnpinPage(headerPageNum)
		_ = pool.Shutdown()
		_ = f.Close()
		return nil, err
	}
	if err := pool.UnpinPage(headerPageNum); err != nil {
		return nil, err
	}

	t := &Table{
		path:          path,
		file:          f,
		pool:          pool,
		schema:        hdr.Schema,
		recSize:       int(hdr.RecSize),
		slotsPerPage:  slotsPerPage(pagefile.PageSize, int(hdr.RecSize)),
		totalTuples:   hdr.TotalTuples,
		firstFreePage: hdr.FirstFreePage,
		firstFreeSlot: hdr.FirstFreeSlot,
		firstDataPage: hdr.FirstDataPage,
	}
	slog.Debug("heap: opened table", "path", path, "totalTuples", t.totalTuples)
	return t, nil
}

// DeleteTable destroys the underlying page file. The table must not be open.
func DeleteTable(path string) error {
	return pagefile.Destroy(path)
}

// Schema returns the table's schema.
func (t *Table) Schema() *record.Schema { return t.schema }

// TotalTuples returns the cached live-tuple count.
func (t *Table) TotalTuples() uint32 { return t.totalTuples }

// Close writes back the table header and shuts down the buffer pool.
// Idempotent.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	h, err := t.pool.PinPage(headerPageNum)
	if err != nil {
		return err
	}
	buf, err := encodeTableHeader(tableHeader{
		TotalTuples:   t.totalTuples,
		RecSize:       uint32(t.recSize),
		FirstFreePage: t.firstFreePage,
		FirstFreeSlot: t.firstFreeSlot,
		FirstDataPage: t.firstDataPage,
		Schema:        t.schema,
	}, pagefile.PageSize)
	if err != nil {
		_ = t.pool.UnpinPage(headerPageNum)
		return err
	}
	copy(h.Data, buf)
	if err := t.pool.MarkDirty(headerPageNum); err != nil {
		return err
	}
	if err := t.pool.UnpinPage(headerPageNum); err != nil {
		return err
	}
	if err := t.pool.Shutdown(); err != nil {
		return err
	}
	return t.file.Close()
}

func (t *Table) ensureOpen() error {
	if t.closed {
		return ErrTableClosed
	}
	return nil
}

// Insert appends a new record to the table's first free slot, extending
// the free-page chain if that slot has never held a page before.
func (t *Table) Insert(values []record.Value) (RID, error) {
	if err := t.ensureOpen(); err != nil {
		return RID{}, err
	}

	body, err := record.EncodeRow(t.schema, values)
	if err != nil {
		return RID{}, err
	}

	page := t.firstFreePage
	slot := t.firstFreeSlot

	h, err := t.pool.PinPage(page)
	if err != nil {
		return RID{}, err
	}

	hdr := readPageHeader(h.Data)
	if hdr.Identifier != occLive {
		hdr = pageHeader{
			Identifier:        occLive,
			TotalTuples:       0,
			FreeSlotCount:     uint32(t.slotsPerPage - 1),
			NextFreeSlotIndex: 1,
			PrevFreePageIndex: -1,
			NextFreePageIndex: int32(page) + 1,
			PrevDataPageIndex: prevDataPage(page, t.firstDataPage),
			NextDataPageIndex: -1,
		}
	} else {
		hdr.TotalTuples++
		if hdr.FreeSlotCount > 0 {
			hdr.FreeSlotCount--
		}
		if hdr.FreeSlotCount > 0 {
			hdr.NextFreeSlotIndex++
		} else {
			hdr.NextFreeSlotIndex = -hdr.NextFreeSlotIndex
		}
	}
	writePageHeader(h.Data, hdr)
	writeSlot(h.Data, int(slot), t.recSize, body)

	rid := RID{Page: page, Slot: slot}

	if int(slot)+1 >= t.slotsPerPage {
		t.firstFreePage = page + 1
		t.firstFreeSlot = 0
	} else {
		t.firstFreeSlot = slot + 1
	}
	t.totalTuples++

	if err := t.pool.MarkDirty(page); err != nil {
		return RID{}, err
	}
	if err := t.pool.UnpinPage(page); err != nil {
		return RID{}, err
	}
	return rid, nil
}

func prevDataPage(page, firstDataPage uint32) int32 {
	if page == firstDataPage {
		return -1
	}
	return int32(page) - 1
}

// Get reads the live record at rid.
func (t *Table) Get(rid RID) ([]record.Value, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}
	if int(rid.Slot) >= t.slotsPerPage {
		return nil, ErrSlotOutOfRange
	}

	h, err := t.pool.PinPage(rid.Page)
	if err != nil {
		return nil, err
	}
	defer t.pool.UnpinPage(rid.Page)

	if slotOccupancy(h.Data, int(rid.Slot), t.recSize) != occLive {
		return nil, ErrRecordNotFound
	}
	body := make([]byte, t.recSize)
	copy(body, slotBody(h.Data, int(rid.Slot), t.recSize))
	return record.DecodeRow(t.schema, body)
}

// Update overwrites a live record's body in place.
func (t *Table) Update(rid RID, values []record.Value) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if int(rid.Slot) >= t.slotsPerPage {
		return ErrSlotOutOfRange
	}

	body, err := record.EncodeRow(t.schema, values)
	if err != nil {
		return err
	}

	h, err := t.pool.PinPage(rid.Page)
	if err != nil {
		return err
	}
	defer t.pool.UnpinPage(rid.Page)

	if slotOccupancy(h.Data, int(rid.Slot), t.recSize) != occLive {
		return ErrRecordNotFound
	}
	copy(slotBody(h.Data, int(rid.Slot), t.recSize), body)
	return t.pool.MarkDirty(rid.Page)
}

// Delete marks a live record's slot as deleted. The slot is never
// reclaimed for future inserts.
func (t *Table) Delete(rid RID) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if int(rid.Slot) >= t.slotsPerPage {
		return ErrSlotOutOfRange
	}

	h, err := t.pool.PinPage(rid.Page)
	if err != nil {
		return err
	}
	defer t.pool.UnpinPage(rid.Page)

	off := slotOffset(int(rid.Slot), t.recSize)
	if h.Data[off] != occLive {
		return ErrRecordNotFound
	}
	h.Data[off] = occDeleted

	hdr := readPageHeader(h.Data)
	if hdr.TotalTuples > 0 {
		hdr.TotalTuples--
	}
	hdr.FreeSlotCount++
	writePageHeader(h.Data, hdr)

	if t.totalTuples > 0 {
		t.totalTuples--
	}
	return t.pool.MarkDirty(rid.Page)
}
