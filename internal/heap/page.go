// Package heap implements the slotted-page on-disk format and the record
// manager built on top of it: fixed-stride slots, a small page header
// tracking free-slot/free-page chains, and per-slot occupancy bytes marking
// a slot live, deleted, or never used.
package heap

import "github.com/blockwisedb/blockwise/internal/bx"

const (
	occEmpty   byte = 0
	occLive    byte = 'Y'
	occDeleted byte = 'N'
	terminator byte = '|'
)

// headerSize is the fixed byte size of a pageHeader: one identifier byte
// plus 7 little-endian int32/uint32 fields.
const headerSize = 1 + 7*4

// pageHeader is the fixed layout at the start of every data page (page
// number >= 1). PrevFreePageIndex, PrevDataPageIndex and NextDataPageIndex
// use -1 as a "none" sentinel; NextFreeSlotIndex is stored negated once the
// page's last free slot is taken.
type pageHeader struct {
	Identifier        byte
	TotalTuples       uint32
	FreeSlotCount     uint32
	NextFreeSlotIndex int32
	PrevFreePageIndex int32
	NextFreePageIndex int32
	PrevDataPageIndex int32
	NextDataPageIndex int32
}

func readPageHeader(buf []byte) pageHeader {
	return pageHeader{
		Identifier:        buf[0],
		TotalTuples:       bx.U32(buf[1:5]),
		FreeSlotCount:     bx.U32(buf[5:9]),
		NextFreeSlotIndex: bx.I32(buf[9:13]),
		PrevFreePageIndex: bx.I32(buf[13:17]),
		NextFreePageIndex: bx.I32(buf[17:21]),
		PrevDataPageIndex: bx.I32(buf[21:25]),
		NextDataPageIndex: bx.I32(buf[25:29]),
	}
}

func writePageHeader(buf []byte, h pageHeader) {
	buf[0] = h.Identifier
	bx.PutU32(buf[1:5], h.TotalTuples)
	bx.PutU32(buf[5:9], h.FreeSlotCount)
	bx.PutI32(buf[9:13], h.NextFreeSlotIndex)
	bx.PutI32(buf[13:17], h.PrevFreePageIndex)
	bx.PutI32(buf[17:21], h.NextFreePageIndex)
	bx.PutI32(buf[21:25], h.PrevDataPageIndex)
	bx.PutI32(buf[25:29], h.NextDataPageIndex)
}

// slotsPerPage computes the per-page slot count for a recSize-byte record
// body: (pageSize - headerSize) / (recSize + 2), the +2 covering the
// occupancy and terminator bytes around each record body.
func slotsPerPage(pageSize, recSize int) int {
	return (pageSize - headerSize) / (recSize + 2)
}

func slotOffset(slot, recSize int) int {
	return headerSize + slot*(recSize+2)
}

// slotOccupancy returns the occupancy byte of slot within a data page buf.
func slotOccupancy(buf []byte, slot, recSize int) byte {
	return buf[slotOffset(slot, recSize)]
}

// slotBody returns the recSize-byte record body view of slot within buf.
func slotBody(buf []byte, slot, recSize int) []byte {
	off := slotOffset(slot, recSize) + 1
	return buf[off : off+recSize]
}

// writeSlot stamps a live slot: occupancy 'Y', body, terminator '|'.
func writeSlot(buf []byte, slot, recSize int, body []byte) {
	off := slotOffset(slot, recSize)
	buf[off] = occLive
	copy(buf[off+1:off+1+recSize], body)
	buf[off+1+recSize] = terminator
}
