package index

import (
	"github.com/blockwisedb/blockwise/internal/bx"
	"github.com/blockwisedb/blockwise/internal/heap"
)

const (
	entryLive    byte = 'Y'
	entryDeleted byte = 'N'
)

// noNext is the "no further node" sentinel for a node's next-page link.
const noNext int32 = -1

// nodeHeaderSize: entryCount (uint32) + nextNodePage (int32).
const nodeHeaderSize = 4 + 4

// ridWidth is the fixed on-disk size of a RID within an entry: a 4-byte
// page number and a 2-byte slot. Heap tables stay well under 65536 slots
// per page at PageSize 8192, so truncating heap.RID.Slot to uint16 here is
// lossless.
const ridWidth = 4 + 2

// entryWidth returns the on-disk size of one node entry for a given key
// width: 1 occupancy byte + key bytes + RID.
func entryWidth(keyWidth int) int { return 1 + keyWidth + ridWidth }

// nodeCapacity returns how many entries of entryWidth bytes fit in one
// node page.
func nodeCapacity(pageSize, keyW int) int {
	return (pageSize - nodeHeaderSize) / entryWidth(keyW)
}

func readNodeHeader(buf []byte) (count uint32, next int32) {
	return bx.U32(buf[0:4]), bx.I32(buf[4:8])
}

func writeNodeHeader(buf []byte, count uint32, next int32) {
	bx.PutU32(buf[0:4], count)
	bx.PutI32(buf[4:8], next)
}

func entryOffset(i, keyW int) int {
	return nodeHeaderSize + i*entryWidth(keyW)
}

func readEntry(buf []byte, i, keyW int) (live bool, keyBytes []byte, rid heap.RID) {
	off := entryOffset(i, keyW)
	live = buf[off] == entryLive
	keyBytes = buf[off+1 : off+1+keyW]
	ridOff := off + 1 + keyW
	rid = heap.RID{
		Page: bx.U32(buf[ridOff : ridOff+4]),
		Slot: uint32(bx.U16(buf[ridOff+4 : ridOff+6])),
	}
	return
}

func writeEntry(buf []byte, i, keyW int, keyBytes []byte, rid heap.RID) {
	off := entryOffset(i, keyW)
	buf[off] = entryLive
	copy(buf[off+1:off+1+keyW], keyBytes)
	ridOff := off + 1 + keyW
	bx.PutU32(buf[ridOff:ridOff+4], rid.Page)
	bx.PutU16(buf[ridOff+4:ridOff+6], uint16(rid.Slot))
}

func markEntryDeleted(buf []byte, i, keyW int) {
	buf[entryOffset(i, keyW)] = entryDeleted
}
