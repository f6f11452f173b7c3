package index

import (
	"fmt"

	"github.com/blockwisedb/blockwise/internal/bx"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

// treeMeta is page 0 of an index file: everything needed to reopen a Tree.
type treeMeta struct {
	KeyType      record.DataType
	KeyLength    int // only meaningful for TypeString
	Capacity     int // entries per node
	NumNodes     uint32
	NumEntries   uint32
	HeadNodePage uint32
	TailNodePage uint32
}

const metaSize = 1 + 4 + 4 + 4 + 4 + 4 + 4

func encodeMeta(m treeMeta) []byte {
	buf := make([]byte, metaSize)
	off := 0
	buf[off] = byte(m.KeyType)
	off++
	bx.PutU32(buf[off:off+4], uint32(m.KeyLength))
	off += 4
	bx.PutU32(buf[off:off+4], uint32(m.Capacity))
	off += 4
	bx.PutU32(buf[off:off+4], m.NumNodes)
	off += 4
	bx.PutU32(buf[off:off+4], m.NumEntries)
	off += 4
	bx.PutU32(buf[off:off+4], m.HeadNodePage)
	off += 4
	bx.PutU32(buf[off:off+4], m.TailNodePage)
	return buf
}

func decodeMeta(buf []byte) (treeMeta, error) {
	if len(buf) < metaSize {
		return treeMeta{}, fmt.Errorf("index: meta page too short: %w", status.ErrInvalidHeader)
	}
	off := 0
	m := treeMeta{}
	m.KeyType = record.DataType(buf[off])
	off++
	m.KeyLength = int(bx.U32(buf[off : off+4]))
	off += 4
	m.Capacity = int(bx.U32(buf[off : off+4]))
	off += 4
	m.NumNodes = bx.U32(buf[off : off+4])
	off += 4
	m.NumEntries = bx.U32(buf[off : off+4])
	off += 4
	m.HeadNodePage = bx.U32(buf[off : off+4])
	off += 4
	m.TailNodePage = bx.U32(buf[off : off+4])
	return m, nil
}
