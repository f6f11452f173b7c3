package heap

import (
	"fmt"

	"github.com/blockwisedb/blockwise/internal/bx"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

// attrNameLen and attrRecordLen define the fixed on-disk layout of one
// attribute triple in the table header: a 15-byte name, a one-byte
// DataType tag, and a 4-byte type length.
const (
	attrNameLen   = 15
	attrRecordLen = attrNameLen + 1 + 4 // name + DataType byte + typeLength uint32
)

// tableHeader is the in-memory mirror of page 0, the table header page.
type tableHeader struct {
	TotalTuples   uint32
	RecSize       uint32
	FirstFreePage uint32
	FirstFreeSlot uint32
	FirstDataPage uint32
	Schema        *record.Schema
}

// encodeTableHeader packs h into a PageSize-byte page-0 image: the five
// uint32 counters, then attrCount, keyAttrCount, then the attribute
// triples, then the key-attribute indices.
func encodeTableHeader(h tableHeader, pageSize int) ([]byte, error) {
	s := h.Schema
	need := 7*4 + s.NumAttrs()*attrRecordLen + len(s.KeyAttrs)*4
	if need > pageSize {
		return nil, fmt.Errorf("heap: table header for %d attributes exceeds page size: %w", s.NumAttrs(), status.ErrInvalidHeader)
	}

	buf := make([]byte, pageSize)
	off := 0
	putU32 := func(v uint32) {
		bx.PutU32(buf[off:off+4], v)
		off += 4
	}
	putU32(h.TotalTuples)
	putU32(h.RecSize)
	putU32(h.FirstFreePage)
	putU32(h.FirstFreeSlot)
	putU32(h.FirstDataPage)
	putU32(uint32(s.NumAttrs()))
	putU32(uint32(len(s.KeyAttrs)))

	for _, a := range s.Attrs {
		nameBytes := make([]byte, attrNameLen)
		copy(nameBytes, a.Name)
		copy(buf[off:off+attrNameLen], nameBytes)
		off += attrNameLen
		buf[off] = byte(a.Type)
		off++
		bx.PutU32(buf[off:off+4], uint32(a.TypeLength))
		off += 4
	}
	for _, k := range s.KeyAttrs {
		bx.PutU32(buf[off:off+4], uint32(k))
		off += 4
	}
	return buf, nil
}

// decodeTableHeader is the inverse of encodeTableHeader.
func decodeTableHeader(buf []byte) (tableHeader, error) {
	if len(buf) < 7*4 {
		return tableHeader{}, fmt.Errorf("heap: table header too short: %w", status.ErrInvalidHeader)
	}
	off := 0
	getU32 := func() uint32 {
		v := bx.U32(buf[off : off+4])
		off += 4
		return v
	}

	h := tableHeader{}
	h.TotalTuples = getU32()
	h.RecSize = getU32()
	h.FirstFreePage = getU32()
	h.FirstFreeSlot = getU32()
	h.FirstDataPage = getU32()
	attrCount := getU32()
	keyAttrCount := getU32()

	attrs := make([]record.Attribute, attrCount)
	for i := range attrs {
		if off+attrRecordLen > len(buf) {
			return tableHeader{}, fmt.Errorf("heap: truncated attribute table: %w", status.ErrInvalidHeader)
		}
		nameBytes := buf[off : off+attrNameLen]
		n := attrNameLen
		for n > 0 && nameBytes[n-1] == 0 {
			n--
		}
		name := string(nameBytes[:n])
		off += attrNameLen
		typ := record.DataType(buf[off])
		off++
		typeLength := int(bx.U32(buf[off : off+4]))
		off += 4
		attrs[i] = record.Attribute{Name: name, Type: typ, TypeLength: typeLength}
	}

	keyAttrs := make([]int, keyAttrCount)
	for i := range keyAttrs {
		if off+4 > len(buf) {
			return tableHeader{}, fmt.Errorf("heap: truncated key-attribute table: %w", status.ErrInvalidHeader)
		}
		keyAttrs[i] = int(bx.U32(buf[off : off+4]))
		off += 4
	}

	schema, err := record.NewSchema(attrs, keyAttrs)
	if err != nil {
		return tableHeader{}, fmt.Errorf("heap: decoding schema: %w", err)
	}
	h.Schema = schema
	return h, nil
}
