package record

import (
	"errors"
	"fmt"
)

// maxAttrNameLen matches the 15-byte fixed name field in the table header
// layout.
const maxAttrNameLen = 15

var (
	ErrAttrNameTooLong = errors.New("record: attribute name exceeds 15 bytes")
	ErrNoAttributes    = errors.New("record: schema has no attributes")
	ErrUnknownAttr     = errors.New("record: unknown attribute name")
)

// Attribute is one column of a Schema.
type Attribute struct {
	Name       string
	Type       DataType
	TypeLength int // on-disk width for TypeString; ignored for other types
}

// Schema is the typed description of a table's fixed-layout record. Offsets
// are computed once at NewSchema time and reused by the codec on every
// encode/decode.
type Schema struct {
	Attrs    []Attribute
	KeyAttrs []int // indices into Attrs, the key attribute(s)
	offsets  []int // byte offset of Attrs[i] within the record body
	recSize  int
}

// NewSchema validates attrs and keyAttrs and precomputes byte offsets and
// the total record size, rounded up to a multiple of 4.
func NewSchema(attrs []Attribute, keyAttrs []int) (*Schema, error) {
	if len(attrs) == 0 {
		return nil, ErrNoAttributes
	}
	offsets := make([]int, len(attrs))
	off := 0
	for i, a := range attrs {
		if len(a.Name) > maxAttrNameLen {
			return nil, fmt.Errorf("record: attribute %q: %w", a.Name, ErrAttrNameTooLong)
		}
		offsets[i] = off
		off += Width(a.Type, a.TypeLength)
	}
	recSize := ((off + 3) / 4) * 4

	for _, k := range keyAttrs {
		if k < 0 || k >= len(attrs) {
			return nil, fmt.Errorf("record: key attribute index %d: %w", k, ErrUnknownAttr)
		}
	}

	return &Schema{
		Attrs:    attrs,
		KeyAttrs: keyAttrs,
		offsets:  offsets,
		recSize:  recSize,
	}, nil
}

// RecSize is the fixed width, in bytes, of one encoded record body. Always
// a multiple of 4.
func (s *Schema) RecSize() int { return s.recSize }

// NumAttrs is the attribute count.
func (s *Schema) NumAttrs() int { return len(s.Attrs) }

// Offset returns the byte offset of attribute i within an encoded record
// body.
func (s *Schema) Offset(i int) int { return s.offsets[i] }

// IndexOf returns the attribute index for name, or -1 if absent.
func (s *Schema) IndexOf(name string) int {
	for i, a := range s.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}
