// Package index implements a keyed Value -> RID lookup structure with an
// ordered scan: entries append unsorted to a chain of fixed-size node
// pages, and ascending order is reconstructed by sorting the whole chain
// when a scan opens rather than maintained incrementally on insert.
package index

import (
	"fmt"

	"github.com/blockwisedb/blockwise/internal/bx"
	"github.com/blockwisedb/blockwise/internal/record"
	"github.com/blockwisedb/blockwise/internal/status"
)

// encodeKey packs v into a width-byte little-endian fixed-width
// representation, mirroring record.EncodeRow's per-type packing so the two
// codecs stay consistent.
func encodeKey(v record.Value, width int) ([]byte, error) {
	buf := make([]byte, width)
	switch v.Type {
	case record.TypeInt:
		bx.PutI32(buf, v.I)
	case record.TypeFloat:
		bx.PutF32(buf, v.F)
	case record.TypeBool:
		if v.B {
			buf[0] = 1
		}
	case record.TypeString:
		bs := []byte(v.S)
		if len(bs) > width {
			return nil, fmt.Errorf("index: key string exceeds declared width: %w", status.ErrGeneralError)
		}
		copy(buf, bs)
	default:
		return nil, fmt.Errorf("index: unsupported key type: %w", status.ErrGeneralError)
	}
	return buf, nil
}

func decodeKey(dt record.DataType, buf []byte) record.Value {
	switch dt {
	case record.TypeInt:
		return record.IntValue(bx.I32(buf))
	case record.TypeFloat:
		return record.FloatValue(bx.F32(buf))
	case record.TypeBool:
		return record.BoolValue(buf[0] != 0)
	case record.TypeString:
		n := len(buf)
		for n > 0 && buf[n-1] == 0 {
			n--
		}
		return record.StringValue(string(buf[:n]))
	default:
		return record.Value{}
	}
}

// compareKeys orders two values of the same DataType. Used only to produce
// the ascending-key ordering for a tree scan: nodes themselves stay
// unsorted on insert.
func compareKeys(a, b record.Value) int {
	switch a.Type {
	case record.TypeInt:
		switch {
		case a.I < b.I:
			return -1
		case a.I > b.I:
			return 1
		default:
			return 0
		}
	case record.TypeFloat:
		switch {
		case a.F < b.F:
			return -1
		case a.F > b.F:
			return 1
		default:
			return 0
		}
	case record.TypeBool:
		if a.B == b.B {
			return 0
		}
		if !a.B {
			return -1
		}
		return 1
	case record.TypeString:
		switch {
		case a.S < b.S:
			return -1
		case a.S > b.S:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
