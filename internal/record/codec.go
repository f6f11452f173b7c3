package record

import (
	"errors"
	"fmt"

	"github.com/blockwisedb/blockwise/internal/bx"
)

var (
	ErrValueCountMismatch = errors.New("record: value count does not match schema")
	ErrStringTooLong      = errors.New("record: string value exceeds declared typeLength")
)

// EncodeRow packs values into a recSize-byte body, per-attribute, at the
// schema's precomputed offsets. STRING values shorter than typeLength are
// zero-padded; longer ones are rejected rather than silently truncated.
func EncodeRow(s *Schema, values []Value) ([]byte, error) {
	if len(values) != s.NumAttrs() {
		return nil, ErrValueCountMismatch
	}

	out := make([]byte, s.RecSize())
	for i, a := range s.Attrs {
		v := values[i]
		if v.Type != a.Type {
			return nil, fmt.Errorf("record: attribute %q: %w", a.Name, ErrTypeMismatch)
		}
		off := s.Offset(i)
		w := Width(a.Type, a.TypeLength)

		switch a.Type {
		case TypeInt:
			bx.PutI32(out[off:off+w], v.I)
		case TypeFloat:
			bx.PutF32(out[off:off+w], v.F)
		case TypeBool:
			if v.B {
				out[off] = 1
			} else {
				out[off] = 0
			}
		case TypeString:
			bs := []byte(v.S)
			if len(bs) > w {
				return nil, fmt.Errorf("record: attribute %q: %w", a.Name, ErrStringTooLong)
			}
			copy(out[off:off+w], bs) // remainder stays zero-padded
		default:
			return nil, fmt.Errorf("record: attribute %q: %w", a.Name, ErrTypeMismatch)
		}
	}
	return out, nil
}

// DecodeRow unpacks a recSize-byte body into one Value per attribute.
// STRING values are trimmed of trailing zero padding.
func DecodeRow(s *Schema, buf []byte) ([]Value, error) {
	if len(buf) != s.RecSize() {
		return nil, fmt.Errorf("record: buffer length %d != recSize %d: %w", len(buf), s.RecSize(), ErrValueCountMismatch)
	}

	out := make([]Value, s.NumAttrs())
	for i, a := range s.Attrs {
		off := s.Offset(i)
		w := Width(a.Type, a.TypeLength)

		switch a.Type {
		case TypeInt:
			out[i] = IntValue(bx.I32(buf[off : off+w]))
		case TypeFloat:
			out[i] = FloatValue(bx.F32(buf[off : off+w]))
		case TypeBool:
			out[i] = BoolValue(buf[off] != 0)
		case TypeString:
			raw := buf[off : off+w]
			n := w
			for n > 0 && raw[n-1] == 0 {
				n--
			}
			out[i] = StringValue(string(raw[:n]))
		default:
			return nil, fmt.Errorf("record: attribute %q: %w", a.Name, ErrTypeMismatch)
		}
	}
	return out, nil
}

// GetAttr returns the value of the named attribute from an encoded record
// body. It decodes the whole body with DecodeRow and picks out that one
// attribute.
func GetAttr(s *Schema, buf []byte, name string) (Value, error) {
	i := s.IndexOf(name)
	if i < 0 {
		return Value{}, fmt.Errorf("record: %q: %w", name, ErrUnknownAttr)
	}
	vals, err := DecodeRow(s, buf)
	if err != nil {
		return Value{}, err
	}
	return vals[i], nil
}

// SetAttr overwrites the named attribute in-place within an encoded record
// body.
func SetAttr(s *Schema, buf []byte, name string, v Value) error {
	i := s.IndexOf(name)
	if i < 0 {
		return fmt.Errorf("record: %q: %w", name, ErrUnknownAttr)
	}
	a := s.Attrs[i]
	if v.Type != a.Type {
		return fmt.Errorf("record: attribute %q: %w", name, ErrTypeMismatch)
	}
	off := s.Offset(i)
	w := Width(a.Type, a.TypeLength)

	switch a.Type {
	case TypeInt:
		bx.PutI32(buf[off:off+w], v.I)
	case TypeFloat:
		bx.PutF32(buf[off:off+w], v.F)
	case TypeBool:
		if v.B {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
	case TypeString:
		bs := []byte(v.S)
		if len(bs) > w {
			return fmt.Errorf("record: attribute %q: %w", name, ErrStringTooLong)
		}
		for j := range w {
			buf[off+j] = 0
		}
		copy(buf[off:off+w], bs)
	}
	return nil
}
