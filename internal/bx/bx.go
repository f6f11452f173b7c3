// Package bx holds small little-endian byte <-> integer helpers shared by
// the record, heap and index packages, which all pack fixed-width fields
// into raw page bytes.
package bx

import (
	"encoding/binary"
	"math"
)

var le = binary.LittleEndian

func U16(b []byte) uint16 { return le.Uint16(b) }
func U32(b []byte) uint32 { return le.Uint32(b) }
func U64(b []byte) uint64 { return le.Uint64(b) }

func PutU16(b []byte, v uint16) { le.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { le.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { le.PutUint64(b, v) }

func I32(b []byte) int32       { return int32(U32(b)) }
func PutI32(b []byte, v int32) { PutU32(b, uint32(v)) }

func F32(b []byte) float32 {
	return math.Float32frombits(U32(b))
}

func PutF32(b []byte, v float32) {
	PutU32(b, math.Float32bits(v))
}
