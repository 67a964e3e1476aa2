// emu_types_info.go - Data types, tagged values and the coercion contract

/*
 ██▀███   █    ██  ███▄    █  ██▓▄▄▄█████▓   ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██ ▒ ██▒ ██  ▓██▒ ██ ▀█   █ ▓██▒▓  ██▒ ▓▒   ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▓██ ░▄█ ▒▓██  ▒██░▓██  ▀█ ██▒▒██▒▒ ▓██░ ▒░   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
▒██▀▀█▄  ▓▓█  ░██░▓██▒  ▐▌██▒░██░░ ▓██▓ ░    ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██▓ ▒██▒▒▒█████▓ ▒██░   ▓██░░██░  ▒██▒ ░    ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░ ▒▓ ░▒▓░░▒▓▒ ▒ ▒ ░ ▒░   ▒ ▒  ░▓    ▒ ░░     ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒  ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
  ░▒ ░ ▒░░░▒░ ░ ░ ░ ░░   ░ ▒░ ▒ ░    ░        ░ ░  ░░ ░░   ░ ▒░  ░   ░   ▒ ░░ ░░   ░ ▒░ ░ ░  ░

(c) 2025 - 2026 prukasz
https://github.com/prukasz/RunitEngine

License: GPLv3 or later
*/

/*
emu_types_info.go - Typed value model of the runIT engine

The engine moves data exclusively through seven closed scalar types. Their
numbering is part of the wire format and must never change. Values travelling
between blocks and through the expression stack are tagged MemVar records: a
type tag plus either an inline 32-bit payload (pass-by-value) or a window into
a context heap (pass-by-reference).

The coercion contract is total: any source type can be stored into any
destination type. Integer destinations round half-away-from-zero and saturate
at the destination range; float destinations take a plain cast; boolean
destinations test against zero. These rules are observable behaviour and are
pinned down by tests.
*/

package main

import (
	"encoding/binary"
	"math"
)

// MemType enumerates the seven scalar data types. The numbering 0..6 is part
// of the wire format.
type MemType uint8

const (
	MEM_U8 MemType = iota
	MEM_U16
	MEM_U32
	MEM_I16
	MEM_I32
	MEM_F
	MEM_B

	MEM_TYPES_COUNT = 7
)

// Element sizes in bytes, indexed by MemType.
var MEM_TYPE_SIZES = [MEM_TYPES_COUNT]uint8{1, 2, 4, 2, 4, 4, 1}

const (
	MAX_CONTEXTS = 8
	MAX_DIMS     = 7
)

// F32_EPSILON matches C's FLT_EPSILON; equality and zero tests in the
// expression evaluator are defined against it.
const F32_EPSILON = float32(1.1920929e-07)

// Valid reports whether the byte names one of the closed types.
func (t MemType) Valid() bool { return t < MEM_TYPES_COUNT }

// Size returns the element size in bytes.
func (t MemType) Size() int { return int(MEM_TYPE_SIZES[t]) }

func (t MemType) String() string {
	switch t {
	case MEM_U8:
		return "MEM_U8"
	case MEM_U16:
		return "MEM_U16"
	case MEM_U32:
		return "MEM_U32"
	case MEM_I16:
		return "MEM_I16"
	case MEM_I32:
		return "MEM_I32"
	case MEM_F:
		return "MEM_F"
	case MEM_B:
		return "MEM_B"
	default:
		return "MEM_INVALID"
	}
}

// memLoadRaw reads one element of type t from the little-endian heap window b
// and returns its payload bits. Signed types are sign-extended into the
// 32-bit payload so MemVar accessors see the true value.
func memLoadRaw(t MemType, b []byte) uint32 {
	switch t {
	case MEM_U8:
		return uint32(b[0])
	case MEM_U16:
		return uint32(binary.LittleEndian.Uint16(b))
	case MEM_U32:
		return binary.LittleEndian.Uint32(b)
	case MEM_I16:
		return uint32(int32(int16(binary.LittleEndian.Uint16(b))))
	case MEM_I32:
		return binary.LittleEndian.Uint32(b)
	case MEM_F:
		return binary.LittleEndian.Uint32(b)
	case MEM_B:
		if b[0] != 0 {
			return 1
		}
		return 0
	}
	return 0
}

// memStoreRaw writes one element of type t into the heap window b.
func memStoreRaw(t MemType, b []byte, raw uint32) {
	switch t {
	case MEM_U8:
		b[0] = uint8(raw)
	case MEM_U16:
		binary.LittleEndian.PutUint16(b, uint16(raw))
	case MEM_U32:
		binary.LittleEndian.PutUint32(b, raw)
	case MEM_I16:
		binary.LittleEndian.PutUint16(b, uint16(raw))
	case MEM_I32:
		binary.LittleEndian.PutUint32(b, raw)
	case MEM_F:
		binary.LittleEndian.PutUint32(b, raw)
	case MEM_B:
		if raw != 0 {
			b[0] = 1
		} else {
			b[0] = 0
		}
	}
}

// MemVar is the tagged intermediate value. ref is non-nil for
// pass-by-reference variants and then aliases live heap storage; raw carries
// the payload bits for pass-by-value variants.
type MemVar struct {
	Type MemType
	ref  []byte
	raw  uint32
}

func VarU8(v uint8) MemVar   { return MemVar{Type: MEM_U8, raw: uint32(v)} }
func VarU16(v uint16) MemVar { return MemVar{Type: MEM_U16, raw: uint32(v)} }
func VarU32(v uint32) MemVar { return MemVar{Type: MEM_U32, raw: v} }
func VarI16(v int16) MemVar  { return MemVar{Type: MEM_I16, raw: uint32(int32(v))} }
func VarI32(v int32) MemVar  { return MemVar{Type: MEM_I32, raw: uint32(v)} }
func VarF32(v float32) MemVar {
	return MemVar{Type: MEM_F, raw: math.Float32bits(v)}
}
func VarBool(v bool) MemVar {
	if v {
		return MemVar{Type: MEM_B, raw: 1}
	}
	return MemVar{Type: MEM_B, raw: 0}
}

// rawBits returns the payload bits, dereferencing heap storage when the value
// travels by reference.
func (v MemVar) rawBits() uint32 {
	if v.ref != nil {
		return memLoadRaw(v.Type, v.ref)
	}
	return v.raw
}

// ByReference reports whether the value aliases heap storage.
func (v MemVar) ByReference() bool { return v.ref != nil }

// AsF32 converts the value to float32, the working type of the expression
// stack and of cross-type coercion.
func (v MemVar) AsF32() float32 {
	raw := v.rawBits()
	switch v.Type {
	case MEM_U8, MEM_U16, MEM_U32:
		return float32(raw)
	case MEM_I16, MEM_I32:
		return float32(int32(raw))
	case MEM_F:
		return math.Float32frombits(raw)
	case MEM_B:
		if raw != 0 {
			return 1
		}
		return 0
	}
	return 0
}

// AsU16 narrows the value to an unsigned 16-bit index, the form dynamic
// array indices take.
func (v MemVar) AsU16() uint16 {
	raw := v.rawBits()
	switch v.Type {
	case MEM_F:
		return uint16(math.Float32frombits(raw))
	default:
		return uint16(raw)
	}
}

// Bool applies the engine truth test.
func (v MemVar) Bool() bool {
	if v.Type == MEM_B {
		return v.rawBits() != 0
	}
	return v.AsF32() != 0
}

// coerceRaw converts an arbitrary MemVar into payload bits for the
// destination type. The 7x7 contract is total: round half-away-from-zero and
// saturate for integer destinations, plain cast for float, non-zero test for
// boolean. NaN collapses to zero on integer destinations.
func coerceRaw(dst MemType, v MemVar) uint32 {
	if v.Type == dst {
		return v.rawBits()
	}
	f := float64(v.AsF32())
	switch dst {
	case MEM_U8:
		return uint32(clampRound(f, 0, math.MaxUint8))
	case MEM_U16:
		return uint32(clampRound(f, 0, math.MaxUint16))
	case MEM_U32:
		return uint32(clampRound(f, 0, math.MaxUint32))
	case MEM_I16:
		return uint32(int32(clampRound(f, math.MinInt16, math.MaxInt16)))
	case MEM_I32:
		return uint32(int32(clampRound(f, math.MinInt32, math.MaxInt32)))
	case MEM_F:
		return math.Float32bits(float32(f))
	case MEM_B:
		if f != 0 {
			return 1
		}
		return 0
	}
	return 0
}

// clampRound rounds half-away-from-zero and saturates into [min, max].
func clampRound(f, min, max float64) int64 {
	if f != f { // NaN
		return 0
	}
	r := math.Round(f)
	if r < min {
		return int64(min)
	}
	if r > max {
		return int64(max)
	}
	return int64(r)
}
