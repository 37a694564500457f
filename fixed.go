package sirius

import (
	"io"
	"math"

	intr "github.com/dadrian/sirius/internal"
)

// Fixed-width codecs. Each writes exactly sizeof(T) big-endian bytes with no
// prefix and reads back the same number.
var (
	U8   Codec[uint8]   = fixed[uint8]{"u8", 1, func(b []byte, v uint8) { b[0] = v }, func(b []byte) uint8 { return b[0] }}
	U16  Codec[uint16]  = fixed[uint16]{"u16", 2, intr.PutU16, intr.U16}
	U32  Codec[uint32]  = fixed[uint32]{"u32", 4, intr.PutU32, intr.U32}
	U64  Codec[uint64]  = fixed[uint64]{"u64", 8, intr.PutU64, intr.U64}
	U128 Codec[Uint128] = fixed[Uint128]{"u128", 16, putU128, getU128}

	I8   Codec[int8]   = fixed[int8]{"i8", 1, func(b []byte, v int8) { b[0] = byte(v) }, func(b []byte) int8 { return int8(b[0]) }}
	I16  Codec[int16]  = fixed[int16]{"i16", 2, func(b []byte, v int16) { intr.PutU16(b, uint16(v)) }, func(b []byte) int16 { return int16(intr.U16(b)) }}
	I32  Codec[int32]  = fixed[int32]{"i32", 4, func(b []byte, v int32) { intr.PutU32(b, uint32(v)) }, func(b []byte) int32 { return int32(intr.U32(b)) }}
	I64  Codec[int64]  = fixed[int64]{"i64", 8, func(b []byte, v int64) { intr.PutU64(b, uint64(v)) }, func(b []byte) int64 { return int64(intr.U64(b)) }}
	I128 Codec[Int128] = fixed[Int128]{"i128", 16, putI128, getI128}

	F32 Codec[float32] = fixed[float32]{"f32", 4, func(b []byte, v float32) { intr.PutU32(b, math.Float32bits(v)) }, func(b []byte) float32 { return math.Float32frombits(intr.U32(b)) }}
	F64 Codec[float64] = fixed[float64]{"f64", 8, func(b []byte, v float64) { intr.PutU64(b, math.Float64bits(v)) }, func(b []byte) float64 { return math.Float64frombits(intr.U64(b)) }}

	// Bool is one byte: 0x00 false, 0x01 true. Other values fail to decode.
	Bool Codec[bool] = boolCodec{}
)

type fixed[T any] struct {
	name string
	size int
	put  func([]byte, T)
	get  func([]byte) T
}

func (c fixed[T]) Encode(w io.Writer, v T) (int, error) {
	var buf [16]byte
	c.put(buf[:c.size], v)
	return write(w, c.name, buf[:c.size])
}

func (c fixed[T]) Decode(data []byte) (T, int, error) {
	if len(data) < c.size {
		var zero T
		return zero, 0, notEnoughData(c.name, c.size, len(data))
	}
	return c.get(data[:c.size]), c.size, nil
}

func putU128(b []byte, v Uint128) { intr.PutU128(b, v.Hi, v.Lo) }
func putI128(b []byte, v Int128)  { intr.PutU128(b, uint64(v.Hi), v.Lo) }

func getU128(b []byte) Uint128 {
	hi, lo := intr.U128(b)
	return Uint128{Hi: hi, Lo: lo}
}

func getI128(b []byte) Int128 {
	hi, lo := intr.U128(b)
	return Int128{Hi: int64(hi), Lo: lo}
}

type boolCodec struct{}

func (boolCodec) Encode(w io.Writer, v bool) (int, error) {
	b := [1]byte{0x00}
	if v {
		b[0] = 0x01
	}
	return write(w, "bool", b[:])
}

func (boolCodec) Decode(data []byte) (bool, int, error) {
	if len(data) < 1 {
		return false, 0, notEnoughData("bool", 1, 0)
	}
	switch data[0] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	default:
		return false, 0, ParsingError("bool", "invalid bool byte 0x%02x", data[0])
	}
}
