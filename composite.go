package sirius

import (
	"io"
)

// RecordEncoder writes the fields of a record or union variant in
// declaration order and keeps a running byte count. The first error sticks:
// later calls do nothing and Result reports it.
//
//	func (p Point) MarshalSirius(w io.Writer) (int, error) {
//		e := sirius.NewRecordEncoder(w)
//		sirius.EncodeField(e, sirius.I32, p.X)
//		sirius.EncodeField(e, sirius.I32, p.Y)
//		return e.Result()
//	}
type RecordEncoder struct {
	w   io.Writer
	n   int
	err error
}

func NewRecordEncoder(w io.Writer) *RecordEncoder {
	return &RecordEncoder{w: w}
}

// EncodeField appends v to the record using c.
func EncodeField[T any](e *RecordEncoder, c Codec[T], v T) {
	if e.err != nil {
		return
	}
	n, err := c.Encode(e.w, v)
	e.n += n
	e.err = err
}

// Variant writes the one-byte discriminant of a union. index is the
// zero-based declaration order of the variant; a union can never declare
// more than MaxVariants, so an index outside 0..255 is a programming error.
func (e *RecordEncoder) Variant(index int) {
	if index < 0 || index >= MaxVariants {
		panic("sirius: variant index out of range")
	}
	EncodeField(e, U8, uint8(index))
}

// Fail records err unless an earlier error is already pending.
func (e *RecordEncoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *RecordEncoder) Result() (int, error) {
	return e.n, e.err
}

// RecordDecoder reads the fields of a record or union variant in
// declaration order, threading the offset from one field to the next.
// After the first error every call is a no-op returning zero values.
//
//	func (p *Point) UnmarshalSirius(data []byte) (int, error) {
//		d := sirius.NewRecordDecoder(data)
//		x := sirius.DecodeField(d, sirius.I32)
//		y := sirius.DecodeField(d, sirius.I32)
//		n, err := d.Result()
//		if err != nil {
//			return 0, err
//		}
//		*p = Point{X: x, Y: y}
//		return n, nil
//	}
type RecordDecoder struct {
	data []byte
	off  int
	err  error
}

func NewRecordDecoder(data []byte) *RecordDecoder {
	return &RecordDecoder{data: data}
}

// DecodeField decodes the next field with c.
func DecodeField[T any](d *RecordDecoder, c Codec[T]) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, n, err := c.Decode(d.data[d.off:])
	if err != nil {
		d.err = shift(err, d.off)
		return zero
	}
	d.off += n
	return v
}

// Variant reads a union discriminant.
func (d *RecordDecoder) Variant() uint8 {
	return DecodeField(d, U8)
}

// Fail records err, typically InvalidVariant, unless an error is pending.
// The error keeps its own offset, which is relative to the start of the
// record, so an invalid discriminant points at the discriminant byte.
func (d *RecordDecoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err reports the pending error, if any.
func (d *RecordDecoder) Err() error { return d.err }

// Result returns the bytes consumed, or the first error.
func (d *RecordDecoder) Result() (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	return d.off, nil
}
