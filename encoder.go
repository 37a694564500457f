package sirius

import (
	"io"
	"reflect"

	intr "github.com/dadrian/sirius/internal"
)

// Encoder writes sirius-encoded values to an io.Writer, one after another.
// Values carry no type information; the reader must decode them in the same
// order with the same types.
type Encoder struct {
	w io.Writer
	n int64
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes v and returns the bytes written for it.
func (e *Encoder) Encode(v any) (int, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, &UnsupportedTypeError{Type: reflect.TypeOf((*any)(nil)).Elem(), Reason: "nil value"}
	}
	p, err := planFor(rv.Type())
	if err != nil {
		return 0, err
	}
	n, err := p.encodeValue(e.w, rv)
	e.n += int64(n)
	return n, err
}

// Written reports the total bytes written by this Encoder.
func (e *Encoder) Written() int64 { return e.n }

// Convenience writers for the fixed-width and length-prefixed primitives.
func (e *Encoder) WriteBool(v bool) error       { return e.track(Bool.Encode(e.w, v)) }
func (e *Encoder) WriteU8(v uint8) error        { return e.track(U8.Encode(e.w, v)) }
func (e *Encoder) WriteU16(v uint16) error      { return e.track(U16.Encode(e.w, v)) }
func (e *Encoder) WriteU32(v uint32) error      { return e.track(U32.Encode(e.w, v)) }
func (e *Encoder) WriteU64(v uint64) error      { return e.track(U64.Encode(e.w, v)) }
func (e *Encoder) WriteU128(v Uint128) error    { return e.track(U128.Encode(e.w, v)) }
func (e *Encoder) WriteI8(v int8) error         { return e.track(I8.Encode(e.w, v)) }
func (e *Encoder) WriteI16(v int16) error       { return e.track(I16.Encode(e.w, v)) }
func (e *Encoder) WriteI32(v int32) error       { return e.track(I32.Encode(e.w, v)) }
func (e *Encoder) WriteI64(v int64) error       { return e.track(I64.Encode(e.w, v)) }
func (e *Encoder) WriteI128(v Int128) error     { return e.track(I128.Encode(e.w, v)) }
func (e *Encoder) WriteF32(v float32) error     { return e.track(F32.Encode(e.w, v)) }
func (e *Encoder) WriteF64(v float64) error     { return e.track(F64.Encode(e.w, v)) }
func (e *Encoder) WriteChar(r rune) error       { return e.track(Rune.Encode(e.w, r)) }
func (e *Encoder) WriteString(s string) error   { return e.track(String.Encode(e.w, s)) }
func (e *Encoder) WriteBytes(b []byte) error    { return e.track(Bytes.Encode(e.w, b)) }
func (e *Encoder) WriteVariant(index int) error { return e.track(variantIndex(e.w, index)) }

func (e *Encoder) track(n int, err error) error {
	e.n += int64(n)
	return err
}

func variantIndex(w io.Writer, index int) (int, error) {
	re := NewRecordEncoder(w)
	re.Variant(index)
	return re.Result()
}

// encodeValue writes rv according to the plan.
func (p *plan) encodeValue(w io.Writer, rv reflect.Value) (int, error) {
	switch p.kind {
	case planBool:
		return Bool.Encode(w, rv.Bool())
	case planU8:
		return U8.Encode(w, uint8(rv.Uint()))
	case planU16:
		return U16.Encode(w, uint16(rv.Uint()))
	case planU32:
		return U32.Encode(w, uint32(rv.Uint()))
	case planU64:
		return U64.Encode(w, rv.Uint())
	case planU128:
		return U128.Encode(w, Uint128{Hi: rv.Field(0).Uint(), Lo: rv.Field(1).Uint()})
	case planI8:
		return I8.Encode(w, int8(rv.Int()))
	case planI16:
		return I16.Encode(w, int16(rv.Int()))
	case planI32:
		return I32.Encode(w, int32(rv.Int()))
	case planI64:
		return I64.Encode(w, rv.Int())
	case planI128:
		return I128.Encode(w, Int128{Hi: rv.Field(0).Int(), Lo: rv.Field(1).Uint()})
	case planF32:
		return F32.Encode(w, float32(rv.Float()))
	case planF64:
		return F64.Encode(w, rv.Float())
	case planChar:
		return Rune.Encode(w, rune(rv.Int()))
	case planString:
		return String.Encode(w, rv.String())
	case planBytes:
		return Bytes.Encode(w, rv.Bytes())
	case planVec:
		return p.encodeVec(w, rv)
	case planArray:
		return p.encodeElems(w, rv, 0)
	case planPtr:
		if rv.IsNil() {
			// nil pointer encodes as zero value of element
			return p.elem.encodeValue(w, reflect.Zero(p.elem.typ))
		}
		return p.elem.encodeValue(w, rv.Elem())
	case planRecord:
		return p.encodeStruct(w, rv)
	case planUnion:
		return p.encodeUnion(w, rv)
	case planCustom:
		return p.encodeCustom(w, rv)
	default:
		return 0, &UnsupportedTypeError{Type: p.typ}
	}
}

func (p *plan) encodeVec(w io.Writer, rv reflect.Value) (int, error) {
	count := rv.Len()
	if !intr.CheckLen(uint64(count)) {
		return 0, overflow(p.name, uint64(count))
	}
	var prefix [intr.LenBytes]byte
	intr.PutLen(prefix[:], count)
	n, err := write(w, p.name, prefix[:])
	if err != nil {
		return n, err
	}
	return p.encodeElems(w, rv, n)
}

func (p *plan) encodeElems(w io.Writer, rv reflect.Value, n int) (int, error) {
	for i := 0; i < rv.Len(); i++ {
		m, err := p.elem.encodeValue(w, rv.Index(i))
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// encodeStruct writes each field in declaration order with no framing.
func (p *plan) encodeStruct(w io.Writer, rv reflect.Value) (int, error) {
	var n int
	for _, f := range p.fields {
		m, err := f.plan.encodeValue(w, rv.Field(f.index))
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// encodeUnion writes the discriminant of the single non-nil variant followed
// by its payload. The variant is validated before anything is written.
func (p *plan) encodeUnion(w io.Writer, rv reflect.Value) (int, error) {
	chosen := -1
	for i, f := range p.fields {
		if rv.Field(f.index).IsNil() {
			continue
		}
		if chosen >= 0 {
			return 0, ParsingError(p.name, "multiple variants set: %s and %s", p.fields[chosen].name, f.name)
		}
		chosen = i
	}
	if chosen < 0 {
		return 0, ParsingError(p.name, "no variant set")
	}
	n, err := U8.Encode(w, uint8(chosen))
	if err != nil {
		return n, err
	}
	f := p.fields[chosen]
	m, err := f.plan.encodeValue(w, rv.Field(f.index))
	return n + m, err
}

func (p *plan) encodeCustom(w io.Writer, rv reflect.Value) (int, error) {
	if rv.CanAddr() {
		return rv.Addr().Interface().(Marshaler).MarshalSirius(w)
	}
	pv := reflect.New(p.typ)
	pv.Elem().Set(rv)
	return pv.Interface().(Marshaler).MarshalSirius(w)
}
