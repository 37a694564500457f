package sirius

import (
	"reflect"

	intr "github.com/dadrian/sirius/internal"
)

// Decoder reads consecutive sirius-encoded values from one complete byte
// slice, tracking the offset between calls.
type Decoder struct {
	data   []byte
	offset int
}

func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

// Decode reads the next value into v, which must be a non-nil pointer.
// Errors are positioned relative to the start of the Decoder's slice. On
// error the offset does not move and v is left unchanged.
func (d *Decoder) Decode(v any) error {
	n, err := unmarshal(d.data[d.offset:], v)
	if err != nil {
		return shift(err, d.offset)
	}
	d.offset += n
	return nil
}

// Offset reports how many bytes have been consumed.
func (d *Decoder) Offset() int { return d.offset }

// More reports whether unread bytes remain.
func (d *Decoder) More() bool { return d.offset < len(d.data) }

func unmarshal(data []byte, v any) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, &UnsupportedTypeError{Type: reflect.TypeOf(v), Reason: "decode target must be a non-nil pointer"}
	}
	rv = rv.Elem()
	p, err := planFor(rv.Type())
	if err != nil {
		return 0, err
	}
	// Decode into a copy so a failure part way through leaves the target
	// untouched. Fields skipped by the plan keep their current value.
	tmp := reflect.New(rv.Type()).Elem()
	tmp.Set(rv)
	n, err := p.decodeValue(data, tmp)
	if err != nil {
		return 0, err
	}
	rv.Set(tmp)
	return n, nil
}

// decodeValue decodes the front of data into the settable value rv.
func (p *plan) decodeValue(data []byte, rv reflect.Value) (int, error) {
	switch p.kind {
	case planBool:
		v, n, err := Bool.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.SetBool(v)
		return n, nil
	case planU8:
		return decodeUint(U8, data, rv)
	case planU16:
		return decodeUint(U16, data, rv)
	case planU32:
		return decodeUint(U32, data, rv)
	case planU64:
		return decodeUint(U64, data, rv)
	case planU128:
		v, n, err := U128.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.Field(0).SetUint(v.Hi)
		rv.Field(1).SetUint(v.Lo)
		return n, nil
	case planI8:
		return decodeInt(I8, data, rv)
	case planI16:
		return decodeInt(I16, data, rv)
	case planI32:
		return decodeInt(I32, data, rv)
	case planI64:
		return decodeInt(I64, data, rv)
	case planI128:
		v, n, err := I128.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.Field(0).SetInt(v.Hi)
		rv.Field(1).SetUint(v.Lo)
		return n, nil
	case planF32:
		v, n, err := F32.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.SetFloat(float64(v))
		return n, nil
	case planF64:
		v, n, err := F64.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.SetFloat(v)
		return n, nil
	case planChar:
		return decodeInt(Rune, data, rv)
	case planString:
		v, n, err := String.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.SetString(v)
		return n, nil
	case planBytes:
		v, n, err := Bytes.Decode(data)
		if err != nil {
			return 0, err
		}
		rv.SetBytes(v)
		return n, nil
	case planVec:
		return p.decodeVecInto(data, rv)
	case planArray:
		return p.decodeElemsInto(data, rv, 0)
	case planPtr:
		nv := reflect.New(p.elem.typ)
		n, err := p.elem.decodeValue(data, nv.Elem())
		if err != nil {
			return 0, err
		}
		rv.Set(nv)
		return n, nil
	case planRecord:
		return p.decodeStructInto(data, rv)
	case planUnion:
		return p.decodeUnionInto(data, rv)
	case planCustom:
		pv := reflect.New(p.typ)
		n, err := pv.Interface().(Unmarshaler).UnmarshalSirius(data)
		if err != nil {
			return 0, err
		}
		rv.Set(pv.Elem())
		return n, nil
	default:
		return 0, &UnsupportedTypeError{Type: p.typ}
	}
}

func decodeUint[T uint8 | uint16 | uint32 | uint64](c Codec[T], data []byte, rv reflect.Value) (int, error) {
	v, n, err := c.Decode(data)
	if err != nil {
		return 0, err
	}
	rv.SetUint(uint64(v))
	return n, nil
}

func decodeInt[T int8 | int16 | int32 | int64](c Codec[T], data []byte, rv reflect.Value) (int, error) {
	v, n, err := c.Decode(data)
	if err != nil {
		return 0, err
	}
	rv.SetInt(int64(v))
	return n, nil
}

func (p *plan) decodeVecInto(data []byte, rv reflect.Value) (int, error) {
	count, ok := intr.ReadLen(data)
	if !ok {
		return 0, notEnoughData(p.name, intr.LenBytes, len(data))
	}
	off := intr.LenBytes
	// Bound the reservation by the bytes actually left; the declared count
	// is not trusted.
	s := reflect.MakeSlice(p.typ, 0, min(count, len(data)-off))
	zero := reflect.Zero(p.elem.typ)
	for i := 0; i < count; i++ {
		s = reflect.Append(s, zero)
		n, err := p.elem.decodeValue(data[off:], s.Index(i))
		if err != nil {
			return 0, shift(err, off)
		}
		off += n
		if err := checkProgress(p.name, n, count-i-1, len(data)-off); err != nil {
			return 0, err
		}
	}
	rv.Set(s)
	return off, nil
}

func (p *plan) decodeElemsInto(data []byte, rv reflect.Value, off int) (int, error) {
	for i := 0; i < rv.Len(); i++ {
		n, err := p.elem.decodeValue(data[off:], rv.Index(i))
		if err != nil {
			return 0, shift(err, off)
		}
		off += n
	}
	return off, nil
}

// decodeStructInto decodes each field in declaration order, carrying the
// offset from one field to the next.
func (p *plan) decodeStructInto(data []byte, rv reflect.Value) (int, error) {
	off := 0
	for _, f := range p.fields {
		n, err := f.plan.decodeValue(data[off:], rv.Field(f.index))
		if err != nil {
			return 0, shift(err, off)
		}
		off += n
	}
	return off, nil
}

// decodeUnionInto reads the discriminant, decodes the matching variant and
// clears every other variant.
func (p *plan) decodeUnionInto(data []byte, rv reflect.Value) (int, error) {
	idx, off, err := U8.Decode(data)
	if err != nil {
		return 0, err
	}
	if int(idx) >= len(p.fields) {
		return 0, InvalidVariant(p.name, idx)
	}
	f := p.fields[idx]
	n, err := f.plan.decodeValue(data[off:], rv.Field(f.index))
	if err != nil {
		return 0, shift(err, off)
	}
	for i, other := range p.fields {
		if i != int(idx) {
			rv.Field(other.index).Set(reflect.Zero(other.plan.typ))
		}
	}
	return off + n, nil
}
