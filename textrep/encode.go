package textrep

import (
	"fmt"
	"io"

	"github.com/dadrian/sirius"
)

// valueCodec writes parsed literals with the sirius codecs. Literals carry
// their own types, so only the encoding half is meaningful; decoding always
// goes through a schema.
type valueCodec struct{}

func (valueCodec) Encode(w io.Writer, v value) (int, error) {
	switch x := v.(type) {
	case valBool:
		return sirius.Bool.Encode(w, x.v)
	case valInt:
		return encodeInt(w, x)
	case valFloat:
		if x.kind == KindF32 {
			return sirius.F32.Encode(w, x.f32)
		}
		return sirius.F64.Encode(w, x.v)
	case valChar:
		return sirius.Rune.Encode(w, x.r)
	case valString:
		return sirius.String.Encode(w, x.s)
	case valBytes:
		return sirius.Bytes.Encode(w, x.b)
	case valSeq:
		if x.kind == KindVec {
			return sirius.Vec[value](valueCodec{}).Encode(w, x.items)
		}
		return sirius.Array[value](valueCodec{}, len(x.items)).Encode(w, x.items)
	case valRecord:
		e := sirius.NewRecordEncoder(w)
		for _, f := range x.fields {
			sirius.EncodeField[value](e, valueCodec{}, f.val)
		}
		return e.Result()
	case valVariant:
		e := sirius.NewRecordEncoder(w)
		e.Variant(x.index)
		for _, f := range x.fields {
			sirius.EncodeField[value](e, valueCodec{}, f.val)
		}
		return e.Result()
	}
	return 0, fmt.Errorf("textrep: unsupported value %T", v)
}

func (valueCodec) Decode([]byte) (value, int, error) {
	return nil, 0, sirius.ParsingError("value", "text values decode only through a schema")
}

func encodeInt(w io.Writer, x valInt) (int, error) {
	switch x.kind {
	case KindU8:
		return sirius.U8.Encode(w, uint8(x.n.Uint64()))
	case KindU16:
		return sirius.U16.Encode(w, uint16(x.n.Uint64()))
	case KindU32:
		return sirius.U32.Encode(w, uint32(x.n.Uint64()))
	case KindU64:
		return sirius.U64.Encode(w, x.n.Uint64())
	case KindU128:
		u, err := sirius.Uint128FromBig(x.n)
		if err != nil {
			return 0, err
		}
		return sirius.U128.Encode(w, u)
	case KindI8:
		return sirius.I8.Encode(w, int8(x.n.Int64()))
	case KindI16:
		return sirius.I16.Encode(w, int16(x.n.Int64()))
	case KindI32:
		return sirius.I32.Encode(w, int32(x.n.Int64()))
	case KindI64:
		return sirius.I64.Encode(w, x.n.Int64())
	case KindI128:
		i, err := sirius.Int128FromBig(x.n)
		if err != nil {
			return 0, err
		}
		return sirius.I128.Encode(w, i)
	}
	return 0, fmt.Errorf("textrep: %v is not an integer kind", x.kind)
}
