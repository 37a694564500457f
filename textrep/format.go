package textrep

import (
	"encoding/hex"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dadrian/sirius"
)

// Decode renders the value at the front of data, laid out as schema, in the
// text syntax accepted by EncodeBytes. It returns the bytes consumed.
// Decode errors are the core package's *sirius.Error values, positioned
// relative to data.
func Decode(schema *Type, data []byte) (string, int, error) {
	return schema.Codec().Decode(data)
}

// Codec returns a sirius.Codec that moves between text values and bytes
// laid out as t. Encode accepts the same syntax as EncodeBytes; integer
// literals need no suffix because t supplies the types.
func (t *Type) Codec() sirius.Codec[string] {
	return typeCodec{t: t}
}

// typeCodec renders one value of t. bare drops the type suffix on numbers
// when an enclosing vec<T> or array<T> already names the type.
type typeCodec struct {
	t    *Type
	bare bool
}

func (c typeCodec) Encode(w io.Writer, text string) (int, error) {
	p := newParser([]byte(text))
	v, err := p.parseDocument(c.t)
	if err != nil {
		return 0, err
	}
	return valueCodec{}.Encode(w, v)
}

func (c typeCodec) Decode(data []byte) (string, int, error) {
	t := c.t.resolved()
	switch t.Kind {
	case KindBool:
		return render(sirius.Bool, data, strconv.FormatBool)
	case KindU8:
		return render(sirius.U8, data, func(v uint8) string { return c.num(strconv.FormatUint(uint64(v), 10), t) })
	case KindU16:
		return render(sirius.U16, data, func(v uint16) string { return c.num(strconv.FormatUint(uint64(v), 10), t) })
	case KindU32:
		return render(sirius.U32, data, func(v uint32) string { return c.num(strconv.FormatUint(uint64(v), 10), t) })
	case KindU64:
		return render(sirius.U64, data, func(v uint64) string { return c.num(strconv.FormatUint(v, 10), t) })
	case KindU128:
		return render(sirius.U128, data, func(v sirius.Uint128) string { return c.num(v.String(), t) })
	case KindI8:
		return render(sirius.I8, data, func(v int8) string { return c.num(strconv.FormatInt(int64(v), 10), t) })
	case KindI16:
		return render(sirius.I16, data, func(v int16) string { return c.num(strconv.FormatInt(int64(v), 10), t) })
	case KindI32:
		return render(sirius.I32, data, func(v int32) string { return c.num(strconv.FormatInt(int64(v), 10), t) })
	case KindI64:
		return render(sirius.I64, data, func(v int64) string { return c.num(strconv.FormatInt(v, 10), t) })
	case KindI128:
		return render(sirius.I128, data, func(v sirius.Int128) string { return c.num(v.String(), t) })
	case KindF32:
		return render(sirius.F32, data, func(v float32) string {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return "f32bits(0x" + strconv.FormatUint(uint64(math.Float32bits(v)), 16) + ")"
			}
			return c.num(formatFloat(float64(v), 32), t)
		})
	case KindF64:
		return render(sirius.F64, data, func(v float64) string {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return "f64bits(0x" + strconv.FormatUint(math.Float64bits(v), 16) + ")"
			}
			return c.num(formatFloat(v, 64), t)
		})
	case KindChar:
		return render(sirius.Rune, data, strconv.QuoteRune)
	case KindString:
		return render(sirius.String, data, strconv.Quote)
	case KindBytes:
		return render(sirius.Bytes, data, func(b []byte) string { return `bytes("` + hex.EncodeToString(b) + `")` })
	case KindVec:
		elem, head := seqHead("vec", t.Elem)
		return render(sirius.Vec[string](elem), data, func(items []string) string { return head + "[" + strings.Join(items, ", ") + "]" })
	case KindArray:
		elem, head := seqHead("array", t.Elem)
		return render(sirius.Array[string](elem, t.Len), data, func(items []string) string { return head + "[" + strings.Join(items, ", ") + "]" })
	case KindRecord:
		return decodeRecord(t, data)
	case KindUnion:
		return decodeUnion(t, data)
	}
	return "", 0, sirius.ParsingError(t.String(), "unresolved type")
}

func (c typeCodec) num(s string, t *Type) string {
	if c.bare {
		return s
	}
	return s + scalarNames[t.Kind]
}

func render[T any](c sirius.Codec[T], data []byte, f func(T) string) (string, int, error) {
	v, n, err := c.Decode(data)
	if err != nil {
		return "", 0, err
	}
	return f(v), n, nil
}

// seqHead picks the element codec and the opening of a vec or array
// literal. Scalar elements are typed once in the head; anything else is
// written self-describing.
func seqHead(kw string, elem *Type) (typeCodec, string) {
	r := elem.resolved()
	if r.Kind.IsScalar() {
		return typeCodec{t: r, bare: true}, kw + "<" + r.String() + ">"
	}
	return typeCodec{t: elem}, kw
}

func formatFloat(v float64, bits int) string {
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func decodeRecord(t *Type, data []byte) (string, int, error) {
	d := sirius.NewRecordDecoder(data)
	parts := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		s := sirius.DecodeField[string](d, typeCodec{t: f.Type})
		parts = append(parts, f.Name+": "+s+";")
	}
	n, err := d.Result()
	if err != nil {
		return "", 0, err
	}
	return "record " + braced(parts), n, nil
}

func decodeUnion(t *Type, data []byte) (string, int, error) {
	d := sirius.NewRecordDecoder(data)
	idx := d.Variant()
	if d.Err() == nil && int(idx) >= len(t.Variants) {
		d.Fail(sirius.InvalidVariant(t.Name, idx))
	}
	if err := d.Err(); err != nil {
		return "", 0, err
	}
	v := t.Variants[idx]
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		s := sirius.DecodeField[string](d, typeCodec{t: f.Type})
		if v.Named {
			s = f.Name + ": " + s + ";"
		}
		parts = append(parts, s)
	}
	n, err := d.Result()
	if err != nil {
		return "", 0, err
	}
	head := "variant<" + strconv.Itoa(int(idx)) + ">"
	switch {
	case v.Named:
		return head + " " + braced(parts), n, nil
	case len(parts) > 0:
		return head + "(" + strings.Join(parts, ", ") + ")", n, nil
	}
	return head, n, nil
}

func braced(parts []string) string {
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
