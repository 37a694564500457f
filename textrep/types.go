package textrep

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the shape of a schema type.
type Kind int

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindF32
	KindF64
	KindChar
	KindString
	KindBytes
	KindVec
	KindArray
	KindRecord
	KindUnion
	KindRef // a named type, resolved after the schema is parsed
)

var scalarNames = map[Kind]string{
	KindBool:   "bool",
	KindU8:     "u8",
	KindU16:    "u16",
	KindU32:    "u32",
	KindU64:    "u64",
	KindU128:   "u128",
	KindI8:     "i8",
	KindI16:    "i16",
	KindI32:    "i32",
	KindI64:    "i64",
	KindI128:   "i128",
	KindF32:    "f32",
	KindF64:    "f64",
	KindChar:   "char",
	KindString: "string",
	KindBytes:  "bytes",
}

var scalarKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(scalarNames))
	for k, n := range scalarNames {
		m[n] = k
	}
	return m
}()

// IsScalar reports whether values of k are written as a single literal.
func (k Kind) IsScalar() bool { return k <= KindBytes }

func (k Kind) isInt() bool { return k >= KindU8 && k <= KindI128 }

func (k Kind) signed() bool { return k >= KindI8 && k <= KindI128 }

func (k Kind) bits() int {
	switch k {
	case KindU8, KindI8:
		return 8
	case KindU16, KindI16:
		return 16
	case KindU32, KindI32, KindF32:
		return 32
	case KindU64, KindI64, KindF64:
		return 64
	case KindU128, KindI128:
		return 128
	}
	return 0
}

// Type describes how a byte sequence is laid out. The wire format carries no
// type information, so decoding always starts from a Type.
type Type struct {
	Kind     Kind
	Name     string    // union name, or the referenced name for KindRef
	Elem     *Type     // KindVec, KindArray
	Len      int       // KindArray
	Fields   []Field   // KindRecord
	Variants []Variant // KindUnion, in discriminant order

	target *Type
}

type Field struct {
	Name string
	Type *Type
}

// Variant is one case of a union. A unit variant has no fields; a tuple
// variant has unnamed fields; Named marks a variant declared with braces.
type Variant struct {
	Name   string
	Fields []Field
	Named  bool
}

// Scalar returns the Type for a primitive kind.
func Scalar(k Kind) *Type {
	if !k.IsScalar() {
		panic("textrep: not a scalar kind: " + strconv.Itoa(int(k)))
	}
	return &Type{Kind: k}
}

// resolved follows named references to the underlying type.
func (t *Type) resolved() *Type {
	for t != nil && t.Kind == KindRef {
		t = t.target
	}
	return t
}

func (t *Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	if n, ok := scalarNames[t.Kind]; ok {
		b.WriteString(n)
		return
	}
	switch t.Kind {
	case KindRef:
		b.WriteString(t.Name)
	case KindVec:
		b.WriteString("vec<")
		t.Elem.write(b)
		b.WriteByte('>')
	case KindArray:
		b.WriteString("array<")
		t.Elem.write(b)
		fmt.Fprintf(b, ", %d>", t.Len)
	case KindRecord:
		b.WriteString("record {")
		writeFields(b, t.Fields)
		b.WriteString("}")
	case KindUnion:
		b.WriteString("union ")
		b.WriteString(t.Name)
		b.WriteString(" {")
		for i, v := range t.Variants {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(v.Name)
			switch {
			case v.Named:
				b.WriteString(" {")
				writeFields(b, v.Fields)
				b.WriteString("}")
			case len(v.Fields) > 0:
				b.WriteByte('(')
				for j, f := range v.Fields {
					if j > 0 {
						b.WriteString(", ")
					}
					f.Type.write(b)
				}
				b.WriteByte(')')
			}
		}
		b.WriteString(" }")
	}
}

func writeFields(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		b.WriteString(f.Name)
		b.WriteString(": ")
		f.Type.write(b)
	}
	if len(fields) > 0 {
		b.WriteByte(' ')
	}
}
