package textrep

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dadrian/sirius"
)

// Encode reads a text document from r and writes its sirius encoding to w.
func Encode(r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out, err := EncodeBytes(src)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// EncodeBytes parses a text document and returns its sirius encoding.
//
// A document is an optional preamble of `let label: type;` declarations
// followed by exactly one value. Labels give type hints to record fields of
// the same name, so integer literals inside them need no suffix.
func EncodeBytes(src []byte) ([]byte, error) {
	p := newParser(src)
	v, err := p.parseDocument(nil)
	if err != nil {
		return nil, err
	}
	return sirius.Buffered[value](valueCodec{}, v)
}

// Internal AST and parser

type value interface{}

type (
	valBool    struct{ v bool }
	valInt     struct{ kind Kind; n *big.Int }
	valFloat   struct{ kind Kind; v float64; f32 float32 }
	valChar    struct{ r rune }
	valString  struct{ s string }
	valBytes   struct{ b []byte }
	valSeq     struct{ kind Kind; items []value } // KindVec or KindArray
	valRecord  struct{ fields []field }
	valVariant struct{ index int; fields []field }
	field      struct{ label string; val value }
)

type parser struct {
	lx     *lexer
	labels map[string]*Type // let preamble
	refs   map[string]*Type // schema declarations; nil outside schemas
}

func newParser(src []byte) *parser {
	return &parser{lx: newLexer(src), labels: make(map[string]*Type)}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("textrep: %d:%d: %s", p.lx.cur.line, p.lx.cur.col, fmt.Sprintf(format, args...))
}

func (p *parser) expect(k tokKind) error {
	if p.lx.cur.kind == tokIllegal {
		return p.errorf("%s", p.lx.cur.lit)
	}
	if p.lx.cur.kind != k {
		return p.errorf("expected %v, got %v", k, p.lx.cur.kind)
	}
	p.lx.next()
	return nil
}

// parseDocument parses the let preamble and a single value checked against
// hint, then requires the end of input.
func (p *parser) parseDocument(hint *Type) (value, error) {
	p.lx.next()
	for p.lx.cur.kind == tokLet {
		if err := p.parseLet(); err != nil {
			return nil, err
		}
	}
	v, err := p.parseValue(hint)
	if err != nil {
		return nil, err
	}
	if p.lx.cur.kind == tokSemi {
		p.lx.next()
	}
	if err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *parser) parseLet() error {
	// current is 'let'
	p.lx.next()
	if p.lx.cur.kind != tokIdent {
		return p.errorf("expected label after let")
	}
	name := p.lx.cur.lit
	if _, exists := p.labels[name]; exists {
		return p.errorf("duplicate label: %s", name)
	}
	p.lx.next()
	if err := p.expect(tokColon); err != nil {
		return err
	}
	t, err := p.parseType()
	if err != nil {
		return err
	}
	p.labels[name] = t
	if p.lx.cur.kind == tokSemi {
		p.lx.next()
	}
	return nil
}

func (p *parser) parseValue(hint *Type) (value, error) {
	hint = hint.resolved()
	switch p.lx.cur.kind {
	case tokLParen:
		// Cast: (Type) Value
		p.lx.next()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		if hint != nil && t.String() != hint.String() {
			return nil, p.errorf("cast to %s where %s is expected", t, hint)
		}
		return p.parseValue(t)
	case tokTrue, tokFalse:
		if err := p.want(hint, KindBool); err != nil {
			return nil, err
		}
		v := p.lx.cur.kind == tokTrue
		p.lx.next()
		return valBool{v: v}, nil
	case tokString:
		if err := p.want(hint, KindString); err != nil {
			return nil, err
		}
		s := p.lx.cur.lit
		p.lx.next()
		return valString{s: s}, nil
	case tokChar:
		if err := p.want(hint, KindChar); err != nil {
			return nil, err
		}
		s := p.lx.cur.lit
		if utf8.RuneCountInString(s) != 1 {
			return nil, p.errorf("char literal must hold exactly one character")
		}
		r, _ := utf8.DecodeRuneInString(s)
		p.lx.next()
		return valChar{r: r}, nil
	case tokFloat:
		return p.parseFloat(hint)
	case tokInt:
		return p.parseInt(hint)
	case tokIdent:
		switch p.lx.cur.lit {
		case "bytes":
			return p.parseBytes(hint)
		case "f32bits", "f64bits":
			return p.parseFloatBits(hint)
		}
		return nil, p.errorf("unexpected identifier %s in value", p.lx.cur.lit)
	case tokVec, tokArray, tokLBrack:
		return p.parseSeq(hint)
	case tokRecord:
		return p.parseRecord(hint)
	case tokVariant:
		return p.parseVariant(hint)
	case tokIllegal:
		return nil, p.errorf("%s", p.lx.cur.lit)
	}
	return nil, p.errorf("unexpected %v in value", p.lx.cur.kind)
}

// want checks a literal of kind k against the expected type, if any.
func (p *parser) want(hint *Type, k Kind) error {
	if hint != nil && hint.Kind != k {
		return p.errorf("expected %s, found %s literal", hint, scalarNames[k])
	}
	return nil
}

// suffix consumes a type suffix such as u32 or f64 if one follows.
func (p *parser) suffix() (Kind, bool) {
	if p.lx.cur.kind != tokIdent {
		return 0, false
	}
	k, ok := scalarKinds[p.lx.cur.lit]
	if !ok || !(k.isInt() || k == KindF32 || k == KindF64) {
		return 0, false
	}
	p.lx.next()
	return k, true
}

func (p *parser) parseInt(hint *Type) (value, error) {
	lit, base := p.lx.cur.lit, p.lx.cur.intBase
	p.lx.next()
	k, ok := p.suffix()
	switch {
	case ok && hint != nil && hint.Kind != k:
		return nil, p.errorf("expected %s, found %s literal", hint, scalarNames[k])
	case !ok && hint == nil:
		return nil, p.errorf("ambiguous integer literal %s; add a type suffix or cast", lit)
	case !ok:
		k = hint.Kind
	}
	if k == KindF32 || k == KindF64 {
		if base != 10 {
			return nil, p.errorf("hex literal %s cannot be a float", lit)
		}
		return p.float(lit, k)
	}
	if !k.isInt() {
		return nil, p.errorf("expected %s, found integer literal", hint)
	}
	n, err := parseIntLit(lit, base)
	if err != nil {
		return nil, p.errorf("invalid integer %s: %v", lit, err)
	}
	if !fits(n, k) {
		return nil, p.errorf("%s overflows %s", lit, scalarNames[k])
	}
	return valInt{kind: k, n: n}, nil
}

func (p *parser) parseFloat(hint *Type) (value, error) {
	lit := p.lx.cur.lit
	p.lx.next()
	k, ok := p.suffix()
	switch {
	case ok && !(k == KindF32 || k == KindF64):
		return nil, p.errorf("float literal %s with integer suffix %s", lit, scalarNames[k])
	case ok && hint != nil && hint.Kind != k:
		return nil, p.errorf("expected %s, found %s literal", hint, scalarNames[k])
	case !ok && hint != nil:
		if hint.Kind != KindF32 && hint.Kind != KindF64 {
			return nil, p.errorf("expected %s, found float literal", hint)
		}
		k = hint.Kind
	case !ok:
		k = KindF64
	}
	return p.float(lit, k)
}

func (p *parser) float(lit string, k Kind) (value, error) {
	f, err := strconv.ParseFloat(stripUnderscores(lit), k.bits())
	if err != nil {
		return nil, p.errorf("invalid float %s: %v", lit, err)
	}
	return valFloat{kind: k, v: f, f32: float32(f)}, nil
}

// parseFloatBits parses f32bits(0x...) and f64bits(0x...), which carry the
// exact IEEE 754 bit pattern, NaN payloads included.
func (p *parser) parseFloatBits(hint *Type) (value, error) {
	k := KindF32
	if p.lx.cur.lit == "f64bits" {
		k = KindF64
	}
	if err := p.want(hint, k); err != nil {
		return nil, err
	}
	p.lx.next()
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	if p.lx.cur.kind != tokInt {
		return nil, p.errorf("expected bit pattern")
	}
	n, err := parseIntLit(p.lx.cur.lit, p.lx.cur.intBase)
	if err != nil || n.Sign() < 0 || n.BitLen() > k.bits() {
		return nil, p.errorf("invalid %s bit pattern %s", scalarNames[k], p.lx.cur.lit)
	}
	p.lx.next()
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if k == KindF32 {
		return valFloat{kind: k, f32: math.Float32frombits(uint32(n.Uint64()))}, nil
	}
	return valFloat{kind: k, v: math.Float64frombits(n.Uint64())}, nil
}

// parseBytes parses bytes("hex").
func (p *parser) parseBytes(hint *Type) (value, error) {
	if err := p.want(hint, KindBytes); err != nil {
		return nil, err
	}
	p.lx.next()
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	if p.lx.cur.kind != tokString {
		return nil, p.errorf("expected hex string in bytes(...)")
	}
	b, err := hex.DecodeString(p.lx.cur.lit)
	if err != nil {
		return nil, p.errorf("invalid hex: %v", err)
	}
	p.lx.next()
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return valBytes{b: b}, nil
}

// parseSeq parses vec<T>[...], array<T>[...], or a bare [...] whose kind
// comes from the hint.
func (p *parser) parseSeq(hint *Type) (value, error) {
	var kind Kind
	switch p.lx.cur.kind {
	case tokVec:
		kind = KindVec
	case tokArray:
		kind = KindArray
	default:
		if hint == nil || (hint.Kind != KindVec && hint.Kind != KindArray) {
			return nil, p.errorf("bare list needs a vec or array type; write vec[...] or array[...]")
		}
		kind = hint.Kind
	}
	if hint != nil && hint.Kind != kind {
		return nil, p.errorf("expected %s, found %s literal", hint, map[Kind]string{KindVec: "vec", KindArray: "array"}[kind])
	}
	var elem *Type
	if hint != nil {
		elem = hint.Elem
	}
	if p.lx.cur.kind != tokLBrack {
		p.lx.next()
		if p.lx.cur.kind == tokLt {
			p.lx.next()
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokGt); err != nil {
				return nil, err
			}
			if elem != nil && t.String() != elem.String() {
				return nil, p.errorf("element type %s where %s is expected", t, elem)
			}
			elem = t
		}
	}
	if err := p.expect(tokLBrack); err != nil {
		return nil, err
	}
	var items []value
	var first *Type
	for p.lx.cur.kind != tokRBrack && p.lx.cur.kind != tokEOF {
		v, err := p.parseValue(elem)
		if err != nil {
			return nil, err
		}
		// Without a declared element type, scalars must still agree.
		if t := typeOf(v); t != nil && elem == nil {
			if first == nil {
				first = t
			} else if t.Kind != first.Kind {
				return nil, p.errorf("mixed element types %s and %s", first, t)
			}
		}
		items = append(items, v)
		if p.lx.cur.kind == tokComma {
			p.lx.next()
		}
	}
	if err := p.expect(tokRBrack); err != nil {
		return nil, err
	}
	if hint != nil && kind == KindArray && len(items) != hint.Len {
		return nil, p.errorf("%s needs %d elements, found %d", hint, hint.Len, len(items))
	}
	return valSeq{kind: kind, items: items}, nil
}

// parseRecord parses record { [label:] value; ... }.
func (p *parser) parseRecord(hint *Type) (value, error) {
	if hint != nil && hint.Kind != KindRecord {
		return nil, p.errorf("expected %s, found record literal", hint)
	}
	p.lx.next()
	var fields []Field
	if hint != nil {
		fields = hint.Fields
	}
	got, err := p.parseFields(fields, hint != nil)
	if err != nil {
		return nil, err
	}
	return valRecord{fields: got}, nil
}

// parseFields parses a braced field list. When typed is set, the literal
// must supply exactly the declared fields in order.
func (p *parser) parseFields(declared []Field, typed bool) ([]field, error) {
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	var out []field
	for p.lx.cur.kind != tokRBrace && p.lx.cur.kind != tokEOF {
		var label string
		if p.lx.cur.kind == tokIdent && p.lx.peek().kind == tokColon {
			label = p.lx.cur.lit
			p.lx.next()
			p.lx.next()
		}
		var hint *Type
		if typed {
			i := len(out)
			if i >= len(declared) {
				return nil, p.errorf("too many fields, want %d", len(declared))
			}
			if label != "" && label != declared[i].Name {
				return nil, p.errorf("field %d is %s, not %s", i, declared[i].Name, label)
			}
			label = declared[i].Name
			hint = declared[i].Type
		} else if label != "" {
			hint = p.labels[label]
		}
		v, err := p.parseValue(hint)
		if err != nil {
			return nil, err
		}
		out = append(out, field{label: label, val: v})
		if p.lx.cur.kind == tokSemi || p.lx.cur.kind == tokComma {
			p.lx.next()
		}
	}
	if err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	if typed && len(out) != len(declared) {
		return nil, p.errorf("missing fields: want %d, found %d", len(declared), len(out))
	}
	return out, nil
}

// parseVariant parses variant<N>, variant<N>(v, ...) or variant<N> { ... }.
func (p *parser) parseVariant(hint *Type) (value, error) {
	if hint != nil && hint.Kind != KindUnion {
		return nil, p.errorf("expected %s, found variant literal", hint)
	}
	p.lx.next()
	if err := p.expect(tokLt); err != nil {
		return nil, err
	}
	if p.lx.cur.kind != tokInt || p.lx.cur.intBase != 10 {
		return nil, p.errorf("expected variant index")
	}
	idx, err := strconv.Atoi(stripUnderscores(p.lx.cur.lit))
	if err != nil || idx < 0 || idx >= sirius.MaxVariants {
		return nil, p.errorf("invalid variant index %s", p.lx.cur.lit)
	}
	p.lx.next()
	if err := p.expect(tokGt); err != nil {
		return nil, err
	}
	var decl *Variant
	if hint != nil {
		if idx >= len(hint.Variants) {
			return nil, p.errorf("%s has no variant %d", hint.Name, idx)
		}
		decl = &hint.Variants[idx]
	}
	out := valVariant{index: idx}
	switch p.lx.cur.kind {
	case tokLParen:
		p.lx.next()
		for p.lx.cur.kind != tokRParen && p.lx.cur.kind != tokEOF {
			var fh *Type
			if decl != nil {
				if len(out.fields) >= len(decl.Fields) {
					return nil, p.errorf("too many values for %s", decl.Name)
				}
				fh = decl.Fields[len(out.fields)].Type
			}
			v, err := p.parseValue(fh)
			if err != nil {
				return nil, err
			}
			out.fields = append(out.fields, field{val: v})
			if p.lx.cur.kind == tokComma {
				p.lx.next()
			}
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		if decl != nil && len(out.fields) != len(decl.Fields) {
			return nil, p.errorf("%s needs %d values, found %d", decl.Name, len(decl.Fields), len(out.fields))
		}
	case tokLBrace:
		var declared []Field
		if decl != nil {
			declared = decl.Fields
		}
		fields, err := p.parseFields(declared, decl != nil)
		if err != nil {
			return nil, err
		}
		out.fields = fields
	default:
		if decl != nil && len(decl.Fields) > 0 {
			return nil, p.errorf("%s needs %d values", decl.Name, len(decl.Fields))
		}
	}
	return out, nil
}

// typeOf reports the type of a scalar literal, or nil for composites.
func typeOf(v value) *Type {
	switch x := v.(type) {
	case valBool:
		return Scalar(KindBool)
	case valInt:
		return Scalar(x.kind)
	case valFloat:
		return Scalar(x.kind)
	case valChar:
		return Scalar(KindChar)
	case valString:
		return Scalar(KindString)
	case valBytes:
		return Scalar(KindBytes)
	}
	return nil
}

func parseIntLit(lit string, base int) (*big.Int, error) {
	s := stripUnderscores(lit)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if base == 16 {
		s = s[2:]
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("malformed number")
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

var bigOne = big.NewInt(1)

// fits reports whether n is representable in the integer kind k.
func fits(n *big.Int, k Kind) bool {
	bits := uint(k.bits())
	if k.signed() {
		lo := new(big.Int).Neg(new(big.Int).Lsh(bigOne, bits-1))
		hi := new(big.Int).Sub(new(big.Int).Lsh(bigOne, bits-1), bigOne)
		return n.Cmp(lo) >= 0 && n.Cmp(hi) <= 0
	}
	return n.Sign() >= 0 && n.BitLen() <= int(bits)
}
