package textrep

import (
	"fmt"
	"strconv"

	"github.com/dadrian/sirius"
)

// ParseSchema parses a schema: any number of `type Name = T;` declarations
// followed by the root type, which may name one of the declarations.
//
//	type Shape = union Shape { Unit, Wrapper(u16), Named { x: u32 } };
//	vec<Shape>
//
// Declarations may refer to each other and to themselves, so recursive
// unions can be described. A type that contains itself through records and
// arrays alone has no finite encoding and is rejected.
func ParseSchema(src []byte) (*Type, error) {
	p := newParser(src)
	p.refs = make(map[string]*Type)
	p.lx.next()
	var order []string
	for p.lx.cur.kind == tokType {
		p.lx.next()
		if p.lx.cur.kind != tokIdent {
			return nil, p.errorf("expected type name after type")
		}
		name := p.lx.cur.lit
		if _, ok := scalarKinds[name]; ok {
			return nil, p.errorf("cannot redefine builtin type %s", name)
		}
		if _, ok := p.refs[name]; ok {
			return nil, p.errorf("duplicate type: %s", name)
		}
		p.lx.next()
		if err := p.expect(tokEq); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		p.refs[name] = t
		order = append(order, name)
		if p.lx.cur.kind == tokSemi {
			p.lx.next()
		}
	}
	if p.lx.cur.kind == tokEOF {
		return nil, p.errorf("schema has no root type")
	}
	root, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.lx.cur.kind == tokSemi {
		p.lx.next()
	}
	if err := p.expect(tokEOF); err != nil {
		return nil, err
	}

	for _, name := range order {
		if err := p.link(p.refs[name]); err != nil {
			return nil, err
		}
	}
	if err := p.link(root); err != nil {
		return nil, err
	}
	for _, name := range order {
		if err := checkAlias(name, p.refs[name]); err != nil {
			return nil, err
		}
	}
	if err := checkFinite(root); err != nil {
		return nil, err
	}
	if err := checkVecs(root); err != nil {
		return nil, err
	}
	return root, nil
}

// parseType parses a type expression. Named references are only accepted
// while parsing a schema.
func (p *parser) parseType() (*Type, error) {
	switch p.lx.cur.kind {
	case tokIdent:
		name := p.lx.cur.lit
		if k, ok := scalarKinds[name]; ok {
			p.lx.next()
			return Scalar(k), nil
		}
		if p.refs == nil {
			return nil, p.errorf("unknown type %s", name)
		}
		p.lx.next()
		return &Type{Kind: KindRef, Name: name}, nil
	case tokVec:
		p.lx.next()
		if err := p.expect(tokLt); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		return &Type{Kind: KindVec, Elem: elem}, nil
	case tokArray:
		p.lx.next()
		if err := p.expect(tokLt); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokComma); err != nil {
			return nil, err
		}
		if p.lx.cur.kind != tokInt || p.lx.cur.intBase != 10 {
			return nil, p.errorf("expected array length")
		}
		n, err := strconv.Atoi(stripUnderscores(p.lx.cur.lit))
		if err != nil || n < 0 {
			return nil, p.errorf("invalid array length %s", p.lx.cur.lit)
		}
		p.lx.next()
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		return &Type{Kind: KindArray, Elem: elem, Len: n}, nil
	case tokRecord:
		p.lx.next()
		fields, err := p.parseFieldTypes()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindRecord, Fields: fields}, nil
	case tokUnion:
		return p.parseUnionType()
	case tokIllegal:
		return nil, p.errorf("%s", p.lx.cur.lit)
	}
	return nil, p.errorf("expected type, got %v", p.lx.cur.kind)
}

// parseFieldTypes parses `{ name: T, ... }`.
func (p *parser) parseFieldTypes() ([]Field, error) {
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	var fields []Field
	seen := make(map[string]bool)
	for p.lx.cur.kind != tokRBrace && p.lx.cur.kind != tokEOF {
		if p.lx.cur.kind != tokIdent {
			return nil, p.errorf("expected field name, got %v", p.lx.cur.kind)
		}
		name := p.lx.cur.lit
		if seen[name] {
			return nil, p.errorf("duplicate field: %s", name)
		}
		seen[name] = true
		p.lx.next()
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Type: t})
		if p.lx.cur.kind == tokComma || p.lx.cur.kind == tokSemi {
			p.lx.next()
		}
	}
	if err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *parser) parseUnionType() (*Type, error) {
	p.lx.next()
	if p.lx.cur.kind != tokIdent {
		return nil, p.errorf("expected union name")
	}
	t := &Type{Kind: KindUnion, Name: p.lx.cur.lit}
	p.lx.next()
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for p.lx.cur.kind != tokRBrace && p.lx.cur.kind != tokEOF {
		if p.lx.cur.kind != tokIdent {
			return nil, p.errorf("expected variant name, got %v", p.lx.cur.kind)
		}
		v := Variant{Name: p.lx.cur.lit}
		if seen[v.Name] {
			return nil, p.errorf("duplicate variant: %s", v.Name)
		}
		seen[v.Name] = true
		p.lx.next()
		switch p.lx.cur.kind {
		case tokLParen:
			p.lx.next()
			for p.lx.cur.kind != tokRParen && p.lx.cur.kind != tokEOF {
				ft, err := p.parseType()
				if err != nil {
					return nil, err
				}
				v.Fields = append(v.Fields, Field{Type: ft})
				if p.lx.cur.kind == tokComma {
					p.lx.next()
				}
			}
			if err := p.expect(tokRParen); err != nil {
				return nil, err
			}
		case tokLBrace:
			fields, err := p.parseFieldTypes()
			if err != nil {
				return nil, err
			}
			v.Fields, v.Named = fields, true
		}
		t.Variants = append(t.Variants, v)
		if p.lx.cur.kind == tokComma {
			p.lx.next()
		}
	}
	if err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	switch {
	case len(t.Variants) == 0:
		return nil, p.errorf("union %s declares no variants", t.Name)
	case len(t.Variants) > sirius.MaxVariants:
		return nil, p.errorf("union %s declares %d variants, at most %d are allowed", t.Name, len(t.Variants), sirius.MaxVariants)
	}
	return t, nil
}

// link points every reference inside t at its declaration.
func (p *parser) link(t *Type) error {
	switch t.Kind {
	case KindRef:
		target, ok := p.refs[t.Name]
		if !ok {
			return fmt.Errorf("textrep: unknown type %s", t.Name)
		}
		t.target = target
	case KindVec, KindArray:
		return p.link(t.Elem)
	case KindRecord:
		for _, f := range t.Fields {
			if err := p.link(f.Type); err != nil {
				return err
			}
		}
	case KindUnion:
		for _, v := range t.Variants {
			for _, f := range v.Fields {
				if err := p.link(f.Type); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkAlias rejects declarations such as `type A = B; type B = A;` that
// never reach a concrete type.
func checkAlias(name string, t *Type) error {
	seen := make(map[*Type]bool)
	for t.Kind == KindRef {
		if seen[t] {
			return fmt.Errorf("textrep: type %s refers only to itself", name)
		}
		seen[t] = true
		t = t.target
	}
	return nil
}

// checkFinite rejects types that contain themselves through records, arrays
// and references alone; decoding such a type would never consume input.
// Vec counts and union discriminants always make progress, so cycles through
// them are fine.
func checkFinite(root *Type) error {
	all := nodes(root)
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*Type]int)
	var walk func(t *Type) bool
	walk = func(t *Type) bool {
		switch state[t] {
		case visiting:
			return true
		case done:
			return false
		}
		state[t] = visiting
		for _, c := range children(t, false) {
			if walk(c) {
				return true
			}
		}
		state[t] = done
		return false
	}
	for _, t := range all {
		if walk(t) {
			return fmt.Errorf("textrep: type %s contains itself without a vec or union", t)
		}
	}
	return nil
}

// checkVecs rejects vec<T> where every T encodes to zero bytes: the count
// of such a vec could not be checked against the input. Run it after
// checkFinite.
func checkVecs(root *Type) error {
	for _, t := range nodes(root) {
		if t.Kind == KindVec && encodesEmpty(t.Elem) {
			return fmt.Errorf("textrep: %s has elements that encode to no bytes", t)
		}
	}
	return nil
}

// encodesEmpty reports whether every value of t encodes to zero bytes. t
// must have passed checkFinite, so the recursion ends.
func encodesEmpty(t *Type) bool {
	switch t.Kind {
	case KindRef:
		return encodesEmpty(t.target)
	case KindArray:
		return t.Len == 0 || encodesEmpty(t.Elem)
	case KindRecord:
		for _, f := range t.Fields {
			if !encodesEmpty(f.Type) {
				return false
			}
		}
		return true
	}
	return false
}

// nodes lists every type reachable from root, each once.
func nodes(root *Type) []*Type {
	var all []*Type
	seen := make(map[*Type]bool)
	var collect func(t *Type)
	collect = func(t *Type) {
		if seen[t] {
			return
		}
		seen[t] = true
		all = append(all, t)
		for _, c := range children(t, true) {
			collect(c)
		}
	}
	collect(root)
	return all
}

// children lists the types nested directly in t. Unless all is set, only
// those decoded without first consuming a byte of t itself are returned.
func children(t *Type, all bool) []*Type {
	var out []*Type
	switch t.Kind {
	case KindRef:
		out = append(out, t.target)
	case KindArray:
		if all || t.Len > 0 {
			out = append(out, t.Elem)
		}
	case KindVec:
		if all {
			out = append(out, t.Elem)
		}
	case KindRecord:
		for _, f := range t.Fields {
			out = append(out, f.Type)
		}
	case KindUnion:
		if all {
			for _, v := range t.Variants {
				for _, f := range v.Fields {
					out = append(out, f.Type)
				}
			}
		}
	}
	return out
}
