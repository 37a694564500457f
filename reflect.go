package sirius

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	intr "github.com/dadrian/sirius/internal"
)

// planKind is the wire mapping chosen for a Go type.
type planKind int

const (
	planBool planKind = iota
	planU8
	planU16
	planU32
	planU64
	planU128
	planI8
	planI16
	planI32
	planI64
	planI128
	planF32
	planF64
	planChar
	planString
	planBytes
	planVec
	planArray
	planPtr
	planRecord
	planUnion
	planCustom
)

// plan is the compiled codec for one Go type. Plans are immutable once
// compiled and shared between goroutines through the cache.
type plan struct {
	typ    reflect.Type
	kind   planKind
	name   string
	elem   *plan
	fields []fieldPlan // record fields, or union variants in declaration order
}

type fieldPlan struct {
	index int
	name  string
	plan  *plan
}

var (
	charType        = reflect.TypeFor[Char]()
	uint128Type     = reflect.TypeFor[Uint128]()
	int128Type      = reflect.TypeFor[Int128]()
	unionType       = reflect.TypeFor[Union]()
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

var plans sync.Map // reflect.Type -> *plan

// planFor returns the cached plan for t, compiling it on first use.
func planFor(t reflect.Type) (*plan, error) {
	if p, ok := plans.Load(t); ok {
		return p.(*plan), nil
	}
	c := &compiler{seen: make(map[reflect.Type]*plan)}
	p, err := c.compile(t)
	if err != nil {
		Logger().Debug("sirius: type has no wire mapping", zap.Stringer("type", t), zap.Error(err))
		return nil, err
	}
	if zeroCycle(p) {
		err := &UnsupportedTypeError{Type: t, Reason: "recursive without a slice or union to end it"}
		Logger().Debug("sirius: type has no wire mapping", zap.Stringer("type", t), zap.Error(err))
		return nil, err
	}
	if vp := emptyVec(p); vp != nil {
		err := &UnsupportedTypeError{Type: vp.typ, Reason: "slice elements encode to no bytes, so the count cannot be checked against the input"}
		Logger().Debug("sirius: type has no wire mapping", zap.Stringer("type", t), zap.Error(err))
		return nil, err
	}
	for st, sp := range c.seen {
		if st != t {
			plans.LoadOrStore(st, sp)
		}
	}
	actual, loaded := plans.LoadOrStore(t, p)
	if !loaded {
		Logger().Debug("sirius: compiled codec plan",
			zap.Stringer("type", t),
			zap.Int("types", len(c.seen)))
	}
	return actual.(*plan), nil
}

type compiler struct {
	seen map[reflect.Type]*plan
}

func (c *compiler) compile(t reflect.Type) (*plan, error) {
	if p, ok := c.seen[t]; ok {
		return p, nil
	}
	if p, ok := plans.Load(t); ok {
		return p.(*plan), nil
	}
	p := &plan{typ: t, name: typeName(t)}
	// Register before filling in so recursive types resolve to this plan.
	c.seen[t] = p
	if err := c.fill(p); err != nil {
		delete(c.seen, t)
		return nil, err
	}
	return p, nil
}

func (c *compiler) fill(p *plan) error {
	t := p.typ
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		pt := reflect.PointerTo(t)
		if pt.Implements(marshalerType) && pt.Implements(unmarshalerType) {
			p.kind = planCustom
			return nil
		}
	}
	switch t {
	case charType:
		p.kind = planChar
		return nil
	case uint128Type:
		p.kind = planU128
		return nil
	case int128Type:
		p.kind = planI128
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		p.kind = planBool
	case reflect.Uint8:
		p.kind = planU8
	case reflect.Uint16:
		p.kind = planU16
	case reflect.Uint32:
		p.kind = planU32
	case reflect.Uint64:
		p.kind = planU64
	case reflect.Int8:
		p.kind = planI8
	case reflect.Int16:
		p.kind = planI16
	case reflect.Int32:
		p.kind = planI32
	case reflect.Int64:
		p.kind = planI64
	case reflect.Float32:
		p.kind = planF32
	case reflect.Float64:
		p.kind = planF64
	case reflect.String:
		p.kind = planString
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return &UnsupportedTypeError{Type: t, Reason: "platform-dependent size; use a sized integer"}
	case reflect.Slice:
		elem, err := c.compile(t.Elem())
		if err != nil {
			return err
		}
		p.elem = elem
		if elem.kind == planU8 {
			p.kind = planBytes
		} else {
			p.kind = planVec
		}
	case reflect.Array:
		elem, err := c.compile(t.Elem())
		if err != nil {
			return err
		}
		p.kind = planArray
		p.elem = elem
	case reflect.Pointer:
		elem, err := c.compile(t.Elem())
		if err != nil {
			return err
		}
		p.kind = planPtr
		p.elem = elem
	case reflect.Struct:
		if isUnion(t) {
			return c.fillUnion(p)
		}
		return c.fillRecord(p)
	default:
		return &UnsupportedTypeError{Type: t}
	}
	return nil
}

// zeroCycle reports whether root reaches a plan already on the walk through
// records, arrays and pointers alone. Such a value has no finite encoding:
// nil pointers encode as the zero value and neither a slice count nor a
// union discriminant ever ends the chain.
func zeroCycle(root *plan) bool {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*plan]int)
	var walk func(p *plan) bool
	walk = func(p *plan) bool {
		switch state[p] {
		case visiting:
			return true
		case done:
			return false
		}
		state[p] = visiting
		switch p.kind {
		case planPtr:
			if walk(p.elem) {
				return true
			}
		case planArray:
			if p.typ.Len() > 0 && walk(p.elem) {
				return true
			}
		case planRecord:
			for _, f := range p.fields {
				if walk(f.plan) {
					return true
				}
			}
		}
		state[p] = done
		return false
	}
	return walk(root)
}

// emptyVec returns a slice plan reachable from root whose elements always
// encode to zero bytes, or nil if there is none.
func emptyVec(root *plan) *plan {
	seen := make(map[*plan]bool)
	empty := make(map[*plan]bool)
	var walk func(p *plan) *plan
	walk = func(p *plan) *plan {
		if seen[p] {
			return nil
		}
		seen[p] = true
		if p.kind == planVec && encodesEmpty(p.elem, empty) {
			return p
		}
		if p.elem != nil {
			if vp := walk(p.elem); vp != nil {
				return vp
			}
		}
		for _, f := range p.fields {
			if vp := walk(f.plan); vp != nil {
				return vp
			}
		}
		return nil
	}
	return walk(root)
}

// encodesEmpty reports whether every value of p encodes to zero bytes.
// Custom codecs are assumed to write something; Vec decoding checks them
// as it goes.
func encodesEmpty(p *plan, memo map[*plan]bool) bool {
	if v, ok := memo[p]; ok {
		return v
	}
	// Cycles that survive zeroCycle pass through a slice or a union, and
	// both always write bytes.
	memo[p] = false
	var v bool
	switch p.kind {
	case planPtr:
		v = encodesEmpty(p.elem, memo)
	case planArray:
		v = p.typ.Len() == 0 || encodesEmpty(p.elem, memo)
	case planRecord:
		v = true
		for _, f := range p.fields {
			if !encodesEmpty(f.plan, memo) {
				v = false
				break
			}
		}
	}
	memo[p] = v
	return v
}

func isUnion(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == unionType {
			return true
		}
	}
	return false
}

func (c *compiler) fillRecord(p *plan) error {
	p.kind = planRecord
	for _, i := range intr.Fields(p.typ) {
		sf := p.typ.Field(i)
		fp, err := c.compile(sf.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", p.name, sf.Name, err)
		}
		p.fields = append(p.fields, fieldPlan{index: i, name: sf.Name, plan: fp})
	}
	return nil
}

func (c *compiler) fillUnion(p *plan) error {
	p.kind = planUnion
	for _, i := range intr.Fields(p.typ) {
		sf := p.typ.Field(i)
		if sf.Anonymous && sf.Type == unionType {
			continue
		}
		if sf.Type.Kind() != reflect.Pointer {
			return &UnsupportedTypeError{Type: p.typ, Reason: "union variant " + sf.Name + " must be a pointer"}
		}
		fp, err := c.compile(sf.Type)
		if err != nil {
			return fmt.Errorf("variant %s.%s: %w", p.name, sf.Name, err)
		}
		p.fields = append(p.fields, fieldPlan{index: i, name: sf.Name, plan: fp})
	}
	switch {
	case len(p.fields) == 0:
		return &UnsupportedTypeError{Type: p.typ, Reason: "union declares no variants"}
	case len(p.fields) > MaxVariants:
		return &UnsupportedTypeError{
			Type:   p.typ,
			Reason: fmt.Sprintf("union declares %d variants, at most %d are allowed", len(p.fields), MaxVariants),
		}
	}
	return nil
}

func typeName(t reflect.Type) string {
	if n := t.Name(); n != "" {
		return n
	}
	return t.String()
}
