package sirius

import (
	"fmt"
	"reflect"
	"strings"
)

// ErrorKind classifies encoding/decoding errors.
type ErrorKind int

const (
	// KindNotEnoughData: the input ended before a codec could finish.
	KindNotEnoughData ErrorKind = iota + 1
	// KindOverflow: a length or count does not fit the 4-byte prefix.
	KindOverflow
	// KindParsing: bytes are present but invalid for the target type.
	KindParsing
	// KindIO: the sink rejected a write.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotEnoughData:
		return "not enough data"
	case KindOverflow:
		return "overflow"
	case KindParsing:
		return "parsing error"
	case KindIO:
		return "i/o error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error carries the kind, the type being processed and, for decode errors,
// the offset where the failing value started.
type Error struct {
	Kind     ErrorKind
	TypeName string
	Detail   string
	Offset   int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("sirius: ")
	b.WriteString(e.Kind.String())
	if e.TypeName != "" {
		b.WriteString(" [")
		b.WriteString(e.TypeName)
		b.WriteByte(']')
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " at %d", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind. If target names a type, the
// type names must match as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.TypeName == "" || t.TypeName == e.TypeName
}

// Match targets for errors.Is. Codecs never return these values directly.
var (
	ErrNotEnoughData = &Error{Kind: KindNotEnoughData}
	ErrOverflow      = &Error{Kind: KindOverflow}
	ErrParsing       = &Error{Kind: KindParsing}
	ErrIO            = &Error{Kind: KindIO}
)

// ParsingError reports bytes that are structurally present but invalid for
// typeName.
func ParsingError(typeName, format string, args ...any) *Error {
	return &Error{Kind: KindParsing, TypeName: typeName, Detail: fmt.Sprintf(format, args...)}
}

// InvalidVariant reports a union discriminant with no declared variant.
func InvalidVariant(typeName string, index uint8) *Error {
	return &Error{Kind: KindParsing, TypeName: typeName, Detail: fmt.Sprintf("invalid variant index: %d", index)}
}

func notEnoughData(typeName string, need, have int) *Error {
	return &Error{
		Kind:     KindNotEnoughData,
		TypeName: typeName,
		Detail:   fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

func overflow(typeName string, n uint64) *Error {
	return &Error{
		Kind:     KindOverflow,
		TypeName: typeName,
		Detail:   fmt.Sprintf("length %d exceeds maximum %d", n, uint64(MaxLength)),
	}
}

func ioError(typeName string, err error) *Error {
	return &Error{Kind: KindIO, TypeName: typeName, Err: err}
}

// shift moves a decode error's offset forward by off, so offsets stay
// relative to the outermost slice as composite decoders unwind. The *Error
// is copied, never updated in place: a hand-written Unmarshaler may return
// a shared value. Errors that wrap an *Error are returned unchanged.
func shift(err error, off int) error {
	if off == 0 {
		return err
	}
	e, ok := err.(*Error)
	if !ok || e == nil || e.Kind == KindIO {
		return err
	}
	c := *e
	c.Offset += off
	return &c
}

// UnsupportedTypeError is returned when a Go type has no wire mapping.
// It signals a programming error rather than bad input.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Reason == "" {
		return "sirius: unsupported type " + name
	}
	return "sirius: unsupported type " + name + ": " + e.Reason
}
