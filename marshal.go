package sirius

import (
	"io"
	"reflect"

	intr "github.com/dadrian/sirius/internal"
)

// Marshal encodes v into a new byte slice using the reflection mapping.
func Marshal(v any) ([]byte, error) {
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)
	if _, err := NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return cloneBytes(buf.Bytes()), nil
}

// Unmarshal decodes the front of data into v, which must be a non-nil
// pointer, and returns the bytes consumed. Trailing bytes are not an error;
// compare the result with len(data) to require an exact fit.
func Unmarshal(data []byte, v any) (int, error) {
	return unmarshal(data, v)
}

// Buffered encodes v with c into an owned byte slice.
func Buffered[T any](c Codec[T], v T) ([]byte, error) {
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)
	if _, err := c.Encode(buf, v); err != nil {
		return nil, err
	}
	return cloneBytes(buf.Bytes()), nil
}

// Reflect returns a Codec for T built from the reflection mapping, so types
// described only by their Go definition compose with Vec, Array and Box.
// The plan for T is compiled on first use; unsupported types report an
// *UnsupportedTypeError from every call.
func Reflect[T any]() Codec[T] {
	return reflectCodec[T]{}
}

type reflectCodec[T any] struct{}

func (reflectCodec[T]) Encode(w io.Writer, v T) (int, error) {
	p, err := planFor(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	return p.encodeValue(w, reflect.ValueOf(&v).Elem())
}

func (reflectCodec[T]) Decode(data []byte) (T, int, error) {
	var v T
	p, err := planFor(reflect.TypeFor[T]())
	if err != nil {
		return v, 0, err
	}
	n, err := p.decodeValue(data, reflect.ValueOf(&v).Elem())
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return v, n, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
