package sirius

import (
	"fmt"
	"io"

	intr "github.com/dadrian/sirius/internal"
)

// Vec returns a codec for a dynamically sized sequence: a u32 element count
// followed by each element in order.
func Vec[T any](elem Codec[T]) Codec[[]T] {
	return vecCodec[T]{elem: elem}
}

type vecCodec[T any] struct {
	elem Codec[T]
}

func (c vecCodec[T]) Encode(w io.Writer, v []T) (int, error) {
	if !intr.CheckLen(uint64(len(v))) {
		return 0, overflow("vec", uint64(len(v)))
	}
	var prefix [intr.LenBytes]byte
	intr.PutLen(prefix[:], len(v))
	n, err := write(w, "vec", prefix[:])
	if err != nil {
		return n, err
	}
	for i := range v {
		m, err := c.elem.Encode(w, v[i])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c vecCodec[T]) Decode(data []byte) ([]T, int, error) {
	count, ok := intr.ReadLen(data)
	if !ok {
		return nil, 0, notEnoughData("vec", intr.LenBytes, len(data))
	}
	off := intr.LenBytes
	// The count is untrusted: never reserve more slots than there are bytes
	// left to fill them.
	out := make([]T, 0, min(count, len(data)-off))
	for i := 0; i < count; i++ {
		v, n, err := c.elem.Decode(data[off:])
		if err != nil {
			return nil, 0, shift(err, off)
		}
		out = append(out, v)
		off += n
		if err := checkProgress("vec", n, count-i-1, len(data)-off); err != nil {
			return nil, 0, err
		}
	}
	return out, off, nil
}

// checkProgress stops a count from growing a sequence past the input. An
// element that consumed no bytes is only accepted while the elements still
// owed fit in the bytes left, one byte each.
func checkProgress(typeName string, n, owed, left int) error {
	if n == 0 && owed > left {
		return ParsingError(typeName, "count claims %d more empty elements with %d bytes left", owed, left)
	}
	return nil
}

// Array returns a codec for a sequence whose length n is fixed by the type.
// No prefix is written; encoding a slice of any other length fails before
// writing anything.
func Array[T any](elem Codec[T], n int) Codec[[]T] {
	if n < 0 {
		panic("sirius: negative array length")
	}
	return arrayCodec[T]{elem: elem, n: n}
}

type arrayCodec[T any] struct {
	elem Codec[T]
	n    int
}

func (c arrayCodec[T]) name() string {
	var zero T
	return fmt.Sprintf("[%d]%T", c.n, zero)
}

func (c arrayCodec[T]) Encode(w io.Writer, v []T) (int, error) {
	if len(v) != c.n {
		return 0, ParsingError(c.name(), "array has %d elements, want %d", len(v), c.n)
	}
	var n int
	for i := range v {
		m, err := c.elem.Encode(w, v[i])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c arrayCodec[T]) Decode(data []byte) ([]T, int, error) {
	out := make([]T, c.n)
	off := 0
	for i := range out {
		v, n, err := c.elem.Decode(data[off:])
		if err != nil {
			return nil, 0, shift(err, off)
		}
		out[i] = v
		off += n
	}
	return out, off, nil
}

// Box returns a codec for *T that is byte-for-byte identical to elem. A nil
// pointer encodes as the zero value of T.
func Box[T any](elem Codec[T]) Codec[*T] {
	return boxCodec[T]{elem: elem}
}

type boxCodec[T any] struct {
	elem Codec[T]
}

func (c boxCodec[T]) Encode(w io.Writer, v *T) (int, error) {
	if v == nil {
		var zero T
		return c.elem.Encode(w, zero)
	}
	return c.elem.Encode(w, *v)
}

func (c boxCodec[T]) Decode(data []byte) (*T, int, error) {
	v, n, err := c.elem.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return &v, n, nil
}
