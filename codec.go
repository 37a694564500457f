package sirius

import (
	"io"

	intr "github.com/dadrian/sirius/internal"
)

// Codec is the paired encode/decode behavior for values of type T.
//
// Encode writes v to w and returns the number of bytes written. Decode reads
// one value from the front of data and returns it with the number of bytes
// consumed, so callers can advance an offset and hand the rest of the slice
// to the next codec. Codecs hold no state and are safe for concurrent use;
// w must not be written by anyone else for the duration of one Encode call.
type Codec[T any] interface {
	Encode(w io.Writer, v T) (int, error)
	Decode(data []byte) (T, int, error)
}

// Marshaler is implemented by user-defined records and unions that write
// their own encoding, typically produced by a code generator.
type Marshaler interface {
	MarshalSirius(w io.Writer) (int, error)
}

// Unmarshaler is the decoding half of Marshaler. UnmarshalSirius decodes the
// front of data into the receiver and returns the bytes consumed.
type Unmarshaler interface {
	UnmarshalSirius(data []byte) (int, error)
}

// CompositePtr constrains P to a pointer to T that implements both halves.
type CompositePtr[T any] interface {
	*T
	Marshaler
	Unmarshaler
}

// Composite returns a Codec for a user-defined type whose pointer implements
// Marshaler and Unmarshaler.
//
//	var pointList = sirius.Vec(sirius.Composite[Point]())
func Composite[T any, P CompositePtr[T]]() Codec[T] {
	return compositeCodec[T, P]{}
}

type compositeCodec[T any, P CompositePtr[T]] struct{}

func (compositeCodec[T, P]) Encode(w io.Writer, v T) (int, error) {
	return P(&v).MarshalSirius(w)
}

func (compositeCodec[T, P]) Decode(data []byte) (T, int, error) {
	var v T
	n, err := P(&v).UnmarshalSirius(data)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return v, n, nil
}

// write sends p to w, wrapping sink failures as KindIO.
func write(w io.Writer, typeName string, p []byte) (int, error) {
	n, err := intr.WriteFull(w, p)
	if err != nil {
		return n, ioError(typeName, err)
	}
	return n, nil
}
