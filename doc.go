// Package sirius implements a compact, big-endian binary encoding for Go
// values. The encoding carries no field names and no type tags: the reader
// must know the static type it is decoding.
//
// Wire format (all integers big-endian):
//
//	fixed-width scalar    sizeof(T) bytes
//	string, []byte        u32 length | bytes
//	Char                  1-4 UTF-8 bytes
//	[]T                   u32 count | elem0 | elem1 | ...
//	[N]T                  elem0 | ... | elemN-1
//	struct                fields in declaration order
//	union                 u8 variant index | variant payload
//	*T                    same as T
//
// Every type has a Codec: a pair of stateless functions that write a value to
// an io.Writer and read one back from the front of a byte slice, reporting the
// bytes consumed. Codecs for primitives are package variables (U32, String,
// Rune, ...); Vec, Array and Box build codecs for sequences and pointers.
// User-defined records and unions either implement Marshaler and Unmarshaler
// (by hand, with RecordEncoder and RecordDecoder, or through a generator) or
// rely on the reflection mapping used by Marshal, Unmarshal and Reflect.
//
// Decoding never panics on malformed input. Every failure is an *Error whose
// Kind is one of KindNotEnoughData, KindOverflow, KindParsing or KindIO, and
// can be matched with errors.Is against ErrNotEnoughData and friends.
package sirius
