package sirius

import (
	"io"
	"unicode/utf8"

	intr "github.com/dadrian/sirius/internal"
)

// MaxLength is the largest byte length or element count a 4-byte prefix may
// carry. Anything at or above the prefix maximum (2^32-1) is rejected with
// KindOverflow before a single byte is written.
const MaxLength = intr.MaxLen

var (
	// Bytes encodes a raw byte blob as u32 length followed by the bytes.
	// Decoded slices are copies and never alias the input.
	Bytes Codec[[]byte] = bytesCodec{}

	// String encodes UTF-8 text with the same layout as Bytes and rejects
	// invalid UTF-8 on decode.
	String Codec[string] = stringCodec{}
)

type bytesCodec struct{}

func (bytesCodec) Encode(w io.Writer, v []byte) (int, error) {
	return writePrefixed(w, "bytes", v)
}

func (bytesCodec) Decode(data []byte) ([]byte, int, error) {
	payload, n, err := readPrefixed("bytes", data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, n, nil
}

type stringCodec struct{}

func (stringCodec) Encode(w io.Writer, v string) (int, error) {
	if !intr.CheckLen(uint64(len(v))) {
		return 0, overflow("string", uint64(len(v)))
	}
	var prefix [intr.LenBytes]byte
	intr.PutLen(prefix[:], len(v))
	n, err := write(w, "string", prefix[:])
	if err != nil {
		return n, err
	}
	if len(v) == 0 {
		return n, nil
	}
	m, err := io.WriteString(w, v)
	n += m
	if err == nil && m != len(v) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, ioError("string", err)
	}
	return n, nil
}

func (stringCodec) Decode(data []byte) (string, int, error) {
	payload, n, err := readPrefixed("string", data)
	if err != nil {
		return "", 0, err
	}
	// Validate only once the whole payload is known to be present, so a
	// truncated buffer reports KindNotEnoughData rather than bad UTF-8.
	if !utf8.Valid(payload) {
		e := ParsingError("string", "invalid utf-8")
		e.Offset = intr.LenBytes
		return "", 0, e
	}
	return string(payload), n, nil
}

// writePrefixed writes len(p) as a u32 prefix followed by p.
func writePrefixed(w io.Writer, typeName string, p []byte) (int, error) {
	if !intr.CheckLen(uint64(len(p))) {
		return 0, overflow(typeName, uint64(len(p)))
	}
	var prefix [intr.LenBytes]byte
	intr.PutLen(prefix[:], len(p))
	n, err := write(w, typeName, prefix[:])
	if err != nil || len(p) == 0 {
		return n, err
	}
	m, err := write(w, typeName, p)
	return n + m, err
}

// readPrefixed returns the payload following a u32 length prefix, borrowed
// from data, and the total bytes consumed.
func readPrefixed(typeName string, data []byte) ([]byte, int, error) {
	n, ok := intr.ReadLen(data)
	if !ok {
		return nil, 0, notEnoughData(typeName, intr.LenBytes, len(data))
	}
	rest := data[intr.LenBytes:]
	if n > len(rest) {
		e := notEnoughData(typeName, n, len(rest))
		e.Offset = intr.LenBytes
		return nil, 0, e
	}
	return rest[:n], intr.LenBytes + n, nil
}
