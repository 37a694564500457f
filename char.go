package sirius

import (
	"io"
	"unicode/utf8"
)

// Rune encodes a single Unicode scalar value as its canonical UTF-8 bytes
// (1 to 4 bytes) with no prefix; the UTF-8 structure delimits it.
//
// Decode reports ErrNotEnoughData, not a parsing error, when the input ends
// inside a well-formed sequence, such as a valid lead byte whose
// continuation bytes are missing. Any prefix of a valid encoding is
// therefore a truncation, as for every other codec. Bytes that can never
// start a scalar value are a parsing error.
var Rune Codec[rune] = charCodec{}

type charCodec struct{}

func (charCodec) Encode(w io.Writer, r rune) (int, error) {
	if !utf8.ValidRune(r) {
		return 0, ParsingError("char", "invalid Unicode scalar value: 0x%X", r)
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return write(w, "char", buf[:n])
}

func (charCodec) Decode(data []byte) (rune, int, error) {
	if len(data) == 0 {
		return 0, 0, notEnoughData("char", 1, 0)
	}
	limit := min(utf8.UTFMax, len(data))
	for n := 1; n <= limit; n++ {
		p := data[:n]
		if !utf8.Valid(p) {
			continue
		}
		r, size := utf8.DecodeRune(p)
		if size == n && utf8.RuneLen(r) == n {
			return r, n, nil
		}
	}
	// A well-formed lead byte whose continuation bytes are simply missing is
	// truncation, not corruption.
	if !utf8.FullRune(data[:limit]) {
		return 0, 0, notEnoughData("char", utf8.UTFMax, len(data))
	}
	return 0, 0, ParsingError("char", "invalid utf-8 sequence % x", data[:limit])
}
