package internal

import (
	"encoding/binary"
	"io"
)

var be = binary.BigEndian

func PutU16(b []byte, v uint16) { be.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { be.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { be.PutUint64(b, v) }

// PutU128 writes hi then lo, each big-endian. b must hold 16 bytes.
func PutU128(b []byte, hi, lo uint64) {
	be.PutUint64(b[:8], hi)
	be.PutUint64(b[8:16], lo)
}

func U16(b []byte) uint16 { return be.Uint16(b) }
func U32(b []byte) uint32 { return be.Uint32(b) }
func U64(b []byte) uint64 { return be.Uint64(b) }

func U128(b []byte) (hi, lo uint64) {
	return be.Uint64(b[:8]), be.Uint64(b[8:16])
}

// WriteFull writes all of p to w. A writer that reports success without
// consuming every byte is treated as io.ErrShortWrite.
func WriteFull(w io.Writer, p []byte) (int, error) {
	n, err := w.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}
