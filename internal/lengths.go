package internal

// Length prefix: 4 bytes, big-endian, unsigned.
// The all-ones value 0xFFFFFFFF is never written, so MaxLen is one below it.

const (
	LenBytes = 4
	LenLimit = 1<<32 - 1
	MaxLen   = LenLimit - 1
)

// CheckLen reports whether n can be written as a length prefix.
func CheckLen(n uint64) bool {
	return n < LenLimit
}

// PutLen writes n into dst[:4]. The caller must have checked n with CheckLen.
func PutLen(dst []byte, n int) {
	PutU32(dst, uint32(n))
}

// ReadLen decodes a length prefix from src, returning the length and whether
// enough bytes were present. The result is always representable as an int on
// 64-bit platforms; on 32-bit platforms lengths beyond the int range report
// the largest int, which can never be satisfied by a real slice.
func ReadLen(src []byte) (int, bool) {
	if len(src) < LenBytes {
		return 0, false
	}
	n := uint64(U32(src))
	if n > uint64(maxInt) {
		return maxInt, true
	}
	return int(n), true
}

const maxInt = int(^uint(0) >> 1)
