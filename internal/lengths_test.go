package internal

import (
	"bytes"
	"io"
	"reflect"
	"testing"
)

func TestCheckLenBoundary(t *testing.T) {
	if !CheckLen(0) {
		t.Fatalf("0 should fit")
	}
	if !CheckLen(MaxLen) {
		t.Fatalf("MaxLen (%d) should fit", uint64(MaxLen))
	}
	if CheckLen(LenLimit) {
		t.Fatalf("LenLimit (%d) must not fit", uint64(LenLimit))
	}
	if CheckLen(1 << 40) {
		t.Fatalf("1<<40 must not fit")
	}
}

func TestPutReadLen(t *testing.T) {
	var b [4]byte
	PutLen(b[:], 0x01020304)
	if !bytes.Equal(b[:], []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("got %v", b)
	}
	n, ok := ReadLen(b[:])
	if !ok || n != 0x01020304 {
		t.Fatalf("ReadLen got (%d,%v)", n, ok)
	}
	if _, ok := ReadLen(b[:3]); ok {
		t.Fatalf("expected short read to fail")
	}
}

func TestU128(t *testing.T) {
	var b [16]byte
	PutU128(b[:], 0x0102030405060708, 0x090A0B0C0D0E0F10)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if !bytes.Equal(b[:], want) {
		t.Fatalf("got %v want %v", b, want)
	}
	hi, lo := U128(b[:])
	if hi != 0x0102030405060708 || lo != 0x090A0B0C0D0E0F10 {
		t.Fatalf("got (%x,%x)", hi, lo)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriteFull(t *testing.T) {
	var buf bytes.Buffer
	if n, err := WriteFull(&buf, []byte{1, 2, 3}); err != nil || n != 3 {
		t.Fatalf("WriteFull got (%d,%v)", n, err)
	}
	if _, err := WriteFull(shortWriter{}, []byte{1, 2, 3, 4}); err != io.ErrShortWrite {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestBufferPool(t *testing.T) {
	b := GetBuffer()
	b.WriteString("leftover")
	PutBuffer(b)
	if got := GetBuffer(); got.Len() != 0 {
		t.Fatalf("pooled buffer not reset: %q", got.String())
	}
	PutBuffer(nil)
}

func TestFields(t *testing.T) {
	type sample struct {
		A       uint32
		hidden  uint32
		Skipped string `sirius:"-"`
		_       uint8
		B       string `sirius:"b,future"`
	}
	got := Fields(reflect.TypeOf(sample{}))
	want := []int{0, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Fields got %v want %v", got, want)
	}
}
