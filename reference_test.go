package sirius

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

// assertRoundtrip decodes the provided bytes into a value of the same
// dynamic type as expected, and then re-encodes it. It expects both
// operations to succeed, consume every byte and match the expected
// structures and bytes.
func assertRoundtrip(t *testing.T, expected any, b []byte) {
	t.Helper()

	// Decode
	dstPtr := reflect.New(reflect.TypeOf(expected))
	n, err := Unmarshal(b, dstPtr.Interface())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if n != len(b) {
		t.Fatalf("decode consumed %d bytes, want %d", n, len(b))
	}
	got := reflect.Indirect(dstPtr).Interface()
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("decoded value mismatch (want, got):\n%s", strings.Join(pretty.Diff(expected, got), "\n"))
	}

	// Encode
	enc, err := Marshal(expected)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(enc, b) {
		t.Fatalf("encoded bytes mismatch:\n got: % x\nwant: % x", enc, b)
	}
}

func ptr[T any](v T) *T { return &v }

func Test_SimpleStruct(t *testing.T) {
	type Simple struct {
		Value uint32
	}
	assertRoundtrip(t, Simple{Value: 42}, []byte{0x00, 0x00, 0x00, 0x2A})
}

func Test_RecordFieldsInOrder(t *testing.T) {
	type Record struct {
		A uint32
		B string
		C []uint32
	}
	assertRoundtrip(t, Record{A: 42, B: "Hi", C: []uint32{1, 2}}, []byte{
		0x00, 0x00, 0x00, 0x2A,
		0x00, 0x00, 0x00, 0x02, 0x48, 0x69,
		0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02,
	})
}

func Test_StructWithRunes(t *testing.T) {
	// rune fields are plain 32-bit integers; only Char uses UTF-8.
	type TestStruct struct {
		A uint32
		B string
		C []rune
	}
	want := []byte{
		0, 0, 0, 42,
		0, 0, 0, 13,
		72, 101, 108, 108, 111, 44, 32, 119, 111, 114, 108, 100, 33,
		0, 0, 0, 5,
		0, 0, 0, 72,
		0, 0, 0, 101,
		0, 0, 0, 108,
		0, 0, 0, 108,
		0, 0, 0, 111,
	}
	assertRoundtrip(t, TestStruct{A: 42, B: "Hello, world!", C: []rune("Hello")}, want)
}

func Test_StructWithChars(t *testing.T) {
	type Glyphs struct {
		C []Char
	}
	assertRoundtrip(t, Glyphs{C: []Char{'A', 'é', '😀'}}, []byte{
		0x00, 0x00, 0x00, 0x03,
		0x41,
		0xC3, 0xA9,
		0xF0, 0x9F, 0x98, 0x80,
	})
}

func Test_SkipField(t *testing.T) {
	type WithSkip struct {
		Included uint32
		Skipped  string `sirius:"-"`
	}
	// The skipped field is not serialized; only Included appears.
	assertRoundtrip(t, WithSkip{Included: 42}, []byte{0x00, 0x00, 0x00, 0x2A})
}

func Test_SkipField_PreserveExisting(t *testing.T) {
	type WithSkip struct {
		Included uint32
		Skipped  string `sirius:"-"`
	}
	v := WithSkip{Skipped: "preserve me"}
	data := []byte{0x00, 0x00, 0x00, 0x2A}
	if _, err := Unmarshal(data, &v); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v.Included != 42 {
		t.Fatalf("Included mismatch: got %v want 42", v.Included)
	}
	if v.Skipped != "preserve me" {
		t.Fatalf("Skipped was modified: got %q want %q", v.Skipped, "preserve me")
	}
}

func Test_FailedDecodeLeavesTarget(t *testing.T) {
	type Pair struct {
		A uint32
		B uint32
	}
	v := Pair{A: 1, B: 2}
	if _, err := Unmarshal([]byte{0, 0, 0, 9, 0, 0}, &v); !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected not enough data, got %v", err)
	}
	if v != (Pair{A: 1, B: 2}) {
		t.Fatalf("target modified on failure: %+v", v)
	}
}

func Test_EmptyStruct(t *testing.T) {
	type Empty struct{}
	assertRoundtrip(t, Empty{}, []byte{})
}

func Test_TrailingBytesNotConsumed(t *testing.T) {
	type Partial struct {
		A uint32
	}
	data := []byte{0x00, 0x00, 0x00, 0x2A, 0xFF, 0xFF}
	var got Partial
	n, err := Unmarshal(data, &got)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.A != 42 || n != 4 {
		t.Fatalf("unexpected result: %+v, %d bytes", got, n)
	}
}

func Test_NestedStructs(t *testing.T) {
	type Inner struct {
		Value uint32
	}
	type Outer struct {
		Inner Inner
		Other uint32
	}
	assertRoundtrip(t, Outer{Inner: Inner{Value: 10}, Other: 20}, []byte{
		0x00, 0x00, 0x00, 0x0A, 0x00, 0x00, 0x00, 0x14,
	})
}

func Test_PointerIsTransparent(t *testing.T) {
	type Boxed struct {
		P *uint16
		S *string
	}
	assertRoundtrip(t, Boxed{P: ptr(uint16(7)), S: ptr("x")}, []byte{
		0x00, 0x07, 0x00, 0x00, 0x00, 0x01, 'x',
	})
}

type Named struct {
	X uint32
}

type Shape struct {
	Union
	Unit    *struct{}
	Wrapper *uint16
	Named   *Named
}

func Test_SimpleUnion(t *testing.T) {
	assertRoundtrip(t, Shape{Wrapper: ptr(uint16(7))}, []byte{0x01, 0x00, 0x07})
	assertRoundtrip(t, Shape{Unit: &struct{}{}}, []byte{0x00})
	assertRoundtrip(t, Shape{Named: &Named{X: 5}}, []byte{0x02, 0x00, 0x00, 0x00, 0x05})
}

func Test_UnionDecodeClearsOtherVariants(t *testing.T) {
	v := Shape{Unit: &struct{}{}}
	if _, err := Unmarshal([]byte{0x01, 0x00, 0x07}, &v); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v.Unit != nil || v.Named != nil || v.Wrapper == nil || *v.Wrapper != 7 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func Test_UnionSequence(t *testing.T) {
	type VariantA struct {
		X uint32
		Y string
	}
	type TestEnum struct {
		Union
		VariantA *VariantA
		VariantB *uint16
		VariantC *struct{}
	}
	values := []TestEnum{
		{VariantA: &VariantA{X: 10, Y: "Hello"}},
		{VariantB: ptr(uint16(42))},
		{VariantC: &struct{}{}},
	}
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, v := range values {
		if _, err := enc.Encode(v); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}
	want := []byte{
		0,
		0, 0, 0, 10,
		0, 0, 0, 5,
		72, 101, 108, 108, 111,

		1,
		0, 42,

		2,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("encoded bytes mismatch:\n got: % x\nwant: % x", buf.Bytes(), want)
	}
	if enc.Written() != int64(len(want)) {
		t.Fatalf("Written() = %d, want %d", enc.Written(), len(want))
	}

	dec := NewDecoder(buf.Bytes())
	for i, want := range values {
		var got TestEnum
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("decode %d failed: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("value %d mismatch:\n got: %#v\nwant: %#v", i, got, want)
		}
	}
	if dec.More() || dec.Offset() != len(want) {
		t.Fatalf("decoder stopped at %d of %d", dec.Offset(), len(want))
	}
}

func Test_UnionUnknownVariant(t *testing.T) {
	var got Shape
	_, err := Unmarshal([]byte{0x03, 0x00, 0x00, 0x00, 0x05}, &got)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindParsing {
		t.Fatalf("expected parsing error, got %v", err)
	}
	if e.Detail != "invalid variant index: 3" || e.TypeName != "Shape" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_UnionNeedsExactlyOneVariant(t *testing.T) {
	if _, err := Marshal(Shape{}); !errors.Is(err, ErrParsing) {
		t.Fatalf("expected error for empty union, got %v", err)
	}
	_, err := Marshal(Shape{Unit: &struct{}{}, Wrapper: ptr(uint16(1))})
	if !errors.Is(err, ErrParsing) {
		t.Fatalf("expected error for two variants, got %v", err)
	}
}

func Test_DecoderOffsetsErrors(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x09, 'a'}
	dec := NewDecoder(data)
	var a uint32
	if err := dec.Decode(&a); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	var s string
	err := dec.Decode(&s)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindNotEnoughData {
		t.Fatalf("expected not enough data, got %v", err)
	}
	// prefix starts at 4, payload at 8
	if e.Offset != 8 {
		t.Fatalf("offset = %d, want 8", e.Offset)
	}
	if dec.Offset() != 4 {
		t.Fatalf("decoder advanced on failure: %d", dec.Offset())
	}
}
