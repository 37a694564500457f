package sirius

import (
	"fmt"
	"io"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

type person struct {
	Name           string
	Age            uint8
	KnownLanguages []string
}

func (p *person) MarshalSirius(w io.Writer) (int, error) {
	e := NewRecordEncoder(w)
	EncodeField(e, String, p.Name)
	EncodeField(e, U8, p.Age)
	EncodeField(e, languages, p.KnownLanguages)
	return e.Result()
}

func (p *person) UnmarshalSirius(data []byte) (int, error) {
	d := NewRecordDecoder(data)
	v := person{
		Name:           DecodeField(d, String),
		Age:            DecodeField(d, U8),
		KnownLanguages: DecodeField(d, languages),
	}
	n, err := d.Result()
	if err != nil {
		return 0, err
	}
	*p = v
	return n, nil
}

var (
	languages = Vec(String)
	people    = Vec(Composite[person]())
)

// reflectPerson has the same layout as person but goes through the
// reflection mapping.
type reflectPerson struct {
	Name           string
	Age            uint8
	KnownLanguages []string
}

func makeDataset(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{
			Name:           fmt.Sprintf("person-%d", i),
			Age:            uint8(i % 100),
			KnownLanguages: []string{"Go", "Rust", "English"}[:1+i%3],
		}
	}
	return out
}

func TestDatasetRoundTrip(t *testing.T) {
	data := makeDataset(50)
	b, err := Buffered(people, data)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, n, err := people.Decode(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if n != len(b) || len(got) != len(data) {
		t.Fatalf("decoded %d people from %d bytes, want %d from %d", len(got), n, len(data), len(b))
	}

	// The reflection mapping produces the same bytes as the hand-written one.
	mirror := make([]reflectPerson, len(data))
	for i, p := range data {
		mirror[i] = reflectPerson(p)
	}
	rb, err := Marshal(mirror)
	if err != nil {
		t.Fatalf("reflect encode failed: %v", err)
	}
	if string(rb) != string(b) {
		t.Fatalf("reflection and composite encodings differ")
	}
}

func BenchmarkEncodeU32(b *testing.B) {
	for b.Loop() {
		_, _ = Buffered(U32, 123456)
	}
}

func BenchmarkDecodeU32(b *testing.B) {
	buf, _ := Buffered(U32, 123456)
	for b.Loop() {
		_, _, _ = U32.Decode(buf)
	}
}

func BenchmarkEncodeString(b *testing.B) {
	for b.Loop() {
		_, _ = Buffered(String, "abcdefghijklmnop")
	}
}

func BenchmarkDecodeString(b *testing.B) {
	buf, _ := Buffered(String, "abcdefghijklmnop")
	for b.Loop() {
		_, _, _ = String.Decode(buf)
	}
}

func BenchmarkEncodeVecU32(b *testing.B) {
	v := make([]uint32, 100)
	for i := range v {
		v[i] = uint32(i)
	}
	c := Vec(U32)
	for b.Loop() {
		_, _ = Buffered(c, v)
	}
}

func BenchmarkDecodeVecU32(b *testing.B) {
	v := make([]uint32, 100)
	for i := range v {
		v[i] = uint32(i)
	}
	c := Vec(U32)
	buf, _ := Buffered(c, v)
	for b.Loop() {
		_, _, _ = c.Decode(buf)
	}
}

func BenchmarkDataset(b *testing.B) {
	for _, n := range []int{10, 1000} {
		data := makeDataset(n)
		mirror := make([]reflectPerson, n)
		for i, p := range data {
			mirror[i] = reflectPerson(p)
		}

		b.Run(fmt.Sprintf("composite/encode/%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := Buffered(people, data); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("composite/decode/%d", n), func(b *testing.B) {
			buf, _ := Buffered(people, data)
			b.SetBytes(int64(len(buf)))
			for b.Loop() {
				if _, _, err := people.Decode(buf); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("reflect/encode/%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := Marshal(mirror); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("reflect/decode/%d", n), func(b *testing.B) {
			buf, _ := Marshal(mirror)
			b.SetBytes(int64(len(buf)))
			for b.Loop() {
				var out []reflectPerson
				if _, err := Unmarshal(buf, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("cbor/encode/%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := cbor.Marshal(mirror); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("cbor/decode/%d", n), func(b *testing.B) {
			buf, _ := cbor.Marshal(mirror)
			b.SetBytes(int64(len(buf)))
			for b.Loop() {
				var out []reflectPerson
				if err := cbor.Unmarshal(buf, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
