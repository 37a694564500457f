package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"go.uber.org/zap/zaptest"

	"github.com/dadrian/sirius"
)

const recordHex = "0000002a000000024869000000020000000100000002"

// run executes siriusc with args, feeding stdin and returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { sirius.SetLogger(nil) })
	root := newRootCmd(&app{log: zaptest.NewLogger(t)})
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestEncode(t *testing.T) {
	out, err := run(t, `let a: u32; record { a: 42; b: "Hi"; c: vec<u32>[1, 2]; }`, "encode", "--hex")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, recordHex+"\n"))
}

func TestEncodeWithSchema(t *testing.T) {
	out, err := run(t, `record { 42; "Hi"; [1, 2]; }`,
		"encode", "--hex", "--schema", "record { a: u32, b: string, c: vec<u32> }")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, recordHex+"\n"))

	_, err = run(t, `record { 42; "Hi"; }`,
		"encode", "--schema", "record { a: u32, b: string, c: vec<u32> }")
	qt.Assert(t, qt.ErrorMatches(err, `encode: .*`))
}

func TestEncodeToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "value.srt")
	dst := filepath.Join(dir, "value.bin")
	qt.Assert(t, qt.IsNil(os.WriteFile(in, []byte(`variant<1>((u16)7)`), 0o644)))

	out, err := run(t, "", "encode", "-i", in, "-o", dst)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, ""))

	b, err := os.ReadFile(dst)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(b, []byte{0x01, 0x00, 0x07}))
}

func TestDecode(t *testing.T) {
	schema := "type Shape = union Shape { Unit, Wrapper(u16) }; vec<Shape>"
	out, err := run(t, "00000002\n00\n01 0007\n", "decode", "--hex-input", "--schema", schema)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, "vec[variant<0>, variant<1>(7u16)]\n"))
}

func TestDecodeSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.srs")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("record { a: u32, b: string, c: vec<u32> }\n"), 0o644)))

	out, err := run(t, recordHex, "decode", "--hex-input", "--schema-file", path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, "record { a: 42u32; b: \"Hi\"; c: vec<u32>[1, 2]; }\n"))
}

func TestDecodeErrors(t *testing.T) {
	_, err := run(t, "00", "decode", "--hex-input")
	qt.Assert(t, qt.ErrorMatches(err, `a schema is required.*`))

	_, err = run(t, "00", "decode", "--hex-input", "--schema", "u8", "--schema-file", "x")
	qt.Assert(t, qt.ErrorMatches(err, `--schema and --schema-file are mutually exclusive`))

	_, err = run(t, "0", "decode", "--hex-input", "--schema", "u8")
	qt.Assert(t, qt.ErrorMatches(err, `hex input: .*`))

	_, err = run(t, "0000", "decode", "--hex-input", "--schema", "u32")
	qt.Assert(t, qt.ErrorMatches(err, `decode: .*not enough data.*`))

	_, err = run(t, "fffffffe", "decode", "--hex-input", "--schema", "vec<record {}>")
	qt.Assert(t, qt.ErrorMatches(err, `schema: .*elements that encode to no bytes`))

	_, err = run(t, "00", "decode", "--hex-input", "--schema", "record { a: Missing }")
	qt.Assert(t, qt.ErrorMatches(err, `schema: .*unknown type Missing`))
}

func TestValidate(t *testing.T) {
	schema := "union Shape { Unit, Wrapper(u16) }"

	out, err := run(t, "010007", "validate", "--hex-input", "--schema", schema)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out, ""))

	_, err = run(t, "01000700", "validate", "--hex-input", "--schema", schema)
	qt.Assert(t, qt.ErrorMatches(err, `validate: 1 trailing bytes after a 3 byte value`))

	_, err = run(t, "02", "validate", "--hex-input", "--schema", schema)
	qt.Assert(t, qt.ErrorMatches(err, `validate: .*invalid variant index: 2.*`))
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "", "frobnicate")
	qt.Assert(t, qt.IsNotNil(err))
}
