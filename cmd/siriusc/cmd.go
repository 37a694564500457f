package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dadrian/sirius"
	"github.com/dadrian/sirius/textrep"
)

// app carries state shared by every subcommand.
type app struct {
	log     *zap.Logger
	verbose bool
}

// setup builds the logger unless one was supplied and hands it to the
// library as well.
func (a *app) setup() error {
	if a.log == nil {
		cfg := zap.NewProductionConfig()
		if a.verbose {
			cfg = zap.NewDevelopmentConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		a.log = l
	}
	sirius.SetLogger(a.log)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "siriusc",
		Short: "convert between textrep values and sirius bytes",
		Long: `Siriusc encodes textrep documents to the sirius wire format, renders
sirius bytes back as text given a schema, and checks that bytes match a schema.
`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.AddCommand(newEncodeCmd(a), newDecodeCmd(a), newValidateCmd(a))
	return root
}

// ioFlags are the input, output and schema flags the subcommands share.
type ioFlags struct {
	in         string
	out        string
	hex        bool
	hexInput   bool
	schema     string
	schemaFile string
}

func (f *ioFlags) addInput(fs *pflag.FlagSet) {
	fs.StringVarP(&f.in, "in", "i", "-", "input file, or - for stdin")
}

func (f *ioFlags) addOutput(fs *pflag.FlagSet) {
	fs.StringVarP(&f.out, "out", "o", "-", "output file, or - for stdout")
}

func (f *ioFlags) addSchema(fs *pflag.FlagSet) {
	fs.StringVar(&f.schema, "schema", "", "schema source text")
	fs.StringVar(&f.schemaFile, "schema-file", "", "file holding the schema")
}

func newEncodeCmd(a *app) *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode a textrep document to sirius bytes",
		Long: `Encode parses a textrep document and writes its sirius encoding.

With a schema, the document is a single value checked against it, and integer
literals need no type suffix. Output is hex encoded when --hex is given or
when writing to a terminal.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := f.read(cmd)
			if err != nil {
				return err
			}
			schema, err := f.loadSchema()
			if err != nil {
				return err
			}
			var out []byte
			if schema != nil {
				var buf bytes.Buffer
				if _, err := schema.Codec().Encode(&buf, string(src)); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
				out = buf.Bytes()
			} else if out, err = textrep.EncodeBytes(src); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			a.log.Debug("encoded value", zap.Int("bytes", len(out)))
			return f.write(cmd, out)
		},
	}
	f.addInput(cmd.Flags())
	f.addOutput(cmd.Flags())
	f.addSchema(cmd.Flags())
	cmd.Flags().BoolVar(&f.hex, "hex", false, "write hex instead of raw bytes")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "render sirius bytes as text using a schema",
		Long: `Decode reads one value laid out as the schema and prints it in the textrep
syntax. The output encodes back to the same bytes.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, data, err := f.schemaAndData(cmd)
			if err != nil {
				return err
			}
			text, n, err := textrep.Decode(schema, data)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if n < len(data) {
				a.log.Warn("trailing bytes after value", zap.Int("consumed", n), zap.Int("trailing", len(data)-n))
			}
			return f.writeText(cmd, text+"\n")
		},
	}
	f.addInput(cmd.Flags())
	f.addOutput(cmd.Flags())
	f.addSchema(cmd.Flags())
	cmd.Flags().BoolVar(&f.hexInput, "hex-input", false, "input is hex text; whitespace is ignored")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check that sirius bytes hold exactly one value of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, data, err := f.schemaAndData(cmd)
			if err != nil {
				return err
			}
			_, n, err := textrep.Decode(schema, data)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if n != len(data) {
				return fmt.Errorf("validate: %d trailing bytes after a %d byte value", len(data)-n, n)
			}
			a.log.Debug("input is valid", zap.Int("bytes", n))
			return nil
		},
	}
	f.addInput(cmd.Flags())
	f.addSchema(cmd.Flags())
	cmd.Flags().BoolVar(&f.hexInput, "hex-input", false, "input is hex text; whitespace is ignored")
	return cmd
}

func (f *ioFlags) read(cmd *cobra.Command) ([]byte, error) {
	if f.in == "" || f.in == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(f.in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

// readData reads the input as bytes, decoding it from hex with --hex-input.
func (f *ioFlags) readData(cmd *cobra.Command) ([]byte, error) {
	b, err := f.read(cmd)
	if err != nil || !f.hexInput {
		return b, err
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(string(b)), ""))
	if err != nil {
		return nil, fmt.Errorf("hex input: %w", err)
	}
	return data, nil
}

// loadSchema returns nil when neither schema flag is set.
func (f *ioFlags) loadSchema() (*textrep.Type, error) {
	src := []byte(f.schema)
	switch {
	case f.schema != "" && f.schemaFile != "":
		return nil, errors.New("--schema and --schema-file are mutually exclusive")
	case f.schemaFile != "":
		b, err := os.ReadFile(f.schemaFile)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		src = b
	case f.schema == "":
		return nil, nil
	}
	t, err := textrep.ParseSchema(src)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return t, nil
}

func (f *ioFlags) schemaAndData(cmd *cobra.Command) (*textrep.Type, []byte, error) {
	schema, err := f.loadSchema()
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		return nil, nil, errors.New("a schema is required: use --schema or --schema-file")
	}
	data, err := f.readData(cmd)
	if err != nil {
		return nil, nil, err
	}
	return schema, data, nil
}

// write writes encoded bytes, as hex with --hex or when the destination is
// a terminal.
func (f *ioFlags) write(cmd *cobra.Command, b []byte) error {
	return f.output(cmd, func(w io.Writer) error {
		if f.hex || isTerminal(w) {
			_, err := io.WriteString(w, hex.EncodeToString(b)+"\n")
			return err
		}
		_, err := w.Write(b)
		return err
	})
}

func (f *ioFlags) writeText(cmd *cobra.Command, s string) error {
	return f.output(cmd, func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func (f *ioFlags) output(cmd *cobra.Command, emit func(io.Writer) error) (err error) {
	if f.out == "" || f.out == "-" {
		if err := emit(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		return nil
	}
	file, err := os.Create(f.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	if err := emit(file); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
