package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/danmuck/structwire/internal/config"
	"github.com/danmuck/structwire/internal/export"
	"github.com/danmuck/structwire/internal/protocol"
	"github.com/danmuck/structwire/internal/protocol/frame"
	"github.com/danmuck/structwire/internal/protocol/schema"
)

// inspectHexLimit caps how many value bytes inspect prints per record.
const inspectHexLimit = 32

// errHelp stops a command after its flag help was printed.
var errHelp = errors.New("help requested")

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}

func helpOK(err error) error {
	if errors.Is(err, errHelp) {
		return nil
	}
	return err
}

func runEncode(args []string, stdout io.Writer) error {
	fs := newFlagSet("encode", stdout)
	input := fs.StringP("input", "i", "", "document path (.toml, .yaml or .yml)")
	output := fs.StringP("output", "o", "-", "output path, - for stdout")
	framed := fs.Bool("framed", false, "wrap the buffer in a record frame")
	appendOut := fs.Bool("append", false, "append to the output file (requires --framed)")
	verify := fs.Bool("verify", true, "verify the buffer before framing")
	if err := parseFlags(fs, args); err != nil {
		return helpOK(err)
	}
	if *input == "" {
		return errors.New("encode: --input is required")
	}
	if *appendOut && !*framed {
		return errors.New("encode: --append requires --framed")
	}

	doc, err := config.LoadDocument(*input)
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.Name, err)
	}

	return withOutput(*output, *appendOut, stdout, func(w io.Writer) error {
		if *framed {
			return frame.WriteFrame(w, data, *verify, frame.DefaultLimits())
		}
		_, err := w.Write(data)
		return err
	}, func() {
		log.Info().Str("struct", doc.Name).Int("bytes", len(data)).Bool("framed", *framed).Str("output", *output).Msg("encoded")
	})
}

func runDecode(args []string, stdout io.Writer) error {
	fs := newFlagSet("decode", stdout)
	schemaPath := fs.StringP("schema", "s", "", "schema document path")
	input := fs.StringP("input", "i", "-", "buffer path, - for stdin")
	formatRaw := fs.String("format", "json", "output format: json|yaml")
	framed := fs.Bool("framed", false, "input is a stream of record frames")
	if err := parseFlags(fs, args); err != nil {
		return helpOK(err)
	}
	format, err := export.ParseFormat(*formatRaw)
	if err != nil {
		return err
	}
	if format == export.CBOR {
		return errors.New("decode: cbor output is binary, use convert")
	}
	return decodeTo(stdout, *schemaPath, *input, *framed, format)
}

func runConvert(args []string, stdout io.Writer) error {
	fs := newFlagSet("convert", stdout)
	schemaPath := fs.StringP("schema", "s", "", "schema document path")
	input := fs.StringP("input", "i", "-", "buffer path, - for stdin")
	to := fs.String("to", "json", "target format: json|yaml|cbor")
	output := fs.StringP("output", "o", "-", "output path, - for stdout")
	framed := fs.Bool("framed", false, "input is a stream of record frames")
	if err := parseFlags(fs, args); err != nil {
		return helpOK(err)
	}
	format, err := export.ParseFormat(*to)
	if err != nil {
		return err
	}
	return withOutput(*output, false, stdout, func(w io.Writer) error {
		return decodeTo(w, *schemaPath, *input, *framed, format)
	}, func() {
		log.Info().Str("format", string(format)).Str("output", *output).Msg("converted")
	})
}

func decodeTo(w io.Writer, schemaPath, input string, framed bool, format export.Format) error {
	if schemaPath == "" {
		return errors.New("--schema is required")
	}
	doc, err := config.LoadDocument(schemaPath)
	if err != nil {
		return err
	}
	s, err := doc.Schema()
	if err != nil {
		return err
	}
	buffers, err := readBuffers(input, framed)
	if err != nil {
		return err
	}
	out, err := export.NewWriter(w, format)
	if err != nil {
		return err
	}
	for i, data := range buffers {
		rec, err := schema.Decode(s, data)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		if err := out.Write(rec); err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
	}
	return out.Close()
}

func runInspect(args []string, stdout io.Writer) error {
	fs := newFlagSet("inspect", stdout)
	input := fs.StringP("input", "i", "-", "buffer path, - for stdin")
	framed := fs.Bool("framed", false, "input is a stream of record frames")
	if err := parseFlags(fs, args); err != nil {
		return helpOK(err)
	}
	buffers, err := readBuffers(*input, *framed)
	if err != nil {
		return err
	}
	var firstErr error
	for i, data := range buffers {
		if *framed {
			fmt.Fprintf(stdout, "frame %d (%d bytes)\n", i, len(data))
		}
		if err := inspectBuffer(stdout, data); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("buffer %d: %w", i, err)
		}
	}
	return firstErr
}

// inspectBuffer prints as much of data as can be read and returns the
// Verify result.
func inspectBuffer(w io.Writer, data []byte) error {
	verifyErr := protocol.NewParser(data).Verify()
	report := func() error {
		if verifyErr != nil {
			fmt.Fprintf(w, "verify: %v\n", verifyErr)
			return verifyErr
		}
		fmt.Fprintln(w, "verify: ok")
		return nil
	}

	offset := 0
	count, err := protocol.ReadFieldCount(data, &offset)
	if err != nil {
		fmt.Fprintf(w, "header: %v\n", err)
		return report()
	}
	fmt.Fprintf(w, "field count: %d\n", count)
	name, err := protocol.ReadStructName(data, &offset)
	if err != nil {
		fmt.Fprintf(w, "struct name: %v\n", err)
		return report()
	}
	fmt.Fprintf(w, "struct: %s\n", name)
	if err := protocol.EnsureSeparator(data, &offset); err != nil {
		fmt.Fprintf(w, "separator: %v\n", err)
		return report()
	}
	fmt.Fprintln(w, "separator: ok")

	for i := 0; offset < len(data); i++ {
		at := offset
		fname, raw, err := protocol.ReadRawField(data, &offset)
		if err != nil {
			fmt.Fprintf(w, "  [%d] @%d: %v\n", i, at, err)
			break
		}
		fmt.Fprintf(w, "  [%d] @%d %s (%d bytes) %s\n", i, at, fname, len(raw), hexPreview(raw))
	}
	return report()
}

func hexPreview(raw []byte) string {
	if len(raw) <= inspectHexLimit {
		return hex.EncodeToString(raw)
	}
	return hex.EncodeToString(raw[:inspectHexLimit]) + "..."
}

func runTemplate(args []string, stdout io.Writer) error {
	fs := newFlagSet("template", stdout)
	output := fs.StringP("output", "o", "doc.toml", "output path; .yaml or .yml writes YAML")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := parseFlags(fs, args); err != nil {
		return helpOK(err)
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Info().Str("output", *output).Msg("wrote template")
	return nil
}

// readBuffers returns the wire buffers stored at path. A framed file may
// hold any number of buffers; an unframed file holds exactly one.
func readBuffers(path string, framed bool) ([][]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input (%s): %w", path, err)
	}
	if !framed {
		return [][]byte{data}, nil
	}
	frames, err := frame.ReadAll(bytes.NewReader(data), frame.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("read frames (%s): %w", path, err)
	}
	out := make([][]byte, len(frames))
	for i, f := range frames {
		out[i] = f.Payload
	}
	log.Debug().Str("path", path).Int("frames", len(out)).Msg("read frames")
	return out, nil
}

// withOutput runs write against path, or stdout for "-", and calls done
// once everything is flushed. Outside append mode the output goes to a
// temporary file that replaces path only after write succeeds, so a failed
// run leaves an existing file untouched.
func withOutput(path string, appendMode bool, stdout io.Writer, write func(io.Writer) error, done func()) error {
	if path == "-" {
		if err := write(stdout); err != nil {
			return err
		}
		done()
		return nil
	}
	if appendMode {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open output (%s): %w", path, err)
		}
		if err := write(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output (%s): %w", path, err)
		}
		done()
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("open output (%s): %w", path, err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("chmod output (%s): %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close output (%s): %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace output (%s): %w", path, err)
	}
	done()
	return nil
}
