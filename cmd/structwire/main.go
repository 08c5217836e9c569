// structwire encodes, decodes and inspects named-struct wire buffers.
//
//	structwire encode   -i doc.toml -o out.bin [--framed] [--append]
//	structwire decode   -s schema.toml -i in.bin [--format json|yaml] [--framed]
//	structwire inspect  -i in.bin [--framed]
//	structwire convert  -s schema.toml -i in.bin --to json|yaml|cbor -o out
//	structwire template -o doc.toml [--force]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/structwire/internal/logging"
)

type command struct {
	name    string
	summary string
	run     func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"encode", "build a wire buffer from a TOML or YAML document", runEncode},
	{"decode", "decode a buffer against a schema and print it", runDecode},
	{"inspect", "dump the header and raw records of a buffer", runInspect},
	{"convert", "decode a buffer and write it as json, yaml or cbor", runConvert},
	{"template", "write a sample document", runTemplate},
}

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("structwire failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			log.Debug().Str("command", c.name).Strs("args", args[1:]).Msg("dispatch")
			return c.run(args[1:], stdout)
		}
	}
	printUsage(stdout)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: structwire <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'structwire <command> --help' for command flags.")
}
