package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	edgephp "github.com/maravilla-labs/edgephp-wasmc"
)

func doCompile(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("compile", flag.ContinueOnError)
	flags.SetOutput(stderr)
	outPath := flags.String("o", "", "output path (default: input path with .wasm extension)")
	optimize := flags.Bool("optimize", false, "post-process the module with wasm-opt, if present on $PATH")
	verbose := flags.Bool("v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	// Options may also follow the source path.
	rest := flags.Args()
	if len(rest) > 1 {
		if err := flags.Parse(rest[1:]); err != nil {
			return 1
		}
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if len(rest) < 1 {
		fmt.Fprintln(stderr, "edgephp compile: missing path to source file")
		return 1
	}
	path := rest[0]

	wasmBytes, err := compileFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "edgephp compile: %v\n", err)
		return 1
	}

	if *optimize {
		optimized, err := runWasmOpt(wasmBytes)
		if err != nil {
			log.WithError(err).Warn("wasm-opt post-pass skipped")
		} else {
			wasmBytes = optimized
		}
	}

	dest := *outPath
	if dest == "" {
		dest = strings.TrimSuffix(path, ".php") + ".wasm"
	}
	if err := os.WriteFile(dest, wasmBytes, 0o644); err != nil {
		fmt.Fprintf(stderr, "edgephp compile: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(wasmBytes), dest)
	return 0
}

// compileFile reads path and compiles it, logging the stage transitions
// at debug level the way the original Rust CLI's "DEBUG: ..." eprintln!
// calls once did ad hoc.
func compileFile(path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Debug("compiling source")
	wasmBytes, err := edgephp.Compile(string(source))
	if err != nil {
		return nil, err
	}
	log.WithField("bytes", len(wasmBytes)).Debug("compilation finished")
	return wasmBytes, nil
}
