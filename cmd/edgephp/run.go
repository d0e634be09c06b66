package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// doRun compiles the given source file and executes it against a real
// wazero runtime, mirroring the teacher's own cmd/wazero/wazero.go:
// instantiate a host module exposing the single import the compiled
// module needs, instantiate the compiled module against it, then call
// its exported entry point.
func doRun(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.SetOutput(stderr)
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
		fmt.Fprintln(stderr, "edgephp run: missing path to source file")
		return 1
	}
	path := rest[0]

	wasmBytes, err := compileFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "edgephp run: %v\n", err)
		return 1
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	_, err = r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			buf, ok := m.Memory().Read(ptr, length)
			if !ok {
				log.WithField("ptr", ptr).WithField("len", length).Error("print: memory read out of range")
				return
			}
			stdout.Write(buf)
		}).
		Export("print").
		Instantiate(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "edgephp run: %v\n", err)
		return 1
	}

	mod, err := r.InstantiateWithConfig(ctx, wasmBytes, wazero.NewModuleConfig().WithStartFunctions())
	if err != nil {
		fmt.Fprintf(stderr, "edgephp run: %v\n", err)
		return 1
	}

	if _, err := mod.ExportedFunction("_start").Call(ctx); err != nil {
		fmt.Fprintf(stderr, "edgephp run: %v\n", err)
		return 1
	}

	return 0
}
