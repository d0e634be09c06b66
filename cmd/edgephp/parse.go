package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/maravilla-labs/edgephp-wasmc/internal/analysis"
	"github.com/maravilla-labs/edgephp-wasmc/internal/phpparse"
)

func doParse(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("parse", flag.ContinueOnError)
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
		fmt.Fprintln(stderr, "edgephp parse: missing path to source file")
		return 1
	}
	path := rest[0]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "edgephp parse: %v\n", err)
		return 1
	}

	log.WithField("path", path).Debug("parsing source")
	prog, err := phpparse.Parse(string(source))
	if err != nil {
		fmt.Fprintf(stderr, "edgephp parse: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "parsed %d top-level item(s) from %s\n", len(prog.Items), path)

	if *verbose {
		ti := analysis.NewTypeInference()
		ti.AnalyzeProgram(prog)
		for _, name := range ti.Variables() {
			log.WithField("variable", "$"+name).
				WithField("type", ti.VariableType(name).String()).
				WithField("stable", ti.IsVariableStable(name)).
				Debug("inferred variable type")
		}
	}
	return 0
}
