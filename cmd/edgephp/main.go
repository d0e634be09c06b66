// Command edgephp is the CLI surface spec.md §6 describes only to the
// extent it parameterizes output: "run <file>", "parse <file>", "compile
// <file> [-o path] [--optimize]" and "test-v2". File I/O, argument
// parsing, and process bootstrapping live here and nowhere else — the
// edgephp and internal/* packages stay side-effect-free libraries, the
// same split the teacher draws between cmd/wazero and its root package.
package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

// log is the package-level logger SPEC_FULL.md's AMBIENT STACK section
// assigns to cmd/edgephp: the original Rust CLI's ad hoc "DEBUG: ..."
// eprintln! calls become logrus Debug/Trace calls here, gated behind -v,
// and never appear inside the library packages themselves.
var log = logrus.New()

// doMain is separated from main for unit testing, exactly as the
// teacher's cmd/wazero/wazero.go separates doMain from main.
func doMain(stdout, stderr io.Writer, args []string) int {
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)

	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "run":
		return doRun(args[1:], stdout, stderr)
	case "parse":
		return doParse(args[1:], stdout, stderr)
	case "compile":
		return doCompile(args[1:], stdout, stderr)
	case "test-v2":
		return doTestV2(stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		io.WriteString(stderr, "edgephp: unknown command "+args[0]+"\n")
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	io.WriteString(w, `usage: edgephp <command> [arguments]

commands:
  run <file> [-v]                    compile and execute a source file
  parse <file> [-v]                  parse a source file and report errors
  compile <file> [-o path] [--optimize] [-v]
                                      compile a source file to a .wasm module
  test-v2                            run the built-in end-to-end scenarios
`)
}
