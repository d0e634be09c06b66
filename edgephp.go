// Package edgephp is the public entry point for the compiler spec.md
// describes: Compile turns EdgePHP source text into a self-contained
// WebAssembly module, synchronously and without any shared state between
// calls (spec.md §5's concurrency model: "a compile is a pure function
// from source to Result<wasm, CompilerError>").
//
// This mirrors original_source/packages/compiler/src/lib.rs's top-level
// Compiler::compile entry point, wiring together the collaborator parser
// (internal/phpparse), the analyses and code generator (internal/analysis,
// internal/codegen), and the module assembler (internal/assembler) behind
// one function.
package edgephp

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/cerr"
	"github.com/maravilla-labs/edgephp-wasmc/internal/codegen"
	"github.com/maravilla-labs/edgephp-wasmc/internal/phpparse"
)

// Compile parses source and lowers it to a WebAssembly module. Per
// spec.md §7, the first error encountered — whether from the parser or
// from compilation — aborts the whole call; no partial module is ever
// returned alongside an error.
func Compile(source string) ([]byte, error) {
	prog, err := phpparse.Parse(source)
	if err != nil {
		return nil, &cerr.ParserError{Inner: err}
	}

	wasm, err := codegen.Generate(prog)
	if err != nil {
		return nil, err
	}
	return wasm, nil
}
