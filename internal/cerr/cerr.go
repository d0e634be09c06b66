// Package cerr defines the compiler's error taxonomy, per spec.md §7.
//
// Every lowering routine returns a Go error; the first error aborts
// compilation and no partial module is emitted. The reference Rust
// implementation modeled this with a #[derive(thiserror::Error)] enum
// (original_source/packages/compiler/src/error.rs). wazero itself never
// reaches for an error-annotation library even where Rust-derived tooling
// might (see DESIGN.md for the standard-library justification), so this
// package follows wazero's own convention: plain structs implementing
// error, distinguished with errors.As, and fmt.Errorf("...: %w", ...) for
// wrapping.
package cerr

import "fmt"

// ParserError wraps an error surfaced by the parser collaborator
// (internal/phpparse or any other ast.Program producer), prefixed per
// spec.md §7 ("surfaced verbatim with added prefix").
type ParserError struct {
	Inner error
}

func (e *ParserError) Error() string { return fmt.Sprintf("parser error: %v", e.Inner) }
func (e *ParserError) Unwrap() error { return e.Inner }

// CompilationError is the catch-all for unsupported AST nodes, invalid
// assignment targets, or arity mismatches on built-ins.
type CompilationError struct {
	Message string
}

func (e *CompilationError) Error() string { return fmt.Sprintf("compilation error: %s", e.Message) }

// NewCompilationError builds a CompilationError with a formatted message.
func NewCompilationError(format string, args ...any) *CompilationError {
	return &CompilationError{Message: fmt.Sprintf(format, args...)}
}

// TypeError reports a cast: internal/codegen returns it for every Cast
// expression, which it does not lower.
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return fmt.Sprintf("type error: %s", e.Message) }

// UndefinedVariable is a read of a variable with no prior recorded
// assignment (spec.md's name→VarAddr map has no entry for it).
type UndefinedVariable struct {
	Name string
}

func (e *UndefinedVariable) Error() string { return fmt.Sprintf("undefined variable: %s", e.Name) }

// UndefinedFunction is a call to a name that is neither a built-in
// dispatch (is_null/isset/empty) nor otherwise known.
type UndefinedFunction struct {
	Name string
}

func (e *UndefinedFunction) Error() string { return fmt.Sprintf("undefined function: %s", e.Name) }

// WasmError is a malformation surfaced by internal/assembler on finalize:
// Finalize returns it when a reserved function index was never filled.
// Other programmer errors (e.g. SetFunctionAt on an unreserved index)
// panic instead of returning an error.
type WasmError struct {
	Message string
}

func (e *WasmError) Error() string { return fmt.Sprintf("wasm encoding error: %s", e.Message) }
