// Package ast defines the AST contract consumed by internal/analysis and
// internal/codegen. It mirrors the shape described in spec.md §3 and §6:
// a Program is an ordered sequence of ProgramItems, each either a PHP block
// of statements or verbatim inline content.
//
// This is the boundary between the compiler and its upstream collaborator,
// the source-language lexer/parser. Only a subset of the node kinds listed
// here is actually lowered by internal/codegen; unsupported nodes surface
// as a typed error from internal/cerr at compile time, not a panic.
package ast

// Program is the root of a parsed source file.
type Program struct {
	Items []ProgramItem
}

// ProgramItem is either a block of statements (between "<?php" and "?>")
// or literal text to be echoed verbatim.
type ProgramItem interface {
	programItem()
}

// PhpBlock is a sequence of statements lowered in order.
type PhpBlock struct {
	Statements []Statement
}

func (PhpBlock) programItem() {}

// InlineContent is raw text outside of a PHP block, emitted with the host
// print sink exactly as written.
type InlineContent struct {
	Text string
}

func (InlineContent) programItem() {}
