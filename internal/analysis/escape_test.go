package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

func assign(name string, rhs ast.Expression) ast.Statement {
	return ast.ExpressionStatement{Expr: ast.Assignment{
		Left:  ast.Variable{Name: name},
		Right: rhs,
	}}
}

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Items: []ast.ProgramItem{ast.PhpBlock{Statements: stmts}}}
}

func TestEscapeAnalyzer_echoForcesEscape(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("x", ast.Literal{Value: ast.IntLiteral{Value: 1}}),
		ast.Echo{Exprs: []ast.Expression{ast.Variable{Name: "x"}}},
	))
	require.False(t, ea.CanKeepUnboxed("x"))
}

func TestEscapeAnalyzer_returnForcesEscape(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("x", ast.Literal{Value: ast.IntLiteral{Value: 1}}),
		ast.Return{Expr: ast.Variable{Name: "x"}},
	))
	require.False(t, ea.CanKeepUnboxed("x"))
}

func TestEscapeAnalyzer_callArgumentForcesEscape(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("x", ast.Literal{Value: ast.IntLiteral{Value: 1}}),
		ast.ExpressionStatement{Expr: ast.Call{
			Name: "isset",
			Args: []ast.Expression{ast.Variable{Name: "x"}},
		}},
	))
	require.False(t, ea.CanKeepUnboxed("x"))
}

func TestEscapeAnalyzer_privateScratchStaysUnboxed(t *testing.T) {
	// Assigned, used only as a binary operand feeding another assignment:
	// nothing makes the value outlive its statement.
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("x", ast.Literal{Value: ast.IntLiteral{Value: 1}}),
		assign("y", ast.Binary{
			Op:    ast.Add,
			Left:  ast.Variable{Name: "x"},
			Right: ast.Literal{Value: ast.IntLiteral{Value: 2}},
		}),
	))
	require.True(t, ea.CanKeepUnboxed("x"))
}

// escapes(y) must imply escapes(x) for every chain x := y, however long.
func TestEscapeAnalyzer_propagatesThroughAssignmentChains(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("a", ast.Literal{Value: ast.IntLiteral{Value: 1}}),
		ast.Echo{Exprs: []ast.Expression{ast.Variable{Name: "a"}}},
		assign("b", ast.Variable{Name: "a"}),
		assign("c", ast.Variable{Name: "b"}),
	))
	// a escapes directly; b := a and c := b inherit it across two
	// fixpoint rounds.
	require.False(t, ea.CanKeepUnboxed("a"))
	require.False(t, ea.CanKeepUnboxed("b"))
	require.False(t, ea.CanKeepUnboxed("c"))
}

func TestEscapeAnalyzer_foreachBindingsPreseededEscaping(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program(
		assign("arr", ast.ArrayLiteral{}),
		ast.Foreach{
			Array: ast.Variable{Name: "arr"},
			Key:   "k",
			Value: "v",
			Body:  ast.Block{},
		},
	))
	require.False(t, ea.CanKeepUnboxed("k"))
	require.False(t, ea.CanKeepUnboxed("v"))
}

func TestEscapeAnalyzer_unknownVariableIsNotUnboxable(t *testing.T) {
	ea := NewEscapeAnalyzer()
	ea.AnalyzeProgram(program())
	require.False(t, ea.CanKeepUnboxed("never_seen"))
}
