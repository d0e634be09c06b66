package phpparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

func TestParse_HelloWorld(t *testing.T) {
	prog, err := Parse(`<?php echo "Hello, World!"; ?>`)
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)

	block, ok := prog.Items[0].(ast.PhpBlock)
	require.True(t, ok)
	require.Len(t, block.Statements, 1)

	echo, ok := block.Statements[0].(ast.Echo)
	require.True(t, ok)
	require.Len(t, echo.Exprs, 1)

	lit, ok := echo.Exprs[0].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, ast.StringLiteral{Value: "Hello, World!"}, lit.Value)
}

func TestParse_AssignmentAndEcho(t *testing.T) {
	prog, err := Parse(`<?php $x = 42; echo $x; ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	require.Len(t, block.Statements, 2)

	assignStmt := block.Statements[0].(ast.ExpressionStatement)
	assign := assignStmt.Expr.(ast.Assignment)
	require.Equal(t, ast.Variable{Name: "x"}, assign.Left)
	require.Equal(t, ast.Literal{Value: ast.IntLiteral{Value: 42}}, assign.Right)

	echo := block.Statements[1].(ast.Echo)
	require.Equal(t, ast.Variable{Name: "x"}, echo.Exprs[0])
}

func TestParse_BinaryPrecedence(t *testing.T) {
	prog, err := Parse(`<?php $a = 5; $b = 3; echo $a + $b; ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	echo := block.Statements[2].(ast.Echo)
	bin := echo.Exprs[0].(ast.Binary)
	require.Equal(t, ast.Add, bin.Op)
	require.Equal(t, ast.Variable{Name: "a"}, bin.Left)
	require.Equal(t, ast.Variable{Name: "b"}, bin.Right)
}

func TestParse_IfElse(t *testing.T) {
	prog, err := Parse(`<?php $x = 10; if ($x > 5) { echo "big"; } else { echo "small"; } ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	ifStmt := block.Statements[1].(ast.If)

	cond := ifStmt.Condition.(ast.Binary)
	require.Equal(t, ast.GreaterThan, cond.Op)
	require.Len(t, ifStmt.Then.Statements, 1)
	require.NotNil(t, ifStmt.Else)
	require.Len(t, ifStmt.Else.Statements, 1)
}

func TestParse_ElseIfChain(t *testing.T) {
	prog, err := Parse(`<?php
		if ($x == 1) { echo "one"; }
		elseif ($x == 2) { echo "two"; }
		else { echo "other"; }
	?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	ifStmt := block.Statements[0].(ast.If)
	require.Len(t, ifStmt.ElseIfs, 1)
	require.NotNil(t, ifStmt.Else)
}

func TestParse_WhileLoop(t *testing.T) {
	prog, err := Parse(`<?php $i = 0; while ($i < 3) { echo $i; $i = $i + 1; } ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	while := block.Statements[1].(ast.While)
	require.Len(t, while.Body.Statements, 2)
}

func TestParse_ForLoop(t *testing.T) {
	prog, err := Parse(`<?php for ($i = 0; $i < 10; $i = $i + 1) { echo $i; } ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	forStmt := block.Statements[0].(ast.For)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Condition)
	require.NotNil(t, forStmt.Update)
}

func TestParse_FloatLiteral(t *testing.T) {
	prog, err := Parse(`<?php $pi = 3.14; echo $pi; ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	assign := block.Statements[0].(ast.ExpressionStatement).Expr.(ast.Assignment)
	require.Equal(t, ast.Literal{Value: ast.FloatLiteral{Value: 3.14}}, assign.Right)
}

func TestParse_BuiltinCalls(t *testing.T) {
	prog, err := Parse(`<?php echo isset($x); ?>`)
	require.NoError(t, err)

	block := prog.Items[0].(ast.PhpBlock)
	echo := block.Statements[0].(ast.Echo)
	call := echo.Exprs[0].(ast.Call)
	require.Equal(t, "isset", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParse_InlineHTML(t *testing.T) {
	prog, err := Parse(`before<?php echo "mid"; ?>after`)
	require.NoError(t, err)
	require.Len(t, prog.Items, 3)

	require.Equal(t, ast.InlineContent{Text: "before"}, prog.Items[0])
	_, ok := prog.Items[1].(ast.PhpBlock)
	require.True(t, ok)
	require.Equal(t, ast.InlineContent{Text: "after"}, prog.Items[2])
}

func TestParse_UnterminatedBlockIsError(t *testing.T) {
	_, err := Parse(`<?php if ($x) { echo "a"; `)
	require.Error(t, err)
}
