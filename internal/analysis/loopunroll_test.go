package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

func countedLoop(start, bound, inc int64, body ...ast.Statement) (ast.Statement, ast.Expression, ast.Expression, ast.Block) {
	init := ast.ExpressionStatement{Expr: ast.Assignment{
		Left:  ast.Variable{Name: "i"},
		Right: ast.Literal{Value: ast.IntLiteral{Value: start}},
	}}
	cond := ast.Binary{
		Op:    ast.LessThan,
		Left:  ast.Variable{Name: "i"},
		Right: ast.Literal{Value: ast.IntLiteral{Value: bound}},
	}
	update := ast.Assignment{
		Left: ast.Variable{Name: "i"},
		Right: ast.Binary{
			Op:    ast.Add,
			Left:  ast.Variable{Name: "i"},
			Right: ast.Literal{Value: ast.IntLiteral{Value: inc}},
		},
	}
	return init, cond, update, ast.Block{Statements: body}
}

func TestAnalyzeForLoop_recognizesCountedLoop(t *testing.T) {
	init, cond, update, body := countedLoop(0, 5, 1,
		ast.Echo{Exprs: []ast.Expression{ast.Variable{Name: "i"}}},
	)

	info := AnalyzeForLoop(init, cond, update, body)
	require.NotNil(t, info)
	require.True(t, info.CanUnroll)
	require.Equal(t, "i", info.CounterVar)
	require.Equal(t, int64(0), info.StartValue)
	require.Equal(t, int64(1), info.Increment)

	n, ok := info.CalculateIterations()
	require.True(t, ok)
	require.Equal(t, 5, n)
}

func TestAnalyzeForLoop_inclusiveBoundAddsOneIteration(t *testing.T) {
	init, _, update, body := countedLoop(1, 0, 1)
	cond := ast.Binary{
		Op:    ast.LessThanOrEqual,
		Left:  ast.Variable{Name: "i"},
		Right: ast.Literal{Value: ast.IntLiteral{Value: 5}},
	}

	info := AnalyzeForLoop(init, cond, update, body)
	require.NotNil(t, info)

	n, ok := info.CalculateIterations()
	require.True(t, ok)
	require.Equal(t, 5, n)
}

// Any of break/continue/return or a nested loop in the body must veto
// unrolling, regardless of how clean the loop header is.
func TestAnalyzeForLoop_unsafeBodiesAreRejected(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
	}{
		{"break", ast.Break{}},
		{"continue", ast.Continue{}},
		{"return", ast.Return{}},
		{"nested while", ast.While{Condition: ast.Literal{Value: ast.BoolLiteral{Value: true}}, Body: ast.Block{}}},
		{"nested for", ast.For{Body: ast.Block{}}},
		{"break inside if", ast.If{
			Condition: ast.Literal{Value: ast.BoolLiteral{Value: true}},
			Then:      ast.Block{Statements: []ast.Statement{ast.Break{}}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			init, cond, update, body := countedLoop(0, 5, 1, tc.stmt)
			info := AnalyzeForLoop(init, cond, update, body)
			require.NotNil(t, info)
			require.False(t, info.CanUnroll)
		})
	}
}

func TestAnalyzeForLoop_variableBoundHasNoIterationCount(t *testing.T) {
	init, _, update, body := countedLoop(0, 0, 1)
	cond := ast.Binary{
		Op:    ast.LessThan,
		Left:  ast.Variable{Name: "i"},
		Right: ast.Variable{Name: "n"},
	}

	info := AnalyzeForLoop(init, cond, update, body)
	require.NotNil(t, info)
	require.True(t, info.CanUnroll)

	_, ok := info.CalculateIterations()
	require.False(t, ok)
}

func TestAnalyzeForLoop_mismatchedCounterNamesRejected(t *testing.T) {
	init, cond, _, body := countedLoop(0, 5, 1)
	update := ast.Assignment{
		Left: ast.Variable{Name: "j"},
		Right: ast.Binary{
			Op:    ast.Add,
			Left:  ast.Variable{Name: "j"},
			Right: ast.Literal{Value: ast.IntLiteral{Value: 1}},
		},
	}
	require.Nil(t, AnalyzeForLoop(init, cond, update, body))
}

func TestAnalyzeForLoop_nonLiteralStartRejected(t *testing.T) {
	_, cond, update, body := countedLoop(0, 5, 1)
	init := ast.ExpressionStatement{Expr: ast.Assignment{
		Left:  ast.Variable{Name: "i"},
		Right: ast.Variable{Name: "start"},
	}}
	require.Nil(t, AnalyzeForLoop(init, cond, update, body))
}

func TestCalculateIterations_tenThousandCeiling(t *testing.T) {
	init, cond, update, body := countedLoop(0, 10000, 1)
	info := AnalyzeForLoop(init, cond, update, body)
	require.NotNil(t, info)

	_, ok := info.CalculateIterations()
	require.False(t, ok)
}
