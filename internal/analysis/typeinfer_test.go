package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

func TestInferredType_Merge(t *testing.T) {
	tests := []struct {
		name     string
		a, b     InferredType
		expected InferredType
	}{
		{"same type", TypeInt, TypeInt, TypeInt},
		{"int and float", TypeInt, TypeFloat, TypeFloat},
		{"float and int", TypeFloat, TypeInt, TypeFloat},
		{"int and string", TypeInt, TypeString, TypeDynamic},
		{"bool and bool", TypeBool, TypeBool, TypeBool},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.a.Merge(tc.b))
		})
	}
}

func TestTypeInference_singleAssignmentIsStable(t *testing.T) {
	prog := &ast.Program{Items: []ast.ProgramItem{
		ast.PhpBlock{Statements: []ast.Statement{
			ast.ExpressionStatement{Expr: ast.Assignment{
				Left:  ast.Variable{Name: "x"},
				Right: ast.Literal{Value: ast.IntLiteral{Value: 42}},
			}},
		}},
	}}

	ti := NewTypeInference()
	ti.AnalyzeProgram(prog)

	require.Equal(t, TypeInt, ti.VariableType("x"))
	require.True(t, ti.IsVariableStable("x"))
}

func TestTypeInference_multipleAssignmentsMergeAndDestabilize(t *testing.T) {
	prog := &ast.Program{Items: []ast.ProgramItem{
		ast.PhpBlock{Statements: []ast.Statement{
			ast.ExpressionStatement{Expr: ast.Assignment{
				Left:  ast.Variable{Name: "x"},
				Right: ast.Literal{Value: ast.IntLiteral{Value: 1}},
			}},
			ast.ExpressionStatement{Expr: ast.Assignment{
				Left:  ast.Variable{Name: "x"},
				Right: ast.Literal{Value: ast.FloatLiteral{Value: 2.5}},
			}},
		}},
	}}

	ti := NewTypeInference()
	ti.AnalyzeProgram(prog)

	require.Equal(t, TypeFloat, ti.VariableType("x"))
	require.False(t, ti.IsVariableStable("x"))
}

func TestTypeInference_binaryArithmeticPromotion(t *testing.T) {
	ti := NewTypeInference()
	result := ti.InferExpression(ast.Binary{
		Op:    ast.Add,
		Left:  ast.Literal{Value: ast.IntLiteral{Value: 1}},
		Right: ast.Literal{Value: ast.FloatLiteral{Value: 2}},
	})
	require.Equal(t, TypeFloat, result)
}

func TestTypeInference_concatAlwaysString(t *testing.T) {
	ti := NewTypeInference()
	result := ti.InferExpression(ast.Binary{
		Op:    ast.Concat,
		Left:  ast.Literal{Value: ast.IntLiteral{Value: 1}},
		Right: ast.Literal{Value: ast.IntLiteral{Value: 2}},
	})
	require.Equal(t, TypeString, result)
}

func TestTypeInference_undefinedVariableIsDynamic(t *testing.T) {
	ti := NewTypeInference()
	require.Equal(t, TypeDynamic, ti.VariableType("never_assigned"))
}
