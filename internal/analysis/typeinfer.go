// Package analysis runs the compile-time passes the Code Generator
// consults before lowering a function body: type inference (spec.md
// §4.4's two-pass fixpoint over variable assignments), escape analysis
// (which values must be boxed as tagged-value heap records versus which
// can ride as raw WASM locals), and loop-unroll feasibility (recognizing
// simple counted for-loops that can be expanded inline instead of
// lowered as a real loop).
//
// All three are ports of original_source/packages/compiler/src/compiler/
// {type_inference,escape_analysis,loop_analysis}.rs, generalized from
// their Rust AST types to this module's ast package.
package analysis

import (
	"sort"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

// InferredType is the compile-time type lattice type_inference.rs
// defines: a known scalar shape, or Dynamic when no single type can be
// proven to cover every assignment to a variable.
type InferredType int

const (
	TypeDynamic InferredType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeNull
	TypeArray
)

// String renders t for diagnostics (the cmd/edgephp parse report).
func (t InferredType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNull:
		return "null"
	case TypeArray:
		return "array"
	default:
		return "dynamic"
	}
}

// IsNumeric reports whether t is Int or Float.
func (t InferredType) IsNumeric() bool { return t == TypeInt || t == TypeFloat }

// IsKnown reports whether t is anything other than Dynamic.
func (t InferredType) IsKnown() bool { return t != TypeDynamic }

// Merge combines two types at a control-flow join (e.g. a ternary's two
// arms, or two assignments to the same variable): identical types stay
// as-is, two numeric types promote to Float, anything else falls back to
// Dynamic — the same three-way rule type_inference.rs's InferredType::merge
// implements.
func (t InferredType) Merge(other InferredType) InferredType {
	if t == other {
		return t
	}
	if t.IsNumeric() && other.IsNumeric() {
		return TypeFloat
	}
	return TypeDynamic
}

// variableTypeInfo tracks one variable's accumulated type across a
// two-pass scan, mirroring VariableTypeInfo.
type variableTypeInfo struct {
	inferredType    InferredType
	isStable        bool
	assignmentCount int
}

// TypeInference is a two-pass fixpoint type inference engine: the first
// pass walks every assignment in source order, merging types as it goes;
// the second pass marks any variable assigned more than once as
// unstable, so codegen knows not to special-case its storage based on a
// single observed type.
type TypeInference struct {
	variableTypes map[string]*variableTypeInfo
	firstPass     bool
}

// NewTypeInference returns an engine ready to analyze a Program.
func NewTypeInference() *TypeInference {
	return &TypeInference{variableTypes: make(map[string]*variableTypeInfo)}
}

// AnalyzeProgram runs both passes over prog.
func (ti *TypeInference) AnalyzeProgram(prog *ast.Program) {
	ti.firstPass = true
	for _, item := range prog.Items {
		if block, ok := item.(ast.PhpBlock); ok {
			for _, stmt := range block.Statements {
				ti.analyzeStatement(stmt)
			}
		}
	}

	ti.firstPass = false
	for _, info := range ti.variableTypes {
		if info.assignmentCount > 1 {
			info.isStable = false
		}
	}
}

func (ti *TypeInference) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case ast.ExpressionStatement:
		ti.InferExpression(s.Expr)
	case ast.Echo:
		for _, e := range s.Exprs {
			ti.InferExpression(e)
		}
	case ast.If:
		ti.InferExpression(s.Condition)
		for _, st := range s.Then.Statements {
			ti.analyzeStatement(st)
		}
		for _, elif := range s.ElseIfs {
			ti.InferExpression(elif.Condition)
			for _, st := range elif.Then.Statements {
				ti.analyzeStatement(st)
			}
		}
		if s.Else != nil {
			for _, st := range s.Else.Statements {
				ti.analyzeStatement(st)
			}
		}
	case ast.While:
		ti.InferExpression(s.Condition)
		for _, st := range s.Body.Statements {
			ti.analyzeStatement(st)
		}
	case ast.DoWhile:
		for _, st := range s.Body.Statements {
			ti.analyzeStatement(st)
		}
		ti.InferExpression(s.Condition)
	case ast.For:
		if s.Init != nil {
			ti.analyzeStatement(s.Init)
		}
		if s.Condition != nil {
			ti.InferExpression(s.Condition)
		}
		if s.Update != nil {
			ti.InferExpression(s.Update)
		}
		for _, st := range s.Body.Statements {
			ti.analyzeStatement(st)
		}
	case ast.Foreach:
		ti.InferExpression(s.Array)
		if s.Key != "" {
			ti.recordVariableType(s.Key, TypeDynamic)
		}
		ti.recordVariableType(s.Value, TypeDynamic)
		for _, st := range s.Body.Statements {
			ti.analyzeStatement(st)
		}
	case ast.Break, ast.Continue:
		// no-op
	case ast.StatementBlock:
		for _, st := range s.Body.Statements {
			ti.analyzeStatement(st)
		}
	default:
		// Unimplemented statement kinds (FunctionDecl, ClassDecl, Switch,
		// Use, Namespace, Return) don't affect variable type inference.
	}
}

// InferExpression returns expr's inferred type, recording any variable
// assignment it observes along the way.
func (ti *TypeInference) InferExpression(expr ast.Expression) InferredType {
	switch e := expr.(type) {
	case ast.Literal:
		return inferLiteral(e.Value)
	case ast.Variable:
		if info, ok := ti.variableTypes[e.Name]; ok {
			return info.inferredType
		}
		return TypeDynamic
	case ast.Binary:
		left := ti.InferExpression(e.Left)
		right := ti.InferExpression(e.Right)
		return inferBinaryResult(left, e.Op, right)
	case ast.Assignment:
		rightType := ti.InferExpression(e.Right)
		if v, ok := e.Left.(ast.Variable); ok {
			ti.recordVariableType(v.Name, rightType)
		}
		return rightType
	case ast.Call:
		for _, a := range e.Args {
			ti.InferExpression(a)
		}
		switch e.Name {
		case "count":
			return TypeInt
		case "array":
			return TypeArray
		case "is_null", "isset", "empty":
			return TypeBool
		default:
			return TypeDynamic
		}
	case ast.ArrayLiteral:
		for _, el := range e.Elements {
			if el.Key != nil {
				ti.InferExpression(el.Key)
			}
			ti.InferExpression(el.Value)
		}
		return TypeArray
	case ast.ArrayAccess:
		ti.InferExpression(e.Array)
		ti.InferExpression(e.Index)
		return TypeDynamic
	case ast.Ternary:
		ti.InferExpression(e.Condition)
		thenType := ti.InferExpression(e.Then)
		elseType := ti.InferExpression(e.Else)
		return thenType.Merge(elseType)
	case ast.Unary:
		return ti.InferExpression(e.Expr)
	case ast.MethodCall:
		ti.InferExpression(e.Object)
		for _, a := range e.Args {
			ti.InferExpression(a)
		}
		return TypeDynamic
	case ast.PropertyAccess:
		ti.InferExpression(e.Object)
		return TypeDynamic
	case ast.New:
		for _, a := range e.Args {
			ti.InferExpression(a)
		}
		return TypeDynamic
	case ast.Cast:
		ti.InferExpression(e.Expr)
		switch e.Target {
		case ast.TypeInt:
			return TypeInt
		case ast.TypeFloat:
			return TypeFloat
		case ast.TypeString:
			return TypeString
		case ast.TypeBool:
			return TypeBool
		case ast.TypeArray:
			return TypeArray
		default:
			return TypeDynamic
		}
	default:
		return TypeDynamic
	}
}

func inferLiteral(lit ast.LiteralValue) InferredType {
	switch lit.(type) {
	case ast.IntLiteral:
		return TypeInt
	case ast.FloatLiteral:
		return TypeFloat
	case ast.StringLiteral:
		return TypeString
	case ast.BoolLiteral:
		return TypeBool
	case ast.NullLiteral:
		return TypeNull
	case ast.InterpolatedStringLiteral:
		return TypeString
	default:
		return TypeDynamic
	}
}

func inferBinaryResult(left InferredType, op ast.BinaryOp, right InferredType) InferredType {
	switch op {
	case ast.Add, ast.Subtract, ast.Multiply, ast.Divide:
		if left == TypeInt && right == TypeInt {
			return TypeInt
		}
		if left.IsNumeric() && right.IsNumeric() {
			return TypeFloat
		}
		return TypeDynamic
	case ast.Modulo:
		if left.IsNumeric() && right.IsNumeric() {
			return TypeInt
		}
		return TypeDynamic
	case ast.Concat:
		return TypeString
	case ast.Equal, ast.NotEqual, ast.Identical, ast.NotIdentical,
		ast.GreaterThan, ast.LessThan, ast.GreaterThanOrEqual, ast.LessThanOrEqual:
		return TypeBool
	case ast.And, ast.Or:
		return TypeBool
	default:
		return TypeDynamic
	}
}

func (ti *TypeInference) recordVariableType(name string, inferredType InferredType) {
	info, ok := ti.variableTypes[name]
	if !ok {
		info = &variableTypeInfo{inferredType: TypeDynamic, isStable: true}
		ti.variableTypes[name] = info
	}
	info.assignmentCount++

	if ti.firstPass {
		if info.assignmentCount == 1 {
			info.inferredType = inferredType
		} else {
			info.inferredType = info.inferredType.Merge(inferredType)
		}
	}
}

// VariableType returns the inferred type for name, or Dynamic if it was
// never observed.
func (ti *TypeInference) VariableType(name string) InferredType {
	if info, ok := ti.variableTypes[name]; ok {
		return info.inferredType
	}
	return TypeDynamic
}

// IsVariableStable reports whether name was assigned exactly once.
func (ti *TypeInference) IsVariableStable(name string) bool {
	if info, ok := ti.variableTypes[name]; ok {
		return info.isStable
	}
	return false
}

// Variables returns every analyzed variable name in sorted order.
func (ti *TypeInference) Variables() []string {
	names := make([]string, 0, len(ti.variableTypes))
	for name := range ti.variableTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
