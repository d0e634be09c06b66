package analysis

import "github.com/maravilla-labs/edgephp-wasmc/ast"

// LoopBound is a for-loop's upper bound: either a compile-time constant
// or a variable read at loop-entry time.
type LoopBound struct {
	IsConstant bool
	Constant   int64
	Variable   string
}

// LoopUnrollInfo is the outcome of analyzing one for-loop's header,
// grounded on loop_analysis.rs's LoopUnrollInfo/analyze: only the
// "$i = start; $i < bound; $i = $i + step" (or <=) shape is recognized,
// matching spec.md §4.4's counter-pattern-detection requirement.
type LoopUnrollInfo struct {
	CounterVar   string
	StartValue   int64
	EndBound     LoopBound
	Increment    int64
	Comparison   ast.BinaryOp
	CanUnroll    bool
	UnrollFactor int
}

// AnalyzeForLoop inspects a for-loop's init/condition/update/body and
// returns unrolling feasibility info, or nil if the loop doesn't match
// the recognized counted-loop shape.
func AnalyzeForLoop(init ast.Statement, condition ast.Expression, update ast.Expression, body ast.Block) *LoopUnrollInfo {
	counterVar, start, ok := analyzeInit(init)
	if !ok {
		return nil
	}

	condVar, comparison, bound, ok := analyzeCondition(condition)
	if !ok || condVar != counterVar {
		return nil
	}

	updateVar, increment, ok := analyzeUpdate(update)
	if !ok || updateVar != counterVar {
		return nil
	}

	safeBody := isBodySafe(body)
	canUnroll := safeBody && increment > 0

	return &LoopUnrollInfo{
		CounterVar:   counterVar,
		StartValue:   start,
		EndBound:     bound,
		Increment:    increment,
		Comparison:   comparison,
		CanUnroll:    canUnroll,
		UnrollFactor: 4,
	}
}

// analyzeInit recognizes "$i = <int literal>".
func analyzeInit(init ast.Statement) (string, int64, bool) {
	if init == nil {
		return "", 0, false
	}
	exprStmt, ok := init.(ast.ExpressionStatement)
	if !ok {
		return "", 0, false
	}
	assign, ok := exprStmt.Expr.(ast.Assignment)
	if !ok {
		return "", 0, false
	}
	v, ok := assign.Left.(ast.Variable)
	if !ok {
		return "", 0, false
	}
	lit, ok := assign.Right.(ast.Literal)
	if !ok {
		return "", 0, false
	}
	intLit, ok := lit.Value.(ast.IntLiteral)
	if !ok {
		return "", 0, false
	}
	return v.Name, intLit.Value, true
}

// analyzeCondition recognizes "$i < N" or "$i <= N" where N is a literal
// or another variable.
func analyzeCondition(condition ast.Expression) (string, ast.BinaryOp, LoopBound, bool) {
	if condition == nil {
		return "", 0, LoopBound{}, false
	}
	bin, ok := condition.(ast.Binary)
	if !ok {
		return "", 0, LoopBound{}, false
	}
	v, ok := bin.Left.(ast.Variable)
	if !ok {
		return "", 0, LoopBound{}, false
	}

	var bound LoopBound
	switch r := bin.Right.(type) {
	case ast.Literal:
		intLit, ok := r.Value.(ast.IntLiteral)
		if !ok {
			return "", 0, LoopBound{}, false
		}
		bound = LoopBound{IsConstant: true, Constant: intLit.Value}
	case ast.Variable:
		bound = LoopBound{Variable: r.Name}
	default:
		return "", 0, LoopBound{}, false
	}

	switch bin.Op {
	case ast.LessThan, ast.LessThanOrEqual:
		return v.Name, bin.Op, bound, true
	default:
		return "", 0, LoopBound{}, false
	}
}

// analyzeUpdate recognizes "$i = $i + <int literal>".
func analyzeUpdate(update ast.Expression) (string, int64, bool) {
	if update == nil {
		return "", 0, false
	}
	assign, ok := update.(ast.Assignment)
	if !ok {
		return "", 0, false
	}
	v, ok := assign.Left.(ast.Variable)
	if !ok {
		return "", 0, false
	}
	bin, ok := assign.Right.(ast.Binary)
	if !ok || bin.Op != ast.Add {
		return "", 0, false
	}
	addVar, ok := bin.Left.(ast.Variable)
	if !ok || addVar.Name != v.Name {
		return "", 0, false
	}
	lit, ok := bin.Right.(ast.Literal)
	if !ok {
		return "", 0, false
	}
	intLit, ok := lit.Value.(ast.IntLiteral)
	if !ok {
		return "", 0, false
	}
	return v.Name, intLit.Value, true
}

// isBodySafe reports whether body contains no break/continue/return and
// no nested loop (nested loops are left to their own analysis; unrolling
// an outer loop around one is rejected conservatively, matching
// loop_analysis.rs's has_control_flow treating While/For as always
// unsafe for the purpose of unrolling the enclosing loop).
func isBodySafe(body ast.Block) bool {
	for _, stmt := range body.Statements {
		if hasControlFlow(stmt) {
			return false
		}
	}
	return true
}

func hasControlFlow(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case ast.Break, ast.Continue, ast.Return:
		return true
	case ast.If:
		for _, st := range s.Then.Statements {
			if hasControlFlow(st) {
				return true
			}
		}
		for _, elif := range s.ElseIfs {
			for _, st := range elif.Then.Statements {
				if hasControlFlow(st) {
					return true
				}
			}
		}
		if s.Else != nil {
			for _, st := range s.Else.Statements {
				if hasControlFlow(st) {
					return true
				}
			}
		}
		return false
	case ast.While, ast.For, ast.DoWhile:
		return true
	default:
		return false
	}
}

// CalculateIterations returns the total iteration count when both the
// start value and the end bound are compile-time constants, bounded to
// the (0, 10000) range spec.md §4.4 requires before unrolling is
// considered feasible.
func (info *LoopUnrollInfo) CalculateIterations() (int, bool) {
	if !info.EndBound.IsConstant || info.Increment <= 0 {
		return 0, false
	}

	var iterations int64
	switch info.Comparison {
	case ast.LessThan:
		iterations = (info.EndBound.Constant - info.StartValue + info.Increment - 1) / info.Increment
	case ast.LessThanOrEqual:
		iterations = (info.EndBound.Constant - info.StartValue + info.Increment) / info.Increment
	default:
		return 0, false
	}

	if iterations > 0 && iterations < 10000 {
		return int(iterations), true
	}
	return 0, false
}
