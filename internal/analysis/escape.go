package analysis

import "github.com/maravilla-labs/edgephp-wasmc/ast"

// EscapeStatus records whether a variable's value can stay unboxed or
// must be treated as a tagged-value heap record that outlives its
// defining statement.
type EscapeStatus int

const (
	NoEscape EscapeStatus = iota
	Escapes
)

// useContext classifies one read of a variable, mirroring escape_analysis.rs's
// UseContext.
type useContext int

const (
	useReturn useContext = iota
	useOutput
	useArrayStore
	useBinaryOp
	useAssignment
	useFunctionCall
)

// defContext classifies one write to a variable, mirroring DefContext.
type defContext struct {
	fromVariable string // non-"" when the def is "$x = $y"
	isVariable   bool
}

type variableEscapeInfo struct {
	status      EscapeStatus
	uses        []useContext
	definitions []defContext
}

// EscapeAnalyzer determines, for every variable in a program, whether its
// value ever needs to be kept alive beyond the statement that produced
// it — returned, echoed, stored into an array, or passed to a function
// call. spec.md §5 ties this directly to the ref-counting protocol: a
// value that escapes must be heap-allocated and incref'd on every
// escaping read, where a value that never escapes can be decref'd (or
// simply dropped) as soon as its defining statement ends.
type EscapeAnalyzer struct {
	variables map[string]*variableEscapeInfo
}

// NewEscapeAnalyzer returns an analyzer ready to run over a Program.
func NewEscapeAnalyzer() *EscapeAnalyzer {
	return &EscapeAnalyzer{variables: make(map[string]*variableEscapeInfo)}
}

// AnalyzeProgram walks every statement, then propagates escape status
// through variable-to-variable assignment chains to a fixpoint.
func (ea *EscapeAnalyzer) AnalyzeProgram(prog *ast.Program) {
	for _, item := range prog.Items {
		if block, ok := item.(ast.PhpBlock); ok {
			for _, stmt := range block.Statements {
				ea.analyzeStatement(stmt)
			}
		}
	}
	ea.propagateEscapeStatus()
}

func (ea *EscapeAnalyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case ast.ExpressionStatement:
		ea.analyzeExpression(s.Expr, false)
	case ast.Echo:
		for _, e := range s.Exprs {
			ea.markExpressionAsEscaping(e)
		}
	case ast.Return:
		if s.Expr != nil {
			ea.markExpressionAsEscaping(s.Expr)
		}
	case ast.If:
		ea.analyzeExpression(s.Condition, false)
		ea.analyzeBlock(s.Then)
		for _, elif := range s.ElseIfs {
			ea.analyzeExpression(elif.Condition, false)
			ea.analyzeBlock(elif.Then)
		}
		if s.Else != nil {
			ea.analyzeBlock(*s.Else)
		}
	case ast.While:
		ea.analyzeExpression(s.Condition, false)
		ea.analyzeBlock(s.Body)
	case ast.DoWhile:
		ea.analyzeBlock(s.Body)
		ea.analyzeExpression(s.Condition, false)
	case ast.For:
		if s.Init != nil {
			ea.analyzeStatement(s.Init)
		}
		if s.Condition != nil {
			ea.analyzeExpression(s.Condition, false)
		}
		if s.Update != nil {
			ea.analyzeExpression(s.Update, false)
		}
		ea.analyzeBlock(s.Body)
	case ast.Foreach:
		// The array being iterated doesn't escape (we only read it); the
		// loop-bound variables do, since user code can do anything with
		// them inside the body.
		ea.analyzeExpression(s.Array, false)
		ea.markVariableAsEscaping(s.Value)
		if s.Key != "" {
			ea.markVariableAsEscaping(s.Key)
		}
		ea.analyzeBlock(s.Body)
	case ast.StatementBlock:
		ea.analyzeBlock(s.Body)
	default:
	}
}

func (ea *EscapeAnalyzer) analyzeBlock(block ast.Block) {
	for _, stmt := range block.Statements {
		ea.analyzeStatement(stmt)
	}
}

func (ea *EscapeAnalyzer) analyzeExpression(expr ast.Expression, escapes bool) {
	switch e := expr.(type) {
	case ast.Variable:
		ctx := useBinaryOp
		if escapes {
			ctx = useOutput
		}
		ea.recordVariableUse(e.Name, ctx)
	case ast.Assignment:
		if v, ok := e.Left.(ast.Variable); ok {
			switch r := e.Right.(type) {
			case ast.Literal:
				ea.recordVariableDef(v.Name, defContext{})
			case ast.Variable:
				ea.recordVariableDef(v.Name, defContext{fromVariable: r.Name, isVariable: true})
			default:
				ea.recordVariableDef(v.Name, defContext{})
				ea.analyzeExpression(e.Right, false)
			}
		} else if aa, ok := e.Left.(ast.ArrayAccess); ok {
			ea.markExpressionAsEscaping(aa.Array)
			ea.markExpressionAsEscaping(aa.Index)
			ea.markExpressionAsEscaping(e.Right)
		}
	case ast.Binary:
		ea.analyzeExpression(e.Left, escapes)
		ea.analyzeExpression(e.Right, escapes)
	case ast.ArrayLiteral:
		for _, el := range e.Elements {
			ea.markExpressionAsEscaping(el.Value)
			if el.Key != nil {
				ea.markExpressionAsEscaping(el.Key)
			}
		}
	case ast.ArrayAccess:
		ea.analyzeExpression(e.Array, false)
		ea.analyzeExpression(e.Index, false)
	case ast.Call:
		for _, a := range e.Args {
			ea.markExpressionAsEscaping(a)
		}
	default:
	}
}

func (ea *EscapeAnalyzer) markExpressionAsEscaping(expr ast.Expression) {
	switch e := expr.(type) {
	case ast.Variable:
		ea.markVariableAsEscaping(e.Name)
	case ast.Binary:
		ea.markExpressionAsEscaping(e.Left)
		ea.markExpressionAsEscaping(e.Right)
	case ast.Assignment:
		ea.markExpressionAsEscaping(e.Right)
	default:
	}
}

func (ea *EscapeAnalyzer) entry(name string) *variableEscapeInfo {
	info, ok := ea.variables[name]
	if !ok {
		info = &variableEscapeInfo{status: NoEscape}
		ea.variables[name] = info
	}
	return info
}

func (ea *EscapeAnalyzer) recordVariableUse(name string, ctx useContext) {
	info := ea.entry(name)
	info.uses = append(info.uses, ctx)
}

func (ea *EscapeAnalyzer) recordVariableDef(name string, def defContext) {
	info := ea.entry(name)
	info.definitions = append(info.definitions, def)
}

func (ea *EscapeAnalyzer) markVariableAsEscaping(name string) {
	ea.entry(name).status = Escapes
}

// propagateEscapeStatus runs to a bounded fixpoint (spec.md §4.4 caps
// analysis passes at 100 iterations): a variable escapes if any of its
// uses is a Return/Output/ArrayStore/FunctionCall, or if it was defined
// directly from another variable that itself escapes.
func (ea *EscapeAnalyzer) propagateEscapeStatus() {
	const maxIterations = 100
	changed := true
	for iterations := 0; changed && iterations < maxIterations; iterations++ {
		changed = false
		updates := map[string]EscapeStatus{}

		for name, info := range ea.variables {
			if info.status == Escapes {
				continue
			}
			for _, use := range info.uses {
				if use == useReturn || use == useOutput || use == useArrayStore || use == useFunctionCall {
					updates[name] = Escapes
					changed = true
					break
				}
			}
			for _, def := range info.definitions {
				if def.isVariable {
					if src, ok := ea.variables[def.fromVariable]; ok && src.status == Escapes {
						updates[name] = Escapes
						changed = true
						break
					}
				}
			}
		}

		for name, status := range updates {
			ea.variables[name].status = status
		}
	}
}

// CanKeepUnboxed reports whether name's value never needs to be
// materialized as a tagged-value heap record.
func (ea *EscapeAnalyzer) CanKeepUnboxed(name string) bool {
	info, ok := ea.variables[name]
	return ok && info.status == NoEscape
}
