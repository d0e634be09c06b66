package codegen

import (
	"github.com/maravilla-labs/edgephp-wasmc/ast"
	"github.com/maravilla-labs/edgephp-wasmc/internal/analysis"
	"github.com/maravilla-labs/edgephp-wasmc/internal/cerr"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// lowerStatement lowers one statement. Only the kinds spec.md §4.3
// documents (expression-statement, echo, if, while, for) are handled;
// every other Statement node ast.go represents but codegen doesn't
// support (break, continue, return, do-while, foreach, switch,
// function/class decl, use, namespace) is a CompilationError, never
// silently skipped.
func (g *Generator) lowerStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.ExpressionStatement:
		return g.lowerExpressionStatement(s)
	case ast.Echo:
		return g.lowerEcho(s)
	case ast.If:
		return g.lowerIf(s)
	case ast.While:
		return g.lowerWhile(s)
	case ast.For:
		return g.lowerFor(s)
	case ast.StatementBlock:
		return g.lowerBlock(s.Body)
	default:
		return cerr.NewCompilationError("unsupported statement node %T", stmt)
	}
}

func (g *Generator) lowerBlock(block ast.Block) error {
	for _, stmt := range block.Statements {
		if err := g.lowerStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// lowerExpressionStatement lowers expr, then discards its result. Per
// spec.md §5's ref-counting discipline, discarding means decref before
// drop — and since decref's signature is (i32)->(), calling it on the
// stashed pointer both releases the reference and consumes the value, so
// no further explicit drop opcode is needed.
func (g *Generator) lowerExpressionStatement(s ast.ExpressionStatement) error {
	if err := g.lowerExpression(s.Expr); err != nil {
		return err
	}
	tmp := g.newLocal()
	g.body.LocalSet(tmp)
	g.body.LocalGet(tmp)
	g.body.Call(g.rt.Decref)
	return nil
}

// lowerEcho lowers each argument, coerces it with to_string, and prints
// the resulting string heap object's {data_ptr, length} pair through the
// env.print import, per spec.md §4.3. Both the coercion result and the
// original expression's pointer are released afterward — to_string always
// returns a fresh, owned String value, and echo is one of escape
// analysis's escaping uses, so the original read (if it was a variable)
// was already incref'd for exactly this lifetime.
func (g *Generator) lowerEcho(s ast.Echo) error {
	for _, expr := range s.Exprs {
		if err := g.lowerExpression(expr); err != nil {
			return err
		}
		val := g.newLocal()
		g.body.LocalSet(val)

		g.body.LocalGet(val)
		g.body.Call(g.rt.ToString)
		strVal := g.newLocal()
		g.body.LocalSet(strVal)

		strObj := g.newLocal()
		g.body.LocalGet(strVal)
		g.body.I32Const(8)
		g.body.I32Add()
		g.body.I32Load(wasmenc.MemArg{Align: 2})
		g.body.LocalSet(strObj)

		// print(data_ptr, len)
		g.body.LocalGet(strObj)
		g.body.I32Const(8)
		g.body.I32Add()
		g.body.LocalGet(strObj)
		g.body.I32Load(wasmenc.MemArg{Align: 2})
		g.body.Call(g.rt.Print)

		g.body.LocalGet(strVal)
		g.body.Call(g.rt.Decref)
		g.body.LocalGet(val)
		g.body.Call(g.rt.Decref)
	}
	return nil
}

// lowerCondition lowers cond, coerces it through to_bool, releases the
// reference lowerExpression left behind, and leaves the raw i32 0/1
// result on the stack — the shape every control-flow opcode below
// (if/br_if) consumes directly.
//
// Type inference feeds in here as the hint spec.md §4.4 describes: a
// variable proven Bool from its single assignment already holds the 0/1
// payload to_bool would return, so its payload word is loaded directly
// and the coercion call is skipped. Everything else — Dynamic included —
// goes through to_bool and stays correct.
func (g *Generator) lowerCondition(cond ast.Expression) error {
	if err := g.lowerExpression(cond); err != nil {
		return err
	}
	tmp := g.newLocal()
	g.body.LocalSet(tmp)

	g.body.LocalGet(tmp)
	if v, ok := cond.(ast.Variable); ok && g.types != nil &&
		g.types.IsVariableStable(v.Name) && g.types.VariableType(v.Name) == analysis.TypeBool {
		g.body.I32Load(wasmenc.MemArg{Offset: 4, Align: 2})
	} else {
		g.body.Call(g.rt.ToBool)
	}

	g.body.LocalGet(tmp)
	g.body.Call(g.rt.Decref)
	return nil
}

// lowerIf desugars any elseif arms (spec.md §9's OQ-1: the AST's
// elseif_blocks and the lowerer's {condition,then,else} shape are
// reconciled by a right-nested else-chain, not by dropping data) and then
// lowers a plain condition/then/else.
func (g *Generator) lowerIf(s ast.If) error {
	return g.lowerIfCore(desugarElseIfs(s))
}

// desugarElseIfs turns "if c1 {t1} elseif c2 {t2} elseif c3 {t3} else {e}"
// into the equivalent "if c1 {t1} else { if c2 {t2} else { if c3 {t3} else
// {e} } }", a mechanical, total rewrite of the existing ElseIfs field —
// see DESIGN.md OQ-1.
func desugarElseIfs(s ast.If) ast.If {
	if len(s.ElseIfs) == 0 {
		return s
	}
	first := s.ElseIfs[0]
	rest := desugarElseIfs(ast.If{
		Condition: first.Condition,
		Then:      first.Then,
		ElseIfs:   s.ElseIfs[1:],
		Else:      s.Else,
	})
	return ast.If{
		Condition: s.Condition,
		Then:      s.Then,
		Else:      &ast.Block{Statements: []ast.Statement{rest}},
	}
}

func (g *Generator) lowerIfCore(s ast.If) error {
	if err := g.lowerCondition(s.Condition); err != nil {
		return err
	}
	g.body.If()
	if err := g.lowerBlock(s.Then); err != nil {
		return err
	}
	if s.Else != nil {
		g.body.Else()
		if err := g.lowerBlock(*s.Else); err != nil {
			return err
		}
	}
	g.body.End()
	return nil
}

// lowerWhile emits a block-wrapped loop, per spec.md §4.3: the outer
// Block gives br_if 1 an exit target, the inner Loop gives br 0 a
// continuation target.
func (g *Generator) lowerWhile(s ast.While) error {
	g.body.Block()
	g.body.Loop()

	if err := g.lowerCondition(s.Condition); err != nil {
		return err
	}
	g.body.I32Eqz()
	g.body.BrIf(1)

	if err := g.lowerBlock(s.Body); err != nil {
		return err
	}
	g.body.Br(0)

	g.body.End() // loop
	g.body.End() // block
	return nil
}

// lowerFor lowers a C-style counted loop. When internal/analysis's
// AnalyzeForLoop recognizes the counter pattern, finds it safe, and
// can compute a concrete iteration count under spec.md §4.4's 10,000
// ceiling, the loop is unrolled: the counter's assignment and the body
// are emitted N times with the counter folded to a compile-time literal
// each time, and no loop control flow is emitted at all. Otherwise it
// falls back to the desugared form spec.md §4.3 names: "init;
// while(cond){body; update;}".
func (g *Generator) lowerFor(s ast.For) error {
	if info := analysis.AnalyzeForLoop(s.Init, s.Condition, s.Update, s.Body); info != nil && info.CanUnroll {
		if n, ok := info.CalculateIterations(); ok {
			return g.lowerUnrolledFor(s, info, n)
		}
	}

	if s.Init != nil {
		if err := g.lowerStatement(s.Init); err != nil {
			return err
		}
	}

	body := s.Body
	if s.Update != nil {
		stmts := make([]ast.Statement, 0, len(body.Statements)+1)
		stmts = append(stmts, body.Statements...)
		stmts = append(stmts, ast.ExpressionStatement{Expr: s.Update})
		body = ast.Block{Statements: stmts}
	}

	return g.lowerWhile(ast.While{Condition: s.Condition, Body: body})
}

// lowerUnrolledFor emits info.CounterVar = literal, then the loop body,
// repeated n times with no surrounding loop instructions.
func (g *Generator) lowerUnrolledFor(s ast.For, info *analysis.LoopUnrollInfo, n int) error {
	for i := 0; i < n; i++ {
		value := info.StartValue + int64(i)*info.Increment
		assign := ast.ExpressionStatement{Expr: ast.Assignment{
			Left:  ast.Variable{Name: info.CounterVar},
			Right: ast.Literal{Value: ast.IntLiteral{Value: value}},
		}}
		if err := g.lowerStatement(assign); err != nil {
			return err
		}
		if err := g.lowerBlock(s.Body); err != nil {
			return err
		}
	}
	return nil
}
