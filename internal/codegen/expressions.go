package codegen

import (
	"github.com/maravilla-labs/edgephp-wasmc/ast"
	"github.com/maravilla-labs/edgephp-wasmc/internal/cerr"
	"github.com/maravilla-labs/edgephp-wasmc/internal/runtimeemit"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// lowerExpression lowers expr, leaving exactly one tagged-value pointer on
// the operand stack, per spec.md §4.3. Only the node kinds ast.go documents
// as lowered (Literal, Variable, Assignment-to-Variable, Binary, and the
// three built-in Calls) are handled; everything else is a typed
// CompilationError (or TypeError for Cast, reserved for that purpose by
// internal/cerr), never a panic.
func (g *Generator) lowerExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case ast.Literal:
		return g.lowerLiteral(e.Value)
	case ast.Variable:
		return g.lowerVariableRead(e)
	case ast.Assignment:
		return g.lowerAssignment(e)
	case ast.Binary:
		return g.lowerBinary(e)
	case ast.Call:
		return g.lowerCall(e)
	case ast.Cast:
		return &cerr.TypeError{Message: "cast expressions are not yet lowered"}
	default:
		return cerr.NewCompilationError("unsupported expression node %T", expr)
	}
}

// lowerLiteral materializes one LiteralValue as a freshly alloc_value'd
// tagged record, writing the tag byte and the tag-appropriate payload
// offset (4 for int/bool/float, 8 for a string's heap pointer), per
// spec.md §3's record layout.
func (g *Generator) lowerLiteral(lit ast.LiteralValue) error {
	switch v := lit.(type) {
	case ast.IntLiteral:
		ptr := g.allocTagged(runtimeemit.TypeInt)
		g.body.LocalGet(ptr)
		g.body.I32Const(4)
		g.body.I32Add()
		g.body.I64Const(v.Value)
		g.body.I64Store(wasmenc.MemArg{Align: 3})
		g.body.LocalGet(ptr)
		return nil
	case ast.FloatLiteral:
		ptr := g.allocTagged(runtimeemit.TypeFloat)
		g.body.LocalGet(ptr)
		g.body.I32Const(4)
		g.body.I32Add()
		g.body.F64Const(v.Value)
		g.body.F64Store(wasmenc.MemArg{Align: 3})
		g.body.LocalGet(ptr)
		return nil
	case ast.BoolLiteral:
		ptr := g.allocTagged(runtimeemit.TypeBool)
		g.body.LocalGet(ptr)
		g.body.I32Const(4)
		g.body.I32Add()
		if v.Value {
			g.body.I64Const(1)
		} else {
			g.body.I64Const(0)
		}
		g.body.I64Store(wasmenc.MemArg{Align: 3})
		g.body.LocalGet(ptr)
		return nil
	case ast.NullLiteral:
		// alloc_value zeroes everything it hands out and a bump allocator
		// never reuses an address, so a fresh record's tag byte is already
		// TypeNull (0) without an explicit store.
		g.body.Call(g.rt.AllocValue)
		return nil
	case ast.StringLiteral:
		return g.lowerStringLiteral(v.Value)
	default:
		return cerr.NewCompilationError("unsupported literal %T", lit)
	}
}

// allocTagged calls alloc_value, stashes the result in a fresh local,
// stores tag into its tag byte, and returns the local holding the pointer
// (left un-pushed; callers that need the value back on the stack issue
// their own LocalGet).
func (g *Generator) allocTagged(tag int32) uint32 {
	g.body.Call(g.rt.AllocValue)
	ptr := g.newLocal()
	g.body.LocalSet(ptr)
	g.body.LocalGet(ptr)
	g.body.I32Const(tag)
	g.body.I32Store8(wasmenc.MemArg{})
	return ptr
}

// lowerStringLiteral interns the literal's raw bytes into the data
// segment (spec.md §3's [0x10000,0x100000) region, written once per
// distinct AddString call — the Module Assembler doesn't dedup, matching
// original_source's wasm_builder.rs behavior), then materializes a fresh
// string heap object for it at runtime via alloc_string, and wraps that
// in a tagged String value.
func (g *Generator) lowerStringLiteral(s string) error {
	ref := g.builder.AddString(s)
	g.body.I32Const(int32(ref.Start))
	g.body.I32Const(int32(ref.Len))
	g.body.Call(g.rt.AllocString)
	strObj := g.newLocal()
	g.body.LocalSet(strObj)

	ptr := g.allocTagged(runtimeemit.TypeString)
	g.body.LocalGet(ptr)
	g.body.I32Const(8)
	g.body.I32Add()
	g.body.LocalGet(strObj)
	g.body.I32Store(wasmenc.MemArg{Align: 2})
	g.body.LocalGet(ptr)
	return nil
}

// lowerVariableRead pushes the variable's fixed cell address, loads its
// current pointer, and — per spec.md §5's ref-counting discipline — incref
// s the loaded pointer when internal/analysis has determined the variable
// escapes (so a temporary fed from this read survives past the read site
// without the cell's own reference being mistaken for an owned copy).
// Reading a name with no prior recorded assignment is spec.md §7's
// UndefinedVariable.
func (g *Generator) lowerVariableRead(v ast.Variable) error {
	addr, ok := g.varAddr[v.Name]
	if !ok {
		return &cerr.UndefinedVariable{Name: v.Name}
	}

	g.body.I32Const(int32(addr))
	g.body.I32Load(wasmenc.MemArg{Align: 2})
	tmp := g.newLocal()
	g.body.LocalTee(tmp)

	if g.escape != nil && !g.escape.CanKeepUnboxed(v.Name) {
		g.body.LocalGet(tmp)
		g.body.Call(g.rt.Incref)
	}
	return nil
}

// lowerAssignment lowers "$v = rhs", rejecting any left-hand side other
// than a bare Variable (spec.md §7's "Invalid assignment target"). It
// allocates the variable's cell on first assignment, then follows spec.md
// §5's protocol: decref whatever the cell held before (if anything),
// incref the new value before storing it, and leave a copy of the new
// pointer on the stack as the expression's own value.
func (g *Generator) lowerAssignment(a ast.Assignment) error {
	v, ok := a.Left.(ast.Variable)
	if !ok {
		return cerr.NewCompilationError("invalid assignment target %T", a.Left)
	}

	if err := g.lowerExpression(a.Right); err != nil {
		return err
	}
	newVal := g.newLocal()
	g.body.LocalSet(newVal)

	addr, existed := g.varAddr[v.Name]
	if !existed {
		addr = g.allocVarCell(v.Name)
	} else {
		g.body.I32Const(int32(addr))
		g.body.I32Load(wasmenc.MemArg{Align: 2})
		g.body.Call(g.rt.Decref)
	}

	g.body.LocalGet(newVal)
	g.body.Call(g.rt.Incref)

	g.body.I32Const(int32(addr))
	g.body.LocalGet(newVal)
	g.body.I32Store(wasmenc.MemArg{Align: 2})

	g.body.LocalGet(newVal)
	return nil
}

// allocVarCell records name's first-seen ordinal and returns its fixed
// linear-memory cell address, per spec.md §3's "0x200000 + 4*i" scheme.
func (g *Generator) allocVarCell(name string) uint32 {
	addr := varCellStart + 4*uint32(len(g.varOrder))
	g.varAddr[name] = addr
	g.varOrder = append(g.varOrder, name)
	return addr
}

// binaryOpFuncs maps the lowered subset of ast.BinaryOp to its runtime
// helper, per spec.md §4.2's catalog. Identical/NotIdentical (no strict
// three-way tagged-equality helper exists) and And/Or (short-circuiting
// logical operators, which would need their own control-flow lowering
// rather than a two-operand call) are deliberately absent — lowering
// rejects them.
func (g *Generator) binaryOpFunc(op ast.BinaryOp) (uint32, bool) {
	switch op {
	case ast.Add:
		return g.rt.Add, true
	case ast.Subtract:
		return g.rt.Sub, true
	case ast.Multiply:
		return g.rt.Mul, true
	case ast.Divide:
		return g.rt.Div, true
	case ast.Modulo:
		return g.rt.Mod, true
	case ast.Concat:
		return g.rt.Concat, true
	case ast.Equal:
		return g.rt.Equal, true
	case ast.NotEqual:
		return g.rt.NotEqual, true
	case ast.LessThan:
		return g.rt.LessThan, true
	case ast.LessThanOrEqual:
		return g.rt.LessOrEqual, true
	case ast.GreaterThan:
		return g.rt.GreaterThan, true
	case ast.GreaterThanOrEqual:
		return g.rt.GreaterOrEqual, true
	default:
		return 0, false
	}
}

// lowerBinary lowers the left operand, then the right, then calls the
// matching runtime helper, per spec.md §4.3's "lower both sides (left
// first, then right), then emit call". Both operands are consumed
// straight into the call; per spec.md §5's temporaries rule, a value that
// lives only on the operand stack needs no extra incref/decref beyond
// whatever lowerExpression already issued for it.
func (g *Generator) lowerBinary(b ast.Binary) error {
	fn, ok := g.binaryOpFunc(b.Op)
	if !ok {
		return cerr.NewCompilationError("unsupported binary operator %q", b.Op.String())
	}
	if err := g.lowerExpression(b.Left); err != nil {
		return err
	}
	if err := g.lowerExpression(b.Right); err != nil {
		return err
	}
	g.body.Call(fn)
	return nil
}

// lowerCall dispatches the only free-function calls spec.md §4.3
// recognizes: is_null, isset and empty. Each wraps the runtime
// predicate's raw i32 result (0 or 1) into a freshly allocated Bool
// value, since every expression — including a built-in call — must leave
// a tagged-value pointer, not a raw i32, on the stack. Any other name is
// spec.md §7's UndefinedFunction.
func (g *Generator) lowerCall(c ast.Call) error {
	var fn uint32
	switch c.Name {
	case "is_null":
		fn = g.rt.IsNull
	case "isset":
		fn = g.rt.Isset
	case "empty":
		fn = g.rt.Empty
	default:
		return &cerr.UndefinedFunction{Name: c.Name}
	}
	if len(c.Args) != 1 {
		return cerr.NewCompilationError("%s expects exactly 1 argument, got %d", c.Name, len(c.Args))
	}

	if err := g.lowerExpression(c.Args[0]); err != nil {
		return err
	}
	arg := g.newLocal()
	g.body.LocalSet(arg)

	g.body.LocalGet(arg)
	g.body.Call(fn)
	raw := g.newLocal()
	g.body.LocalSet(raw)

	// The argument's tagged value was only needed for the predicate call;
	// release the reference lowerExpression left us holding.
	g.body.LocalGet(arg)
	g.body.Call(g.rt.Decref)

	ptr := g.allocTagged(runtimeemit.TypeBool)
	g.body.LocalGet(ptr)
	g.body.I32Const(4)
	g.body.I32Add()
	g.body.LocalGet(raw)
	g.body.I64ExtendI32S()
	g.body.I64Store(wasmenc.MemArg{Align: 3})
	g.body.LocalGet(ptr)
	return nil
}
