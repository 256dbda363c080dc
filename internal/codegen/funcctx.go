package codegen

import (
	"fmt"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/types"
)

// funcCtx lowers one function body. It replicates internal/resolve's
// scope-push/pop discipline (params at entry, a new local pushed right
// after a let's RHS, a block popping back to its entry depth) but — unlike
// the resolver's de-Bruijn-style LocalIndex, which is REUSED across
// sibling blocks — assigns each local a brand-new, never-reused physical
// wasm slot number. stack[i] holds the physical slot currently bound to
// logical index i, so at any IdentExpr{Res.LocalIndex: N} the resolver
// once visited, stack[N] here has the identical depth/order it had at that
// same point in the original walk, and yields the right physical slot.
type funcCtx struct {
	gen   *Generator
	out   *strings.Builder
	stack []int

	// slotTypes[physical slot] -> wasm value type ("i32" or "i64"), grown
	// every time a param, let, or scratch temporary claims a new slot.
	slotTypes []string
}

func (fc *funcCtx) pushParam(wasmTy string) {
	fc.stack = append(fc.stack, len(fc.slotTypes))
	fc.slotTypes = append(fc.slotTypes, wasmTy)
}

func (fc *funcCtx) pushLet(info *ast.LocalInfo) int {
	slot := len(fc.slotTypes)
	fc.slotTypes = append(fc.slotTypes, wasmValType(info.Type))
	fc.stack = append(fc.stack, slot)
	return slot
}

func (fc *funcCtx) popTo(depth int) { fc.stack = fc.stack[:depth] }

func (fc *funcCtx) localSlot(logicalIndex int) int { return fc.stack[logicalIndex] }

// newScratchSlot claims a physical local for a codegen-internal temporary
// (e.g. the address of a struct literal being built) that has no logical
// LocalIndex of its own and so is never looked up through fc.stack.
func (fc *funcCtx) newScratchSlot(wasmTy string) int {
	slot := len(fc.slotTypes)
	fc.slotTypes = append(fc.slotTypes, wasmTy)
	return slot
}

func (fc *funcCtx) unsupported(span ast.Span, format string, args ...any) {
	fc.gen.sink.Add(errors.New(errors.GEN001, span, format, args...))
	fc.out.WriteString("    unreachable\n")
}

// emitExpr lowers e, leaving exactly e's value on the wasm stack (or
// nothing, for a Unit-typed e).
func (fc *funcCtx) emitExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.EmptyExpr:
		// unit: nothing to push

	case *ast.LiteralExpr:
		fc.emitLiteral(v)

	case *ast.IdentExpr:
		fc.emitIdent(v)

	case *ast.PathExpr:
		fc.emitPath(v)

	case *ast.UnaryExpr:
		fc.emitUnary(v)

	case *ast.BinaryExpr:
		fc.emitExpr(v.Left)
		fc.emitExpr(v.Right)
		fc.emitBinaryOp(v)

	case *ast.LetExpr:
		fc.emitExpr(v.Rhs)
		slot := fc.pushLet(v.Info)
		fmt.Fprintf(fc.out, "    local.set $l%d\n", slot)

	case *ast.BlockExpr:
		depth := len(fc.stack)
		for i, sub := range v.Exprs {
			fc.emitExpr(sub)
			if i != len(v.Exprs)-1 && !isUnit(sub.Type()) {
				fc.out.WriteString("    drop\n")
			}
		}
		fc.popTo(depth)

	case *ast.AssignExpr:
		fc.emitAssign(v)

	case *ast.IfExpr:
		fc.emitIf(v)

	case *ast.LoopExpr:
		fc.emitLoop(v)

	case *ast.BreakExpr:
		label := fc.gen.loopLabels[v.Target.ID]
		fmt.Fprintf(fc.out, "    br $exit_%s\n", label)

	case *ast.CallExpr:
		fc.emitCall(v)

	case *ast.FieldAccessExpr:
		fc.emitFieldAccess(v)

	case *ast.StructLiteralExpr:
		fc.emitStructLiteral(v)

	case *ast.TupleLiteralExpr:
		fc.emitTupleLiteral(v)

	case *ast.AsmExpr:
		for _, instr := range v.Instrs {
			fc.out.WriteString("    " + instr + "\n")
		}

	case *ast.ErrorExpr:
		fc.unsupported(v.Span, "error node reached codegen")

	default:
		fc.unsupported(e.Position(), "unsupported expression form %T reached codegen", e)
	}
}

func (fc *funcCtx) emitLiteral(v *ast.LiteralExpr) {
	switch v.Kind {
	case ast.LitIntI32:
		fmt.Fprintf(fc.out, "    i32.const %d\n", v.Int)
	case ast.LitIntDefault:
		fmt.Fprintf(fc.out, "    i64.const %d\n", v.Int)
	case ast.LitString:
		fc.gen.sink.Add(errors.New(errors.GEN001, v.Span, "string literals are not yet lowered to linear memory"))
		fc.out.WriteString("    i32.const 0\n")
	}
}

func (fc *funcCtx) emitIdent(v *ast.IdentExpr) {
	switch v.Res.Kind {
	case ast.ResLocal:
		fmt.Fprintf(fc.out, "    local.get $l%d\n", fc.localSlot(v.Res.LocalIndex))
	case ast.ResItem:
		fc.emitItemRef(v.Res, v.Span)
	case ast.ResBuiltin:
		fc.emitBuiltinValue(v.Res.Builtin, v.Span)
	default:
		fc.unsupported(v.Span, "unresolved identifier %q reached codegen", v.Name)
	}
}

func (fc *funcCtx) emitPath(v *ast.PathExpr) {
	if v.Res.Kind != ast.ResItem {
		fc.unsupported(v.Span, "unresolved path %v reached codegen", v.Segments)
		return
	}
	fc.emitItemRef(v.Res, v.Span)
}

func (fc *funcCtx) emitItemRef(res ast.Resolution, span ast.Span) {
	it, ok := fc.gen.lookupItem(res.Item)
	if !ok {
		fc.unsupported(span, "item %s not found in codegen", res.Item)
		return
	}
	if gl, ok := it.(*ast.GlobalItem); ok {
		fmt.Fprintf(fc.out, "    global.get %s\n", wasmName(gl))
		return
	}
	fc.unsupported(span, "item %s is not usable as a value", res.Item)
}

func (fc *funcCtx) emitBuiltinValue(name string, span ast.Span) {
	switch name {
	case "true":
		fc.out.WriteString("    i32.const 1\n")
	case "false", "__NULL":
		fc.out.WriteString("    i32.const 0\n")
	default:
		fc.unsupported(span, "builtin %q is not a value", name)
	}
}

func (fc *funcCtx) emitUnary(v *ast.UnaryExpr) {
	fc.emitExpr(v.Operand)
	switch v.Op {
	case "-":
		ty := wasmIntTy(isI64(v.Operand.Type()))
		fmt.Fprintf(fc.out, "    %s.const -1\n    %s.mul\n", ty, ty)
	case "!":
		fc.out.WriteString("    i32.eqz\n")
	default:
		fc.unsupported(v.Span, "unsupported unary operator %q", v.Op)
	}
}

func (fc *funcCtx) emitBinaryOp(v *ast.BinaryExpr) {
	ty := wasmIntTy(isI64(v.Left.Type()))
	switch v.Op {
	case "+":
		fmt.Fprintf(fc.out, "    %s.add\n", ty)
	case "-":
		fmt.Fprintf(fc.out, "    %s.sub\n", ty)
	case "*":
		fmt.Fprintf(fc.out, "    %s.mul\n", ty)
	case "/":
		fmt.Fprintf(fc.out, "    %s.div_u\n", ty)
	case "%":
		fmt.Fprintf(fc.out, "    %s.rem_u\n", ty)
	case "&":
		fmt.Fprintf(fc.out, "    %s.and\n", ty)
	case "|":
		fmt.Fprintf(fc.out, "    %s.or\n", ty)
	case "==":
		fmt.Fprintf(fc.out, "    %s.eq\n", ty)
	case "!=":
		fmt.Fprintf(fc.out, "    %s.ne\n", ty)
	case "<":
		fmt.Fprintf(fc.out, "    %s.lt_u\n", ty)
	case ">":
		fmt.Fprintf(fc.out, "    %s.gt_u\n", ty)
	case "<=":
		fmt.Fprintf(fc.out, "    %s.le_u\n", ty)
	case ">=":
		fmt.Fprintf(fc.out, "    %s.ge_u\n", ty)
	default:
		fc.unsupported(v.Span, "unsupported binary operator %q", v.Op)
	}
}

func (fc *funcCtx) emitAssign(v *ast.AssignExpr) {
	if lhs, ok := v.Lhs.(*ast.IdentExpr); ok && lhs.Res.Kind == ast.ResLocal {
		fc.emitExpr(v.Rhs)
		fmt.Fprintf(fc.out, "    local.set $l%d\n", fc.localSlot(lhs.Res.LocalIndex))
		return
	}

	var itemRes ast.Resolution
	var haveItem bool
	switch lhs := v.Lhs.(type) {
	case *ast.IdentExpr:
		if lhs.Res.Kind == ast.ResItem {
			itemRes, haveItem = lhs.Res, true
		}
	case *ast.PathExpr:
		if lhs.Res.Kind == ast.ResItem {
			itemRes, haveItem = lhs.Res, true
		}
	}
	if haveItem {
		if it, ok := fc.gen.lookupItem(itemRes.Item); ok {
			if gl, ok := it.(*ast.GlobalItem); ok {
				fc.emitExpr(v.Rhs)
				fmt.Fprintf(fc.out, "    global.set %s\n", wasmName(gl))
				return
			}
		}
	}
	fc.unsupported(v.Span, "unsupported assignment target %T", v.Lhs)
}

func (fc *funcCtx) emitIf(v *ast.IfExpr) {
	fc.emitExpr(v.Cond)
	resTy := ""
	if !isUnit(v.Type()) {
		resTy = fmt.Sprintf(" (result %s)", wasmValType(v.Type()))
	}
	fmt.Fprintf(fc.out, "    (if%s\n      (then\n", resTy)
	fc.emitExpr(v.Then)
	fc.out.WriteString("      )\n")
	if v.Else != nil {
		fc.out.WriteString("      (else\n")
		fc.emitExpr(v.Else)
		fc.out.WriteString("      )\n")
	}
	fc.out.WriteString("    )\n")
}

func (fc *funcCtx) emitLoop(l *ast.LoopExpr) {
	g := fc.gen
	tag := fmt.Sprintf("%d", g.nextLoopTag)
	g.nextLoopTag++
	if l.ID.Valid {
		g.loopLabels[l.ID.ID] = tag
	}
	if l.HasBreak {
		fmt.Fprintf(fc.out, "    (block $exit_%s\n      (loop $loop_%s\n", tag, tag)
		fc.emitExpr(l.Body)
		if !isUnit(l.Body.Type()) {
			fc.out.WriteString("        drop\n")
		}
		fmt.Fprintf(fc.out, "        br $loop_%s\n      )\n    )\n", tag)
		return
	}
	fmt.Fprintf(fc.out, "    (loop $loop_%s\n", tag)
	fc.emitExpr(l.Body)
	if !isUnit(l.Body.Type()) {
		fc.out.WriteString("      drop\n")
	}
	fmt.Fprintf(fc.out, "      br $loop_%s\n    )\n", tag)
}

func (fc *funcCtx) emitCall(v *ast.CallExpr) {
	g := fc.gen
	var res ast.Resolution
	switch callee := v.Callee.(type) {
	case *ast.IdentExpr:
		res = callee.Res
	case *ast.PathExpr:
		res = callee.Res
	default:
		fc.unsupported(v.Span, "unsupported call target %T", v.Callee)
		return
	}

	if res.Kind == ast.ResBuiltin {
		for _, a := range v.Args {
			fc.emitExpr(a)
		}
		fc.emitBuiltinCall(res.Builtin, v)
		return
	}
	if res.Kind != ast.ResItem {
		fc.unsupported(v.Span, "unresolved call target")
		return
	}
	for _, a := range v.Args {
		fc.emitExpr(a)
	}
	fmt.Fprintf(fc.out, "    call %s\n", g.callTarget(res.Item, v.Span))
}

func (fc *funcCtx) emitBuiltinCall(name string, call *ast.CallExpr) {
	g := fc.gen
	switch name {
	case "print":
		fmt.Fprintf(fc.out, "    call %s\n", g.printImport())
	case "trap":
		fc.out.WriteString("    unreachable\n")
	case "__i32_store":
		fc.out.WriteString("    i32.store\n")
	case "__i64_store":
		fc.out.WriteString("    i64.store\n")
	case "__i32_load":
		fc.out.WriteString("    i32.load\n")
	case "__i64_load":
		fc.out.WriteString("    i64.load\n")
	case "__i32_extend_to_i64_u":
		fc.out.WriteString("    i64.extend_i32_u\n")
	case "___transmute":
		// reinterpreting an operand's bit pattern as another same-width
		// type is a no-op at the instruction level; the value is left as-is.
	default:
		fc.unsupported(call.Span, "builtin %q is not supported by codegen", name)
	}
}

func (fc *funcCtx) emitFieldAccess(v *ast.FieldAccessExpr) {
	fc.emitExpr(v.Base)
	st, ok := v.Base.Type().(types.Struct)
	if !ok {
		fc.out.WriteString("    drop\n")
		fc.unsupported(v.Span, "field access on non-struct type %v reached codegen", v.Base.Type())
		return
	}
	if v.FieldIdx < 0 || v.FieldIdx >= len(st.Fields) {
		fc.out.WriteString("    drop\n")
		fc.unsupported(v.Span, "field %q index not resolved", v.Field)
		return
	}
	layout := fc.gen.layoutFor(st)
	off := layout.FieldOffsets[v.FieldIdx]
	loadOp := "i32.load"
	if isI64(st.Fields[v.FieldIdx].Type) {
		loadOp = "i64.load"
	}
	fmt.Fprintf(fc.out, "    %s offset=%d\n", loadOp, off)
}

// bumpAlloc emits the shared prologue for a boxed aggregate: claim the
// current bump pointer into a scratch local, advance the bump global past
// it by size bytes, and stamp a refcount of 1 into the header word.
func (fc *funcCtx) bumpAlloc(size int) int {
	slot := fc.newScratchSlot("i32")
	fmt.Fprintf(fc.out, "    global.get $__bump\n    local.set $l%d\n", slot)
	fmt.Fprintf(fc.out, "    global.get $__bump\n    i32.const %d\n    i32.add\n    global.set $__bump\n", size)
	fmt.Fprintf(fc.out, "    local.get $l%d\n    i32.const 1\n    i32.store\n", slot)
	return slot
}

func (fc *funcCtx) emitStructLiteral(v *ast.StructLiteralExpr) {
	st, ok := v.Type().(types.Struct)
	if !ok {
		fc.unsupported(v.Span, "struct literal %q missing a resolved type", v.Name)
		return
	}
	layout := fc.gen.layoutFor(st)
	slot := fc.bumpAlloc(layout.Size)

	for _, f := range v.Fields {
		if f.Index < 0 || f.Index >= len(st.Fields) {
			fc.gen.sink.Add(errors.New(errors.GEN001, v.Span, "field %q index not resolved", f.Name))
			continue
		}
		fmt.Fprintf(fc.out, "    local.get $l%d\n", slot)
		fc.emitExpr(f.Value)
		storeOp := "i32.store"
		if isI64(st.Fields[f.Index].Type) {
			storeOp = "i64.store"
		}
		fmt.Fprintf(fc.out, "    %s offset=%d\n", storeOp, layout.FieldOffsets[f.Index])
	}
	fmt.Fprintf(fc.out, "    local.get $l%d\n", slot)
}

func (fc *funcCtx) emitTupleLiteral(v *ast.TupleLiteralExpr) {
	tup, ok := v.Type().(types.Tuple)
	if !ok {
		fc.unsupported(v.Span, "tuple literal missing a resolved type")
		return
	}
	layout := ComputeTupleLayout(tup.Elems)
	slot := fc.bumpAlloc(layout.Size)

	for i, elem := range v.Elems {
		fmt.Fprintf(fc.out, "    local.get $l%d\n", slot)
		fc.emitExpr(elem)
		storeOp := "i32.store"
		if isI64(tup.Elems[i]) {
			storeOp = "i64.store"
		}
		fmt.Fprintf(fc.out, "    %s offset=%d\n", storeOp, layout.FieldOffsets[i])
	}
	fmt.Fprintf(fc.out, "    local.get $l%d\n", slot)
}
