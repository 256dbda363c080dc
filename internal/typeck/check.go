package typeck

import (
	"fmt"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// loopFrame tracks one in-flight loop while its body is being checked, so
// that break can find its innermost enclosing loop and flag it.
type loopFrame struct {
	id       ast.LoopIDRef
	hasBreak bool
}

// Checker folds one package from Resolved to Typecked. Construct a fresh
// one per package via Check; it is not reusable. Grounded on the teacher's
// internal/types/typechecker_core.go (one method per AST node kind) and
// typechecker_operators.go (operator-to-result-type table).
type Checker struct {
	ast.DefaultFolder

	ctx  *Context
	pkg  *ast.Package
	sink *errors.Sink

	sigCache      map[ids.ItemID]types.Ty
	aliasVisiting map[ids.ItemID]bool
	bodyCache     map[ids.ItemID]ast.Expr
	pending       map[ids.ItemID]bool

	infer     *types.InferCtx
	localTys  []types.Ty
	loopStack []*loopFrame
}

// Check type-checks pkg (which must be at phase Resolved) against ctx,
// returning a new package at phase Typecked with Sigs/Bodies populated.
func Check(ctx *Context, pkg *ast.Package) *ast.Package {
	pkg.MustAtLeast(ast.Resolved)

	c := &Checker{
		ctx:           ctx,
		pkg:           pkg,
		sink:          ctx.Sink,
		sigCache:      make(map[ids.ItemID]types.Ty),
		aliasVisiting: make(map[ids.ItemID]bool),
		bodyCache:     make(map[ids.ItemID]ast.Expr),
		pending:       make(map[ids.ItemID]bool),
	}
	c.Self = c

	// Lower every item's signature up front so forward references within
	// the same package (and to already-finalized dependency packages) see
	// a populated sigCache regardless of declaration order, and so that
	// alias-cycle detection runs even for type declarations no function
	// ever references (spec.md §9: cycle detection is mandatory).
	for id, it := range pkg.ByID {
		if _, ok := it.(*ast.TypeItem); ok {
			c.typeOfTypeItem(id)
			continue
		}
		c.typeOfItem(id)
	}

	out := ast.FoldPackage(c, pkg, ast.Typecked)
	out.Sigs = make(map[ids.ItemID]types.Ty, len(pkg.ByID))
	out.Bodies = make(map[ids.ItemID]ast.Expr)
	for id, it := range out.ByID {
		out.Sigs[id] = c.typeOfItem(id)
		if fn, ok := it.(*ast.FuncItem); ok {
			out.Bodies[id] = fn.Body
		}
	}

	ctx.Packages[pkg.PkgID] = out
	return out
}

// FoldItem checks function and global bodies with a fresh per-item
// inference context; every other item kind only needed signature lowering,
// already done in sigCache.
func (c *Checker) FoldItem(it ast.Item) ast.Item {
	switch v := it.(type) {
	case *ast.FuncItem:
		sig := c.typeOfItem(v.ID).(types.Fn)
		body, ok := c.bodyCache[v.ID]
		if !ok {
			// v.ID is mid-checkFuncItem on the call stack that reached
			// here (a recursive reference resolved before its own return
			// type was known); its eventual body will still be folded
			// when that outer call completes, so this path is never
			// actually reached for any well-formed, non-cyclic program.
			body = v.Body
		}
		return &ast.FuncItem{ItemCommon: v.ItemCommon, TypeParams: v.TypeParams, Params: v.Params, ReturnType: v.ReturnType, Body: body, Sig: &sig}

	case *ast.GlobalItem:
		c.infer = types.NewInferCtx()
		c.localTys = nil
		c.loopStack = nil

		declTy := c.typeOfItem(v.ID)
		init := c.checkExpr(v.Init)
		if err := c.infer.Assign(declTy, init.Type()); err != nil {
			c.sink.Add(errors.New(errors.TC001, init.Position(), "%s", err.Error()))
		}
		c.resolveDeep(init)
		return &ast.GlobalItem{ItemCommon: v.ItemCommon, Mut: v.Mut, Type: v.Type, Init: init}

	default:
		return ast.SuperFoldItem(c, it)
	}
}

// resolveDeep walks e and its sub-expressions, replacing each type with
// its fully-resolved form via the inference context's substitution,
// diagnosing any expression whose type still contains an unbound
// variable. This is spec.md §4.4's end-of-body resolver pass.
func (c *Checker) resolveDeep(e ast.Expr) {
	if t := e.Type(); t != nil {
		if resolved, ok := c.infer.Resolve(t); ok {
			e.SetType(resolved)
		} else if _, isErr := t.(types.Error); !isErr {
			c.sink.Add(errors.New(errors.TC002, e.Position(), "cannot infer type"))
			e.SetType(types.Error{})
		}
	}
	switch v := e.(type) {
	case *ast.LetExpr:
		c.resolveDeep(v.Rhs)
		if v.Info != nil {
			v.Info.Type = v.Rhs.Type()
		}
	case *ast.AssignExpr:
		c.resolveDeep(v.Lhs)
		c.resolveDeep(v.Rhs)
	case *ast.BlockExpr:
		for _, sub := range v.Exprs {
			c.resolveDeep(sub)
		}
	case *ast.BinaryExpr:
		c.resolveDeep(v.Left)
		c.resolveDeep(v.Right)
	case *ast.UnaryExpr:
		c.resolveDeep(v.Operand)
	case *ast.CallExpr:
		c.resolveDeep(v.Callee)
		for _, a := range v.Args {
			c.resolveDeep(a)
		}
	case *ast.FieldAccessExpr:
		c.resolveDeep(v.Base)
	case *ast.IfExpr:
		c.resolveDeep(v.Cond)
		c.resolveDeep(v.Then)
		if v.Else != nil {
			c.resolveDeep(v.Else)
		}
	case *ast.LoopExpr:
		c.resolveDeep(v.Body)
	case *ast.StructLiteralExpr:
		for _, f := range v.Fields {
			c.resolveDeep(f.Value)
		}
	case *ast.TupleLiteralExpr:
		for _, el := range v.Elems {
			c.resolveDeep(el)
		}
	}
}

// checkFuncItem computes a function's signature by checking its body,
// memoizing both in sigCache/bodyCache. A function without an explicit
// return-type annotation has that type inferred from its body (spec.md §8
// scenario 1: `function main() = (let a: Int = 1; a);` types as
// `fn() -> int` with no return-type syntax at all), so signature lowering
// and body checking cannot be separate passes for functions the way they
// are for imports. pending guards against a function whose body calls
// itself (directly or through a cycle) before its own return type is
// known; such a call sees Error rather than recursing forever.
func (c *Checker) checkFuncItem(v *ast.FuncItem) types.Ty {
	if c.pending[v.ID] {
		return types.Error{}
	}
	c.pending[v.ID] = true
	defer delete(c.pending, v.ID)

	params := make([]types.Ty, len(v.Params))
	for i, p := range v.Params {
		params[i] = c.lowerAstTy(p.Type)
	}

	savedInfer, savedLocals, savedLoops := c.infer, c.localTys, c.loopStack
	c.infer = types.NewInferCtx()
	c.localTys = append([]types.Ty{}, params...)
	c.loopStack = nil

	var retTy types.Ty
	if v.ReturnType != nil {
		retTy = c.lowerAstTy(v.ReturnType)
	} else {
		retTy = c.infer.NewVar()
	}

	body := c.checkExpr(v.Body)
	if err := c.infer.Assign(retTy, body.Type()); err != nil {
		c.sink.Add(errors.New(errors.TC001, body.Position(), "%s", err.Error()))
	}

	resolvedRet, ok := c.infer.Resolve(retTy)
	if !ok {
		c.sink.Add(errors.New(errors.TC002, v.Position(), "cannot infer return type of %q", v.Name))
		resolvedRet = types.Error{}
	}

	c.resolveDeep(body)
	c.bodyCache[v.ID] = body

	c.infer, c.localTys, c.loopStack = savedInfer, savedLocals, savedLoops

	return types.Fn{Params: params, Ret: resolvedRet}
}

// checkExpr is the per-expression-form dispatch table, following spec.md
// §4.4's contract list.
func (c *Checker) checkExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.EmptyExpr:
		out := &ast.EmptyExpr{ExprCommon: v.ExprCommon}
		out.SetType(types.Prim{Kind: types.Unit})
		return out

	case *ast.LetExpr:
		return c.checkLet(v)

	case *ast.AssignExpr:
		return c.checkAssign(v)

	case *ast.BlockExpr:
		return c.checkBlock(v)

	case *ast.LiteralExpr:
		return c.checkLiteral(v)

	case *ast.IdentExpr:
		out := &ast.IdentExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: v.Res}
		out.SetType(c.typeOfValue(v.Res, v.Span))
		return out

	case *ast.PathExpr:
		out := &ast.PathExpr{ExprCommon: v.ExprCommon, Segments: v.Segments, Res: v.Res}
		out.SetType(c.typeOfValue(v.Res, v.Span))
		return out

	case *ast.BinaryExpr:
		return c.checkBinary(v)

	case *ast.UnaryExpr:
		return c.checkUnary(v)

	case *ast.CallExpr:
		return c.checkCall(v)

	case *ast.FieldAccessExpr:
		return c.checkFieldAccess(v)

	case *ast.IfExpr:
		return c.checkIf(v)

	case *ast.LoopExpr:
		return c.checkLoop(v)

	case *ast.BreakExpr:
		return c.checkBreak(v)

	case *ast.StructLiteralExpr:
		return c.checkStructLiteral(v)

	case *ast.TupleLiteralExpr:
		elems := make([]ast.Expr, len(v.Elems))
		elemTys := make([]types.Ty, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = c.checkExpr(el)
			elemTys[i] = elems[i].Type()
		}
		out := &ast.TupleLiteralExpr{ExprCommon: v.ExprCommon, Elems: elems}
		out.SetType(types.Tuple{Elems: elemTys})
		return out

	case *ast.AsmExpr:
		out := &ast.AsmExpr{ExprCommon: v.ExprCommon, Instrs: v.Instrs}
		out.SetType(v.Type())
		if out.Type() == nil {
			out.SetType(c.infer.NewVar())
		}
		return out

	case *ast.ErrorExpr:
		out := &ast.ErrorExpr{ExprCommon: v.ExprCommon, Token: v.Token}
		out.SetType(types.Error{})
		return out

	default:
		panic(fmt.Sprintf("wasmlet: checkExpr: unhandled expr kind %T", e))
	}
}

func (c *Checker) checkLet(v *ast.LetExpr) ast.Expr {
	var declared types.Ty
	if v.Ascribed != nil {
		declared = c.lowerAstTy(v.Ascribed)
	} else {
		declared = c.infer.NewVar()
	}
	rhs := c.checkExpr(v.Rhs)
	if err := c.infer.Assign(declared, rhs.Type()); err != nil {
		c.sink.Add(errors.New(errors.TC001, rhs.Position(), "%s", err.Error()))
	}
	c.localTys = append(c.localTys, declared)

	info := v.Info
	if info == nil {
		info = &ast.LocalInfo{Name: v.Name, Pos: v.Span.Start}
	}
	info.Type = declared

	out := &ast.LetExpr{ExprCommon: v.ExprCommon, Name: v.Name, Ascribed: v.Ascribed, Rhs: rhs, Info: info}
	out.SetType(types.Prim{Kind: types.Unit})
	return out
}

func (c *Checker) checkAssign(v *ast.AssignExpr) ast.Expr {
	lhs := c.checkExpr(v.Lhs)
	rhs := c.checkExpr(v.Rhs)
	if err := c.infer.Assign(lhs.Type(), rhs.Type()); err != nil {
		c.sink.Add(errors.New(errors.TC001, rhs.Position(), "%s", err.Error()))
	}
	if !c.isAssignable(v.Lhs) {
		c.sink.Add(errors.New(errors.TC006, v.Lhs.Position(), "left side of assignment is not a mutable place"))
	}
	out := &ast.AssignExpr{ExprCommon: v.ExprCommon, Lhs: lhs, Rhs: rhs}
	out.SetType(types.Prim{Kind: types.Unit})
	return out
}

// isAssignable implements spec.md §4.4's l-value rule: an identifier/path
// resolving to a local or a mutable global, or a field-access chain whose
// eventual root is itself an l-value.
func (c *Checker) isAssignable(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.IdentExpr:
		return c.isAssignableRes(v.Res)
	case *ast.PathExpr:
		return c.isAssignableRes(v.Res)
	case *ast.FieldAccessExpr:
		return c.isAssignable(v.Base)
	default:
		return false
	}
}

func (c *Checker) isAssignableRes(res ast.Resolution) bool {
	switch res.Kind {
	case ast.ResLocal:
		return true
	case ast.ResItem:
		it, ok := c.lookupItem(res.Item)
		if !ok {
			return false
		}
		g, ok := it.(*ast.GlobalItem)
		return ok && g.Mut
	default:
		return false
	}
}

func (c *Checker) checkBlock(v *ast.BlockExpr) ast.Expr {
	depth := len(c.localTys)
	exprs := make([]ast.Expr, len(v.Exprs))
	for i, sub := range v.Exprs {
		exprs[i] = c.checkExpr(sub)
	}
	c.localTys = c.localTys[:depth]

	out := &ast.BlockExpr{ExprCommon: v.ExprCommon, Exprs: exprs, Locals: v.Locals}
	if len(exprs) == 0 {
		out.SetType(types.Prim{Kind: types.Unit})
	} else {
		out.SetType(exprs[len(exprs)-1].Type())
	}
	return out
}

func (c *Checker) checkLiteral(v *ast.LiteralExpr) ast.Expr {
	out := &ast.LiteralExpr{ExprCommon: v.ExprCommon, Kind: v.Kind, Str: v.Str, Int: v.Int}
	switch v.Kind {
	case ast.LitString:
		out.SetType(types.Prim{Kind: types.String})
	case ast.LitIntDefault:
		out.SetType(types.Prim{Kind: types.Int})
	case ast.LitIntI32:
		out.SetType(types.Prim{Kind: types.I32})
	}
	return out
}

// typeOfValue implements spec.md §4.4's "ident / path" rule.
func (c *Checker) typeOfValue(res ast.Resolution, span ast.Span) types.Ty {
	switch res.Kind {
	case ast.ResLocal:
		idx := len(c.localTys) - 1 - res.LocalIndex
		if idx < 0 || idx >= len(c.localTys) {
			return types.Error{}
		}
		return c.localTys[idx]
	case ast.ResItem:
		return c.typeOfItem(res.Item)
	case ast.ResBuiltin:
		return c.typeOfBuiltin(res.Builtin)
	case ast.ResTyParam:
		c.sink.Add(errors.New(errors.TC001, span, "type parameter cannot be used as a value"))
		return types.Error{}
	default:
		return types.Error{}
	}
}

// typeOfBuiltin gives each fixed builtin name its value type, per
// spec.md's Glossary entry enumerating the closed builtin set.
func (c *Checker) typeOfBuiltin(name string) types.Ty {
	str := types.Prim{Kind: types.String}
	i32 := types.Prim{Kind: types.I32}
	i64 := types.Prim{Kind: types.Int}
	unit := types.Prim{Kind: types.Unit}
	never := types.Prim{Kind: types.Never}
	boolean := types.Prim{Kind: types.Bool}

	switch name {
	case "print":
		return types.Fn{Params: []types.Ty{str}, Ret: unit}
	case "String":
		return types.Fn{Params: []types.Ty{}, Ret: str}
	case "Int":
		return types.Fn{Params: []types.Ty{}, Ret: i64}
	case "I32":
		return types.Fn{Params: []types.Ty{}, Ret: i32}
	case "Bool":
		return types.Fn{Params: []types.Ty{}, Ret: boolean}
	case "true", "false":
		return boolean
	case "trap":
		return types.Fn{Params: []types.Ty{}, Ret: never}
	case "__NULL":
		return types.RawPtr{Inner: c.infer.NewVar()}
	case "__i32_store":
		return types.Fn{Params: []types.Ty{types.RawPtr{Inner: c.infer.NewVar()}, i32}, Ret: unit}
	case "__i64_store":
		return types.Fn{Params: []types.Ty{types.RawPtr{Inner: c.infer.NewVar()}, i64}, Ret: unit}
	case "__i32_load":
		return types.Fn{Params: []types.Ty{types.RawPtr{Inner: c.infer.NewVar()}}, Ret: i32}
	case "__i64_load":
		return types.Fn{Params: []types.Ty{types.RawPtr{Inner: c.infer.NewVar()}}, Ret: i64}
	case "__i32_extend_to_i64_u":
		return types.Fn{Params: []types.Ty{i32}, Ret: i64}
	case "__locals":
		return types.Fn{Params: []types.Ty{}, Ret: i64}
	case "___transmute":
		// Special-cased at the call site: its type here only matters when
		// referenced outside a call, which is not well-formed.
		return types.Fn{Params: []types.Ty{c.infer.NewVar()}, Ret: c.infer.NewVar()}
	case "___asm":
		return types.Fn{Params: []types.Ty{}, Ret: c.infer.NewVar()}
	default:
		return types.Error{}
	}
}

func (c *Checker) checkBinary(v *ast.BinaryExpr) ast.Expr {
	left := c.checkExpr(v.Left)
	right := c.checkExpr(v.Right)
	out := &ast.BinaryExpr{ExprCommon: v.ExprCommon, Op: v.Op, Left: left, Right: right}
	out.SetType(c.inferBinOp(v.Op, left, right, v.Span))
	return out
}

// inferBinOp implements spec.md §4.4's "Binary operator typing" table.
func (c *Checker) inferBinOp(op string, left, right ast.Expr, span ast.Span) types.Ty {
	lt := c.infer.ResolveIfPossible(left.Type())
	rt := c.infer.ResolveIfPossible(right.Type())

	mismatch := func() types.Ty {
		c.sink.Add(errors.New(errors.TC001, span, "operator %q cannot be applied to %s and %s", op, lt, rt))
		return types.Error{}
	}

	switch op {
	case "+", "-", "*", "/", "%":
		if types.IsPrim(lt, types.Int) && types.IsPrim(rt, types.Int) {
			return types.Prim{Kind: types.Int}
		}
		if types.IsPrim(lt, types.I32) && types.IsPrim(rt, types.I32) {
			return types.Prim{Kind: types.I32}
		}
		return mismatch()

	case "<", ">", "<=", ">=":
		if types.IsPrim(lt, types.Int) && types.IsPrim(rt, types.Int) {
			return types.Prim{Kind: types.Bool}
		}
		if types.IsPrim(lt, types.I32) && types.IsPrim(rt, types.I32) {
			return types.Prim{Kind: types.Bool}
		}
		if types.IsPrim(lt, types.String) && types.IsPrim(rt, types.String) {
			return types.Prim{Kind: types.Bool}
		}
		if lp, ok := lt.(types.RawPtr); ok {
			if rp, ok := rt.(types.RawPtr); ok {
				if err := c.infer.Assign(lp.Inner, rp.Inner); err != nil {
					return mismatch()
				}
				return types.Prim{Kind: types.Bool}
			}
		}
		return mismatch()

	case "==", "!=":
		if types.IsPrim(lt, types.Bool) && types.IsPrim(rt, types.Bool) {
			return types.Prim{Kind: types.Bool}
		}
		if types.IsPrim(lt, types.Int) && types.IsPrim(rt, types.Int) {
			return types.Prim{Kind: types.Bool}
		}
		if types.IsPrim(lt, types.I32) && types.IsPrim(rt, types.I32) {
			return types.Prim{Kind: types.Bool}
		}
		if types.IsPrim(lt, types.String) && types.IsPrim(rt, types.String) {
			return types.Prim{Kind: types.Bool}
		}
		if lp, ok := lt.(types.RawPtr); ok {
			if rp, ok := rt.(types.RawPtr); ok {
				if err := c.infer.Assign(lp.Inner, rp.Inner); err != nil {
					return mismatch()
				}
				return types.Prim{Kind: types.Bool}
			}
		}
		return mismatch()

	case "&", "|":
		if types.IsPrim(lt, types.Bool) && types.IsPrim(rt, types.Bool) {
			return types.Prim{Kind: types.Bool}
		}
		return mismatch()

	default:
		return mismatch()
	}
}

// checkUnary implements `!` on int/i32/bool, and the Open Question
// resolution for `-`: two's-complement negation on int/i32 (DESIGN.md).
func (c *Checker) checkUnary(v *ast.UnaryExpr) ast.Expr {
	operand := c.checkExpr(v.Operand)
	out := &ast.UnaryExpr{ExprCommon: v.ExprCommon, Op: v.Op, Operand: operand}

	ot := c.infer.ResolveIfPossible(operand.Type())
	switch v.Op {
	case "!":
		if types.IsPrim(ot, types.Int) || types.IsPrim(ot, types.I32) || types.IsPrim(ot, types.Bool) {
			out.SetType(ot)
			return out
		}
		c.sink.Add(errors.New(errors.TC001, v.Span, "operator \"!\" cannot be applied to %s", ot))
		out.SetType(types.Error{})
		return out
	case "-":
		if types.IsPrim(ot, types.Int) || types.IsPrim(ot, types.I32) {
			out.SetType(ot)
			return out
		}
		c.sink.Add(errors.New(errors.TC001, v.Span, "operator \"-\" cannot be applied to %s", ot))
		out.SetType(types.Error{})
		return out
	default:
		c.sink.Add(errors.New(errors.TC001, v.Span, "unknown unary operator %q", v.Op))
		out.SetType(types.Error{})
		return out
	}
}

func (c *Checker) checkCall(v *ast.CallExpr) ast.Expr {
	if ident, ok := v.Callee.(*ast.IdentExpr); ok && ident.Res.Kind == ast.ResBuiltin && ident.Res.Builtin == "___transmute" {
		args := make([]ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = c.checkExpr(a)
		}
		calleeOut := &ast.IdentExpr{ExprCommon: ident.ExprCommon, Name: ident.Name, Res: ident.Res}
		calleeOut.SetType(types.Fn{})
		out := &ast.CallExpr{ExprCommon: v.ExprCommon, Callee: calleeOut, Args: args}
		out.SetType(c.infer.NewVar())
		return out
	}

	callee := c.checkExpr(v.Callee)
	args := make([]ast.Expr, len(v.Args))
	for i, a := range v.Args {
		args[i] = c.checkExpr(a)
	}
	out := &ast.CallExpr{ExprCommon: v.ExprCommon, Callee: callee, Args: args}

	fn, ok := c.infer.ResolveIfPossible(callee.Type()).(types.Fn)
	if !ok {
		c.sink.Add(errors.New(errors.TC001, v.Span, "cannot call a non-function value"))
		out.SetType(types.Error{})
		return out
	}
	if len(fn.Params) != len(args) {
		c.sink.Add(errors.New(errors.TC005, v.Span, "expected %d argument(s), found %d", len(fn.Params), len(args)))
		out.SetType(types.Error{})
		return out
	}
	for i, a := range args {
		if err := c.infer.Assign(fn.Params[i], a.Type()); err != nil {
			c.sink.Add(errors.New(errors.TC001, a.Position(), "%s", err.Error()))
		}
	}
	out.SetType(fn.Ret)
	return out
}

func (c *Checker) checkFieldAccess(v *ast.FieldAccessExpr) ast.Expr {
	base := c.checkExpr(v.Base)
	out := &ast.FieldAccessExpr{ExprCommon: v.ExprCommon, Base: base, Field: v.Field, FieldIdx: -1}

	bt := c.infer.ResolveIfPossible(base.Type())
	if rp, ok := bt.(types.RawPtr); ok {
		bt = c.infer.ResolveIfPossible(rp.Inner)
	}

	switch bty := bt.(type) {
	case types.Tuple:
		idx, err := parseTupleIndex(v.Field)
		if err != nil || idx < 0 || idx >= len(bty.Elems) {
			c.sink.Add(errors.New(errors.TC008, v.Span, "no field %q on tuple type %s", v.Field, bty))
			out.SetType(types.Error{})
			return out
		}
		out.FieldIdx = idx
		out.SetType(bty.Elems[idx])
		return out

	case types.Struct:
		idx := bty.FieldIndex(v.Field)
		if idx < 0 {
			c.sink.Add(errors.New(errors.TC008, v.Span, "struct %q has no field %q", bty.Name, v.Field))
			out.SetType(types.Error{})
			return out
		}
		out.FieldIdx = idx
		out.SetType(bty.Fields[idx].Type)
		return out

	default:
		c.sink.Add(errors.New(errors.TC008, v.Span, "cannot access field %q on %s", v.Field, bt))
		out.SetType(types.Error{})
		return out
	}
}

func parseTupleIndex(field string) (int, error) {
	var n int
	_, err := fmt.Sscanf(field, "%d", &n)
	return n, err
}

func (c *Checker) checkIf(v *ast.IfExpr) ast.Expr {
	cond := c.checkExpr(v.Cond)
	if err := c.infer.Assign(types.Prim{Kind: types.Bool}, cond.Type()); err != nil {
		c.sink.Add(errors.New(errors.TC001, cond.Position(), "%s", err.Error()))
	}
	then := c.checkExpr(v.Then)

	out := &ast.IfExpr{ExprCommon: v.ExprCommon, Cond: cond, Then: then}
	if v.Else != nil {
		els := c.checkExpr(v.Else)
		out.Else = els
		if err := c.infer.Assign(then.Type(), els.Type()); err != nil {
			c.sink.Add(errors.New(errors.TC001, els.Position(), "%s", err.Error()))
		}
		out.SetType(then.Type())
		return out
	}
	if err := c.infer.Assign(then.Type(), types.Prim{Kind: types.Unit}); err != nil {
		c.sink.Add(errors.New(errors.TC001, then.Position(), "%s", err.Error()))
	}
	out.SetType(types.Prim{Kind: types.Unit})
	return out
}

func (c *Checker) checkLoop(v *ast.LoopExpr) ast.Expr {
	frame := &loopFrame{id: v.ID}
	c.loopStack = append(c.loopStack, frame)
	body := c.checkExpr(v.Body)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]

	// A loop with at least one break is a while-style loop: every
	// iteration's body value is discarded, so it must be unit. A loop
	// with no break never returns control through its body at all, so
	// the body's type is unconstrained — this is what lets
	// `loop ( 1 )` (body type int) type-check to `!`.
	if frame.hasBreak {
		if err := c.infer.Assign(types.Prim{Kind: types.Unit}, body.Type()); err != nil {
			c.sink.Add(errors.New(errors.TC001, body.Position(), "%s", err.Error()))
		}
	}

	out := &ast.LoopExpr{ExprCommon: v.ExprCommon, ID: v.ID, Body: body, HasBreak: frame.hasBreak}
	if frame.hasBreak {
		out.SetType(types.Prim{Kind: types.Unit})
	} else {
		out.SetType(types.Prim{Kind: types.Never})
	}
	return out
}

func (c *Checker) checkBreak(v *ast.BreakExpr) ast.Expr {
	if len(c.loopStack) == 0 {
		c.sink.Add(errors.New(errors.RES003, v.Span, "break occurs outside any enclosing loop"))
		return &ast.ErrorExpr{ExprCommon: ast.ExprCommon{Span: v.Span, Ty: types.Error{}}, Token: "break"}
	}
	frame := c.loopStack[len(c.loopStack)-1]
	frame.hasBreak = true

	out := &ast.BreakExpr{ExprCommon: v.ExprCommon, Target: frame.id}
	out.SetType(types.Prim{Kind: types.Never})
	return out
}

func (c *Checker) checkStructLiteral(v *ast.StructLiteralExpr) ast.Expr {
	out := &ast.StructLiteralExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: v.Res}

	if v.Res.Kind != ast.ResItem {
		for _, f := range v.Fields {
			out.Fields = append(out.Fields, &ast.FieldInit{Name: f.Name, Value: c.checkExpr(f.Value), Index: -1, Pos: f.Pos})
		}
		out.SetType(types.Error{})
		return out
	}

	st, ok := c.typeOfTypeItem(v.Res.Item).(types.Struct)
	if !ok {
		c.sink.Add(errors.New(errors.TC001, v.Span, "%q does not name a struct type", v.Name))
		for _, f := range v.Fields {
			out.Fields = append(out.Fields, &ast.FieldInit{Name: f.Name, Value: c.checkExpr(f.Value), Index: -1, Pos: f.Pos})
		}
		out.SetType(types.Error{})
		return out
	}

	seen := make(map[string]bool, len(v.Fields))
	fields := make([]*ast.FieldInit, len(v.Fields))
	for i, f := range v.Fields {
		val := c.checkExpr(f.Value)
		idx := st.FieldIndex(f.Name)
		if idx < 0 {
			c.sink.Add(errors.New(errors.TC008, f.Value.Position(), "struct %q has no field %q", st.Name, f.Name))
			fields[i] = &ast.FieldInit{Name: f.Name, Value: val, Index: -1, Pos: f.Pos}
			continue
		}
		if err := c.infer.Assign(st.Fields[idx].Type, val.Type()); err != nil {
			c.sink.Add(errors.New(errors.TC001, f.Value.Position(), "%s", err.Error()))
		}
		seen[f.Name] = true
		fields[i] = &ast.FieldInit{Name: f.Name, Value: val, Index: idx, Pos: f.Pos}
	}
	out.Fields = fields

	// st.Fields is already declared order, so missing is built in declared
	// order too — more faithful than an alphabetical sort when more than one
	// field is absent.
	var missing []string
	for _, fd := range st.Fields {
		if !seen[fd.Name] {
			missing = append(missing, fd.Name)
		}
	}
	if len(missing) > 0 {
		names := missing[0]
		for _, m := range missing[1:] {
			names += ", " + m
		}
		c.sink.Add(errors.New(errors.TC007, v.Span, "missing fields in literal: %s", names))
	}

	out.SetType(st)
	return out
}
