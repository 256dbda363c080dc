package typeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/resolve"
	"github.com/wasmlet/wasmlet/internal/types"
)

func item(name string, idx int) ast.ItemCommon {
	return ast.ItemCommon{Name: name, ID: ids.ItemID{Pkg: 1, Idx: idx}}
}

// resolveThenCheck runs pkg (at phase Built) through resolve then typeck,
// matching the real pipeline order.
func resolveThenCheck(t *testing.T, pkg *ast.Package) (*ast.Package, *errors.Sink) {
	t.Helper()
	sink := errors.NewSink()
	resolved := resolve.Resolve(resolve.NewContext(sink, nil), pkg)
	require.False(t, sink.HasErrors(), "resolve: %+v", sink.Reports())
	out := Check(NewContext(sink), resolved)
	return out, sink
}

func TestCheckLetWithAscriptionMatchesLiteral(t *testing.T) {
	// function main() = (let a: Int = 1; a);
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.BlockExpr{Exprs: []ast.Expr{
			&ast.LetExpr{Name: "a", Ascribed: &ast.IdentType{Name: "Int"}, Rhs: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}},
			&ast.IdentExpr{Name: "a"},
		}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	sig := out.Sigs[ids.ItemID{Pkg: 1, Idx: 1}].(types.Fn)
	assert.Equal(t, types.Prim{Kind: types.Int}, sig.Ret)

	body := out.Bodies[ids.ItemID{Pkg: 1, Idx: 1}]
	assert.Equal(t, types.Prim{Kind: types.Int}, body.Type())
}

func TestCheckLetAscriptionMismatchDiagnoses(t *testing.T) {
	// function main() = (let a: Int = ""; a);
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.BlockExpr{Exprs: []ast.Expr{
			&ast.LetExpr{Name: "a", Ascribed: &ast.IdentType{Name: "Int"}, Rhs: &ast.LiteralExpr{Kind: ast.LitString, Str: ""}},
			&ast.IdentExpr{Name: "a"},
		}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC001, sink.Reports()[0].Code)
}

func TestCheckStructLiteralMissingFieldDiagnoses(t *testing.T) {
	// type Pair = struct { x: Int, y: Int }; function f() = Pair { x: 1 };
	ty := &ast.TypeItem{ItemCommon: item("Pair", 1), Def: &ast.StructDef{Fields: []*ast.FieldDecl{
		{Name: "x", Type: &ast.IdentType{Name: "Int"}},
		{Name: "y", Type: &ast.IdentType{Name: "Int"}},
	}}}
	fn := &ast.FuncItem{
		ItemCommon: item("f", 2),
		Body: &ast.StructLiteralExpr{Name: "Pair", Fields: []*ast.FieldInit{
			{Name: "x", Value: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}, Index: -1},
		}},
	}
	root := []ast.Item{ty, fn}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC007, sink.Reports()[0].Code)
	assert.Contains(t, sink.Reports()[0].Message, "y")
}

func TestCheckModulePathCallResolvesAndChecks(t *testing.T) {
	// mod m (function g() = (););  function main() = m.g();
	g := &ast.FuncItem{ItemCommon: item("g", 2), Body: &ast.EmptyExpr{}}
	mod := &ast.ModItem{ItemCommon: item("m", 1), Items: []ast.Item{g}}
	main := &ast.FuncItem{
		ItemCommon: item("main", 3),
		Body: &ast.BlockExpr{Exprs: []ast.Expr{
			&ast.CallExpr{Callee: &ast.FieldAccessExpr{Base: &ast.IdentExpr{Name: "m"}, Field: "g"}},
		}},
	}
	root := []ast.Item{mod, main}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	body := out.Bodies[ids.ItemID{Pkg: 1, Idx: 3}].(*ast.BlockExpr)
	call := body.Exprs[0].(*ast.CallExpr)
	_, isPath := call.Callee.(*ast.PathExpr)
	assert.True(t, isPath, "expected m.g() callee to remain a PathExpr through typecheck, got %T", call.Callee)
	assert.Equal(t, types.Prim{Kind: types.Unit}, call.Type())
}

func TestCheckLoopWithBreakIsUnit(t *testing.T) {
	// function main() = loop ( break );
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.LoopExpr{ID: ast.LoopIDRef{ID: 0, Valid: true}, Body: &ast.BreakExpr{}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	sig := out.Sigs[ids.ItemID{Pkg: 1, Idx: 1}].(types.Fn)
	assert.Equal(t, types.Prim{Kind: types.Unit}, sig.Ret)

	loop := out.Bodies[ids.ItemID{Pkg: 1, Idx: 1}].(*ast.LoopExpr)
	assert.True(t, loop.HasBreak)
	brk := loop.Body.(*ast.BreakExpr)
	assert.True(t, brk.Target.Valid)
	assert.Equal(t, loop.ID.ID, brk.Target.ID)
}

func TestCheckLoopWithoutBreakIsNeverAndUnifiesWithLet(t *testing.T) {
	// function main() = (let a: Int = loop ( 1 ); a);
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.BlockExpr{Exprs: []ast.Expr{
			&ast.LetExpr{Name: "a", Ascribed: &ast.IdentType{Name: "Int"}, Rhs: &ast.LoopExpr{
				ID:   ast.LoopIDRef{ID: 0, Valid: true},
				Body: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1},
			}},
			&ast.IdentExpr{Name: "a"},
		}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	sig := out.Sigs[ids.ItemID{Pkg: 1, Idx: 1}].(types.Fn)
	assert.Equal(t, types.Prim{Kind: types.Int}, sig.Ret)

	block := out.Bodies[ids.ItemID{Pkg: 1, Idx: 1}].(*ast.BlockExpr)
	let := block.Exprs[0].(*ast.LetExpr)
	loop := let.Rhs.(*ast.LoopExpr)
	assert.False(t, loop.HasBreak)
	assert.Equal(t, types.Prim{Kind: types.Never}, loop.Type())
}

func TestCheckAssignToImmutableGlobalDiagnoses(t *testing.T) {
	g := &ast.GlobalItem{ItemCommon: item("g", 1), Mut: false, Type: &ast.IdentType{Name: "Int"}, Init: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 0}}
	fn := &ast.FuncItem{
		ItemCommon: item("main", 2),
		Body: &ast.AssignExpr{Lhs: &ast.IdentExpr{Name: "g"}, Rhs: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}},
	}
	root := []ast.Item{g, fn}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC006, sink.Reports()[0].Code)
}

func TestCheckAssignToMutableGlobalSucceeds(t *testing.T) {
	g := &ast.GlobalItem{ItemCommon: item("g", 1), Mut: true, Type: &ast.IdentType{Name: "Int"}, Init: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 0}}
	fn := &ast.FuncItem{
		ItemCommon: item("main", 2),
		Body: &ast.AssignExpr{Lhs: &ast.IdentExpr{Name: "g"}, Rhs: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}},
	}
	root := []ast.Item{g, fn}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	_, sink := resolveThenCheck(t, pkg)
	assert.False(t, sink.HasErrors())
}

func TestCheckBinaryIntArithmeticAndComparison(t *testing.T) {
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.BinaryExpr{Op: "<", Left: &ast.BinaryExpr{
			Op: "+", Left: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}, Right: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 2},
		}, Right: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 3}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	sig := out.Sigs[ids.ItemID{Pkg: 1, Idx: 1}].(types.Fn)
	assert.Equal(t, types.Prim{Kind: types.Bool}, sig.Ret)
}

func TestCheckBinaryMixedKindsDiagnoses(t *testing.T) {
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body: &ast.BinaryExpr{Op: "+",
			Left:  &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1},
			Right: &ast.LiteralExpr{Kind: ast.LitIntI32, Int: 2},
		},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC001, sink.Reports()[0].Code)
}

func TestCheckCallArityMismatchDiagnoses(t *testing.T) {
	callee := &ast.FuncItem{ItemCommon: item("f", 1), Params: []*ast.Param{{Name: "x", Type: &ast.IdentType{Name: "Int"}}}, ReturnType: &ast.IdentType{Name: "Int"}, Body: &ast.IdentExpr{Name: "x"}}
	main := &ast.FuncItem{
		ItemCommon: item("main", 2),
		Body:       &ast.CallExpr{Callee: &ast.IdentExpr{Name: "f"}},
	}
	root := []ast.Item{callee, main}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC005, sink.Reports()[0].Code)
}

func TestCheckFieldAccessOnStructRecordsIndex(t *testing.T) {
	ty := &ast.TypeItem{ItemCommon: item("Pair", 1), Def: &ast.StructDef{Fields: []*ast.FieldDecl{
		{Name: "x", Type: &ast.IdentType{Name: "Int"}},
		{Name: "y", Type: &ast.IdentType{Name: "Int"}},
	}}}
	fn := &ast.FuncItem{
		ItemCommon: item("f", 2),
		Body: &ast.FieldAccessExpr{
			Base:     &ast.StructLiteralExpr{Name: "Pair", Fields: []*ast.FieldInit{{Name: "x", Value: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}, Index: -1}, {Name: "y", Value: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 2}, Index: -1}}},
			Field:    "y",
			FieldIdx: -1,
		},
	}
	root := []ast.Item{ty, fn}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())

	access := out.Bodies[ids.ItemID{Pkg: 1, Idx: 2}].(*ast.FieldAccessExpr)
	assert.Equal(t, 1, access.FieldIdx)
	assert.Equal(t, types.Prim{Kind: types.Int}, access.Type())
}

func TestCheckUnaryMinusOnIntSucceeds(t *testing.T) {
	fn := &ast.FuncItem{
		ItemCommon: item("main", 1),
		Body:       &ast.UnaryExpr{Op: "-", Operand: &ast.LiteralExpr{Kind: ast.LitIntDefault, Int: 1}},
	}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: []ast.Item{fn}, ByID: ast.NewByIDTable([]ast.Item{fn})}

	out, sink := resolveThenCheck(t, pkg)
	require.False(t, sink.HasErrors())
	assert.Equal(t, types.Prim{Kind: types.Int}, out.Bodies[ids.ItemID{Pkg: 1, Idx: 1}].Type())
}

func TestCheckAliasCycleDiagnoses(t *testing.T) {
	a := &ast.TypeItem{ItemCommon: item("A", 1), Def: &ast.AliasDef{Target: &ast.IdentType{Name: "B"}}}
	b := &ast.TypeItem{ItemCommon: item("B", 2), Def: &ast.AliasDef{Target: &ast.IdentType{Name: "A"}}}
	root := []ast.Item{a, b}
	pkg := &ast.Package{PkgID: 1, Name: "p", Phase: ast.Built, Root: root, ByID: ast.NewByIDTable(root)}

	_, sink := resolveThenCheck(t, pkg)
	require.True(t, sink.HasErrors())
	assert.Equal(t, errors.TC009, sink.Reports()[0].Code)
}
