package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/ids"
)

func TestBuildAssignsSequentialItemIDs(t *testing.T) {
	items := []ast.Item{
		&ast.FuncItem{ItemCommon: ast.ItemCommon{Name: "f"}, Body: &ast.EmptyExpr{}},
		&ast.TypeItem{ItemCommon: ast.ItemCommon{Name: "T"}, Def: &ast.AliasDef{Target: &ast.IdentType{Name: "Int"}}},
	}
	pkg := Build(1, "p", "p.wl", items)

	require.Equal(t, ast.Built, pkg.Phase)
	require.Len(t, pkg.Root, 2)
	assert.Equal(t, ids.ItemID{Pkg: 1, Idx: 1}, pkg.Root[0].Base().ID)
	assert.Equal(t, ids.ItemID{Pkg: 1, Idx: 2}, pkg.Root[1].Base().ID)
	assert.Len(t, pkg.ByID, 2)
}

func TestBuildAssignsIDsIntoNestedModules(t *testing.T) {
	inner := &ast.FuncItem{ItemCommon: ast.ItemCommon{Name: "g"}, Body: &ast.EmptyExpr{}}
	mod := &ast.ModItem{ItemCommon: ast.ItemCommon{Name: "m"}, Items: []ast.Item{inner}}
	pkg := Build(1, "p", "p.wl", []ast.Item{mod})

	gotMod := pkg.Root[0].(*ast.ModItem)
	assert.Equal(t, ids.ItemID{Pkg: 1, Idx: 1}, gotMod.ID)
	require.Len(t, gotMod.Items, 1)
	assert.Equal(t, ids.ItemID{Pkg: 1, Idx: 2}, gotMod.Items[0].Base().ID)
	assert.Contains(t, pkg.ByID, ids.ItemID{Pkg: 1, Idx: 2})
}

func TestBuildAssignsLoopIDsFromZero(t *testing.T) {
	body := &ast.BlockExpr{Exprs: []ast.Expr{
		&ast.LoopExpr{Body: &ast.EmptyExpr{}},
		&ast.LoopExpr{Body: &ast.EmptyExpr{}},
	}}
	fn := &ast.FuncItem{ItemCommon: ast.ItemCommon{Name: "f"}, Body: body}
	pkg := Build(1, "p", "p.wl", []ast.Item{fn})

	gotFn := pkg.Root[0].(*ast.FuncItem)
	gotBlock := gotFn.Body.(*ast.BlockExpr)
	first := gotBlock.Exprs[0].(*ast.LoopExpr)
	second := gotBlock.Exprs[1].(*ast.LoopExpr)
	assert.Equal(t, ids.LoopID(0), first.ID.ID)
	assert.Equal(t, ids.LoopID(1), second.ID.ID)
	assert.True(t, first.ID.Valid)
}
