package codegen

import (
	"reflect"
	"testing"

	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// TestComputeStructLayoutI32AndInt is the struct-layout testable property:
// a struct with fields [i32, int] lays out as size 16, align 8, with field
// offsets [4, 8] — the 4-byte refcount header, then the i32 field at its
// own 4-byte alignment, then the int field rounded up to its 8-byte
// alignment, with the whole aggregate rounded up to that same 8-byte
// alignment.
func TestComputeStructLayoutI32AndInt(t *testing.T) {
	st := types.Struct{
		Item: ids.ItemID{Pkg: 0, Idx: 1},
		Name: "Pair",
		Fields: []types.StructField{
			{Name: "a", Type: types.Prim{Kind: types.I32}},
			{Name: "b", Type: types.Prim{Kind: types.Int}},
		},
	}

	got := ComputeStructLayout(st)
	want := Layout{Size: 16, Align: 8, FieldOffsets: []int{4, 8}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeStructLayout(i32,int) = %+v, want %+v", got, want)
	}
}

func TestComputeStructLayoutAllI32(t *testing.T) {
	st := types.Struct{
		Item: ids.ItemID{Pkg: 0, Idx: 2},
		Name: "Triple",
		Fields: []types.StructField{
			{Name: "x", Type: types.Prim{Kind: types.I32}},
			{Name: "y", Type: types.Prim{Kind: types.I32}},
			{Name: "z", Type: types.Prim{Kind: types.Bool}},
		},
	}

	got := ComputeStructLayout(st)
	want := Layout{Size: 16, Align: 4, FieldOffsets: []int{4, 8, 12}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeStructLayout(i32,i32,bool) = %+v, want %+v", got, want)
	}
}

func TestComputeStructLayoutLeadingInt(t *testing.T) {
	st := types.Struct{
		Item: ids.ItemID{Pkg: 0, Idx: 3},
		Name: "Wide",
		Fields: []types.StructField{
			{Name: "n", Type: types.Prim{Kind: types.Int}},
			{Name: "f", Type: types.Prim{Kind: types.I32}},
		},
	}

	got := ComputeStructLayout(st)
	// header occupies [0,4); the Int field needs 8-byte alignment, so it
	// starts at offset 8, not 4; the I32 field follows immediately at 16.
	want := Layout{Size: 24, Align: 8, FieldOffsets: []int{8, 16}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeStructLayout(int,i32) = %+v, want %+v", got, want)
	}
}

func TestComputeTupleLayoutMatchesStructRule(t *testing.T) {
	got := ComputeTupleLayout([]types.Ty{types.Prim{Kind: types.I32}, types.Prim{Kind: types.Int}})
	want := Layout{Size: 16, Align: 8, FieldOffsets: []int{4, 8}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeTupleLayout(i32,int) = %+v, want %+v", got, want)
	}
}
