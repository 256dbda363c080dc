package codegen

import "github.com/wasmlet/wasmlet/internal/types"

// headerSize is the refcount header every heap-allocated struct or tuple
// carries ahead of its fields, per spec.md §8's layout rule.
const headerSize = 4

// Layout is the linear-memory shape of an aggregate value: its total
// size and alignment in bytes, and each field's byte offset in
// declaration order.
type Layout struct {
	Size         int
	Align        int
	FieldOffsets []int
}

func alignUp(n, a int) int { return (n + a - 1) / a * a }

// fieldSize returns a field's size and alignment in bytes. Int is the only
// 8-byte value wasmlet has; every other scalar, and every reference to
// another struct/tuple, is a 4-byte wasm32 value (a raw i32, or a
// refcounted pointer).
func fieldSize(t types.Ty) (size, align int) {
	if p, ok := t.(types.Prim); ok && p.Kind == types.Int {
		return 8, 8
	}
	return 4, 4
}

// ComputeLayout lays fields out in declaration order after a 4-byte
// refcount header, aligning each field to its own natural alignment and
// the whole aggregate to its widest field. This is spec.md §8's exact
// rule: `struct{i32,int}` -> `{size:16, align:8, fieldOffsets:[4,8]}`.
func ComputeLayout(fields []types.Ty) Layout {
	offset := headerSize
	align := headerSize
	offsets := make([]int, len(fields))
	for i, f := range fields {
		sz, al := fieldSize(f)
		if al > align {
			align = al
		}
		offset = alignUp(offset, al)
		offsets[i] = offset
		offset += sz
	}
	return Layout{Size: alignUp(offset, align), Align: align, FieldOffsets: offsets}
}

// ComputeStructLayout lays out a struct's fields, in declaration order.
func ComputeStructLayout(s types.Struct) Layout {
	tys := make([]types.Ty, len(s.Fields))
	for i, f := range s.Fields {
		tys[i] = f.Type
	}
	return ComputeLayout(tys)
}

// ComputeTupleLayout lays out a tuple's elements the same way: a tuple is a
// boxed aggregate indistinguishable from a struct at the memory layer.
func ComputeTupleLayout(elems []types.Ty) Layout {
	return ComputeLayout(elems)
}
