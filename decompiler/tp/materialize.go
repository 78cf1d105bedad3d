package tp

import "github.com/nikandfor/nocode/decompiler/types"

// maxPointeeDepth bounds recursion into pointee chains. Pointee links can be
// cyclic (a linked-list node pointing at its own type); a converged Type
// never needs to be unrolled more than a handful of levels to be useful to
// a human, so Materialize stops there instead of chasing the cycle
// forever.
const maxPointeeDepth = 8

// machineIntBits is the width used for a term reconstructed as "integer,
// width unknown". The core never reconstructs bit width (that comes from
// the term's storage size in a real decompiler, which is out of scope
// here), so Materialize picks the pointer-sized default.
const machineIntBits = 64

// Materialize converts a converged lattice element into a concrete tp.Type.
// It is a one-way bridge: nothing in the type-reconstruction core calls
// this, and calling it before analysis has converged is meaningless (the
// lattice element hasn't settled yet). A host decompiler's next pipeline
// stage (source-level reconstruction, out of scope for this module) is the
// intended caller.
func Materialize(t types.Type) Type {
	return materialize(t, 0)
}

func materialize(t types.Type, depth int) Type {
	switch {
	case t.IsPointer():
		if depth >= maxPointeeDepth {
			return Ptr{X: Untyped{}}
		}

		if fields := materializeFields(t, depth); len(fields) > 0 {
			return Ptr{X: Struct{Fields: fields}}
		}

		elem := Type(Untyped{})
		if pointee, ok := t.Pointee(); ok {
			elem = materialize(pointee, depth+1)
		}

		return Ptr{X: elem}

	case t.IsInteger():
		return Int{
			Bits:   machineIntBits,
			Signed: t.IsSigned() && !t.IsUnsigned(),
		}

	default:
		return Untyped{}
	}
}

// materializeFields turns the offsets the ADD/SUB rules recorded on t (a
// pointer used as a struct base: p+10 unifies whatever p+10 resolved to
// with the offset-10 slot on p's element) into StructFields, in ascending
// offset order.
func materializeFields(t types.Type, depth int) (fields []StructField) {
	if depth+1 >= maxPointeeDepth {
		return nil
	}

	t.Offsets(func(off int64, child types.Type) bool {
		fields = append(fields, StructField{
			Offset: int(off),
			Type:   materialize(child, depth+1),
		})

		return true
	})

	return fields
}
