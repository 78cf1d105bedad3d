package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikandfor/nocode/decompiler/ir"
	"github.com/nikandfor/nocode/decompiler/types"
)

func TestBitsAreMonotone(t *testing.T) {
	s := types.NewStore()
	term := &ir.UndefinedTerm{}
	ty := s.GetType(term)

	require.False(t, ty.IsInteger())

	ty.MakeInteger()
	require.True(t, ty.IsInteger())

	ty.MakeInteger() // idempotent, must not flip anything back off
	require.True(t, ty.IsInteger())

	ty.MakeSigned()
	require.True(t, ty.IsSigned())
	require.False(t, ty.IsUnsigned())
}

func TestChangedFlagAndProbeAndClear(t *testing.T) {
	s := types.NewStore()
	ty := s.GetType(&ir.UndefinedTerm{})

	require.False(t, ty.Changed())
	require.False(t, s.ProbeAndClear(), "nothing changed yet")

	ty.MakeInteger()
	require.True(t, ty.Changed())
	require.True(t, s.ProbeAndClear())

	// ProbeAndClear resets every element's flag.
	require.False(t, ty.Changed())
	require.False(t, s.ProbeAndClear())

	ty.MakeInteger() // already integer: no new change
	require.False(t, ty.Changed())
}

func TestFactorIsGCD(t *testing.T) {
	s := types.NewStore()
	ty := s.GetType(&ir.UndefinedTerm{})

	require.Equal(t, uint64(1), ty.Factor(), "unobserved factor reports 1")

	ty.UpdateFactor(8)
	require.Equal(t, uint64(8), ty.Factor())

	ty.UpdateFactor(12)
	require.Equal(t, uint64(4), ty.Factor(), "gcd(8, 12) == 4")

	ty.UpdateFactor(0) // "unknown": no-op
	require.Equal(t, uint64(4), ty.Factor())
}

func TestUnionSetJoinsBitsAndFactor(t *testing.T) {
	s := types.NewStore()
	a := s.GetType(&ir.UndefinedTerm{})
	b := s.GetType(&ir.UndefinedTerm{})

	a.MakeInteger()
	a.MakeSigned()
	a.UpdateFactor(6)

	b.MakeUnsigned()
	b.UpdateFactor(9)

	require.False(t, a.Equal(b))

	a.UnionSet(b)

	require.True(t, a.Equal(b), "same class after union")
	require.True(t, a.IsInteger())
	require.True(t, a.IsSigned())
	require.True(t, a.IsUnsigned(), "unsigned bit joined in from b")
	require.Equal(t, uint64(3), a.Factor(), "gcd(6, 9) == 3")

	// b is now a handle into the subsumed element; it must still answer
	// correctly by re-resolving to the representative.
	require.True(t, b.IsSigned())
	require.Equal(t, uint64(3), b.Factor())
}

func TestMakePointerToInstallsAndUnifiesPointee(t *testing.T) {
	s := types.NewStore()
	ptr := s.GetType(&ir.UndefinedTerm{})
	pointee1 := s.GetType(&ir.UndefinedTerm{})
	pointee2 := s.GetType(&ir.UndefinedTerm{})

	ptr.MakePointerTo(pointee1)

	got, ok := ptr.Pointee()
	require.True(t, ok)
	require.True(t, got.Equal(pointee1))

	pointee2.MakeInteger()
	ptr.MakePointerTo(pointee2)

	got, ok = ptr.Pointee()
	require.True(t, ok)
	require.True(t, got.Equal(pointee1), "second MakePointerTo unifies, doesn't replace")
	require.True(t, pointee1.Equal(pointee2))
	require.True(t, pointee1.IsInteger(), "the unified class picked up pointee2's bit")
}

func TestSelfReferentialPointeeDoesNotLoop(t *testing.T) {
	s := types.NewStore()
	ptr := s.GetType(&ir.UndefinedTerm{})

	// A node type whose only field is a pointer back to its own type: the
	// pointee link is the type's own equivalence class.
	ptr.MakePointerTo(ptr)

	pointee, ok := ptr.Pointee()
	require.True(t, ok)
	require.True(t, pointee.Equal(ptr))

	// Must terminate: unioning a self-pointing pointer type with another
	// exercises UnionSet's recursive pointee unification against a cycle.
	other := s.GetType(&ir.UndefinedTerm{})
	other.MakePointerTo(other)

	require.NotPanics(t, func() {
		ptr.UnionSet(other)
	})

	require.True(t, ptr.Equal(other))
}

func TestAddOffsetUnifiesOnCollision(t *testing.T) {
	orig := types.StructRecovery
	types.StructRecovery = true
	defer func() { types.StructRecovery = orig }()

	s := types.NewStore()
	base := s.GetType(&ir.UndefinedTerm{})
	field1 := s.GetType(&ir.UndefinedTerm{})
	field2 := s.GetType(&ir.UndefinedTerm{})

	field1.MakeInteger()
	field2.MakeSigned()

	base.AddOffset(8, field1)

	got, ok := base.Offset(8)
	require.True(t, ok)
	require.True(t, got.Equal(field1))

	base.AddOffset(8, field2) // same offset, different child: must unify

	got, ok = base.Offset(8)
	require.True(t, ok)
	require.True(t, got.Equal(field1))
	require.True(t, got.Equal(field2))
	require.True(t, got.IsInteger())
	require.True(t, got.IsSigned())
}

func TestAddOffsetNoopWhenStructRecoveryDisabled(t *testing.T) {
	orig := types.StructRecovery
	types.StructRecovery = false
	defer func() { types.StructRecovery = orig }()

	s := types.NewStore()
	base := s.GetType(&ir.UndefinedTerm{})
	field := s.GetType(&ir.UndefinedTerm{})

	base.AddOffset(8, field)

	_, ok := base.Offset(8)
	require.False(t, ok)
}

func TestOffsetsRangesInAscendingOrder(t *testing.T) {
	orig := types.StructRecovery
	types.StructRecovery = true
	defer func() { types.StructRecovery = orig }()

	s := types.NewStore()
	base := s.GetType(&ir.UndefinedTerm{})
	f0 := s.GetType(&ir.UndefinedTerm{})
	f8 := s.GetType(&ir.UndefinedTerm{})
	fneg8 := s.GetType(&ir.UndefinedTerm{})

	base.AddOffset(8, f8)
	base.AddOffset(0, f0)
	base.AddOffset(-8, fneg8)

	var got []int64
	base.Offsets(func(off int64, child types.Type) bool {
		got = append(got, off)
		return true
	})

	require.Equal(t, []int64{-8, 0, 8}, got)
}

func TestOffsetsStopsEarly(t *testing.T) {
	orig := types.StructRecovery
	types.StructRecovery = true
	defer func() { types.StructRecovery = orig }()

	s := types.NewStore()
	base := s.GetType(&ir.UndefinedTerm{})
	base.AddOffset(0, s.GetType(&ir.UndefinedTerm{}))
	base.AddOffset(8, s.GetType(&ir.UndefinedTerm{}))

	n := 0
	base.Offsets(func(off int64, child types.Type) bool {
		n++
		return false
	})

	require.Equal(t, 1, n)
}

func TestStoreGetTypeIsStableForSameTerm(t *testing.T) {
	s := types.NewStore()
	term := &ir.UndefinedTerm{}

	a := s.GetType(term)
	a.MakeInteger()

	b := s.GetType(term)
	require.True(t, b.IsInteger(), "second GetType for the same term returns the same element")
}
