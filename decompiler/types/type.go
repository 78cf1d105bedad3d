// Package types implements the type lattice element, the type store and its
// union-find, and the rule engine and fixed-point driver that make up the
// type-reconstruction core: a monotone join semilattice over integer/
// pointer/signed/unsigned facts, stride factors, pointee links, and
// struct-offset relations, converged by repeatedly applying per-term and
// per-statement constraint rules until nothing changes.
package types

import "sort"

// StructRecovery gates the optional structural-offset recording AddOffset
// performs. There is no build tag for this in Go, so it's a package
// variable rather than a compile-time flag, defaulting on so the fuller
// lattice runs unless a caller opts out.
var StructRecovery = true

// Type is a handle onto a lattice element living in a Store. Two handles
// refer to the same equivalence class iff Store.find resolves them to the
// same id; a handle stays valid (in the sense that its methods keep working
// correctly) across UnionSet calls that subsume it — every method resolves
// to the current representative before reading or writing.
//
// Be careful: a Type value captured before a union may no longer *be* the
// representative afterwards. That is fine for calling methods on it (they
// re-resolve), but two Type values are only the same class if compared with
// Equal, never with ==.
type Type struct {
	s  *Store
	id int
}

type element struct {
	parent int
	rank   int

	isInteger  bool
	isPointer  bool
	isSigned   bool
	isUnsigned bool

	factor uint64 // 0 means "no observation yet"; external Factor() reports 1

	pointee int // element id, or -1

	offsets map[int64]int // signed offset -> element id, only used if StructRecovery

	changed bool
}

func newElement(id int) *element {
	return &element{parent: id, pointee: -1}
}

func (t Type) repr() (int, *element) {
	id := t.s.find(t.id)
	return id, t.s.elems[id]
}

// Equal reports whether t and other are in the same equivalence class.
func (t Type) Equal(other Type) bool {
	return t.s.find(t.id) == t.s.find(other.id)
}

func (t Type) IsInteger() bool {
	_, e := t.repr()
	return e.isInteger
}

func (t Type) IsPointer() bool {
	_, e := t.repr()
	return e.isPointer
}

func (t Type) IsSigned() bool {
	_, e := t.repr()
	return e.isSigned
}

func (t Type) IsUnsigned() bool {
	_, e := t.repr()
	return e.isUnsigned
}

// Changed reports whether this representative's attributes changed since
// the store's last ProbeAndClear.
func (t Type) Changed() bool {
	_, e := t.repr()
	return e.changed
}

func (t Type) MakeInteger() {
	_, e := t.repr()
	if !e.isInteger {
		e.isInteger = true
		e.changed = true
	}
}

// MakePointer sets the pointer bit without asserting a pointee. Callers
// that already know the pointee should use MakePointerTo instead.
func (t Type) MakePointer() {
	_, e := t.repr()
	if !e.isPointer {
		e.isPointer = true
		e.changed = true
	}
}

// MakePointerTo sets the pointer bit and unifies pointee with the current
// pointee link, installing it if there wasn't one yet: a second call with a
// different pointee unifies rather than overwrites, so two dereferences of
// the same pointer are forced to agree on what they point to.
func (t Type) MakePointerTo(pointee Type) {
	_, e := t.repr()
	if !e.isPointer {
		e.isPointer = true
		e.changed = true
	}

	pid := t.s.find(pointee.id)

	if e.pointee < 0 {
		e.pointee = pid
		e.changed = true
		return
	}

	existing := e.pointee
	if t.s.find(existing) == pid {
		return
	}

	Type{s: t.s, id: existing}.UnionSet(Type{s: t.s, id: pid})

	_, e = t.repr()
	e.pointee = t.s.find(existing)
}

func (t Type) MakeSigned() {
	_, e := t.repr()
	if !e.isSigned {
		e.isSigned = true
		e.changed = true
	}
}

func (t Type) MakeUnsigned() {
	_, e := t.repr()
	if !e.isUnsigned {
		e.isUnsigned = true
		e.changed = true
	}
}

// Factor returns the greatest common stride observed so far, or 1 if
// nothing has been observed yet.
func (t Type) Factor() uint64 {
	_, e := t.repr()
	if e.factor == 0 {
		return 1
	}
	return e.factor
}

// UpdateFactor folds v into the factor by GCD; v == 0 ("unknown") is a
// no-op, and a v that doesn't change the GCD is a no-op too.
func (t Type) UpdateFactor(v uint64) {
	if v == 0 {
		return
	}

	_, e := t.repr()

	var next uint64
	if e.factor == 0 {
		next = v
	} else {
		next = gcd(e.factor, v)
	}

	if next != e.factor {
		e.factor = next
		e.changed = true
	}
}

// Pointee returns the type this pointer points to, if any pointee link has
// been recorded.
func (t Type) Pointee() (Type, bool) {
	_, e := t.repr()
	if e.pointee < 0 {
		return Type{}, false
	}
	return Type{s: t.s, id: e.pointee}, true
}

// AddOffset records offsets[off] = child on t's representative, when
// StructRecovery is enabled. A prior mapping at the same offset is unified
// with child rather than overwritten.
func (t Type) AddOffset(off int64, child Type) {
	if !StructRecovery {
		return
	}

	_, e := t.repr()

	childID := t.s.find(child.id)

	if e.offsets == nil {
		e.offsets = map[int64]int{}
	}

	if existing, ok := e.offsets[off]; ok {
		if t.s.find(existing) != childID {
			Type{s: t.s, id: existing}.UnionSet(Type{s: t.s, id: childID})
		}
		return
	}

	e.offsets[off] = childID
	e.changed = true
}

// Offset returns the child type recorded at off, if any.
func (t Type) Offset(off int64) (Type, bool) {
	_, e := t.repr()
	if e.offsets == nil {
		return Type{}, false
	}
	id, ok := e.offsets[off]
	if !ok {
		return Type{}, false
	}
	return Type{s: t.s, id: id}, true
}

// Offsets calls f once for every offset recorded on t's representative,
// in ascending offset order, until f returns false or the offsets are
// exhausted. A type with no recorded offsets (StructRecovery disabled, or
// never used as a struct base) calls f zero times.
func (t Type) Offsets(f func(off int64, child Type) bool) {
	_, e := t.repr()
	if len(e.offsets) == 0 {
		return
	}

	offs := make([]int64, 0, len(e.offsets))
	for off := range e.offsets {
		offs = append(offs, off)
	}

	sort.Slice(offs, func(i, j int) bool { return offs[i] < offs[j] })

	for _, off := range offs {
		if !f(off, Type{s: t.s, id: e.offsets[off]}) {
			return
		}
	}
}

// UnionSet merges t and other into one equivalence class (union by rank,
// path compression on find), joining every lattice attribute onto the
// surviving representative: bits OR, factor GCD, pointee links unified
// recursively, offsets merged (colliding keys unified).
func (t Type) UnionSet(other Type) {
	a := t.s.find(t.id)
	b := t.s.find(other.id)

	if a == b {
		return
	}

	ea, eb := t.s.elems[a], t.s.elems[b]

	if ea.rank < eb.rank {
		a, b = b, a
		ea, eb = eb, ea
	}

	eb.parent = a
	if ea.rank == eb.rank {
		ea.rank++
	}

	if eb.isInteger && !ea.isInteger {
		ea.isInteger = true
		ea.changed = true
	}
	if eb.isPointer && !ea.isPointer {
		ea.isPointer = true
		ea.changed = true
	}
	if eb.isSigned && !ea.isSigned {
		ea.isSigned = true
		ea.changed = true
	}
	if eb.isUnsigned && !ea.isUnsigned {
		ea.isUnsigned = true
		ea.changed = true
	}

	if eb.factor != 0 {
		var next uint64
		if ea.factor == 0 {
			next = eb.factor
		} else {
			next = gcd(ea.factor, eb.factor)
		}
		if next != ea.factor {
			ea.factor = next
			ea.changed = true
		}
	}

	if eb.pointee >= 0 {
		if ea.pointee < 0 {
			ea.pointee = eb.pointee
			ea.changed = true
		} else if t.s.find(ea.pointee) != t.s.find(eb.pointee) {
			Type{s: t.s, id: ea.pointee}.UnionSet(Type{s: t.s, id: eb.pointee})
		}
	}

	if eb.offsets != nil {
		if ea.offsets == nil {
			ea.offsets = map[int64]int{}
		}
		for off, childID := range eb.offsets {
			if existing, ok := ea.offsets[off]; ok {
				if t.s.find(existing) != t.s.find(childID) {
					Type{s: t.s, id: existing}.UnionSet(Type{s: t.s, id: childID})
				}
			} else {
				ea.offsets[off] = childID
				ea.changed = true
			}
		}
	}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
