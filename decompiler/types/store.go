package types

import "github.com/nikandfor/nocode/decompiler/ir"

// Store maps term identity to a type representative and owns every lattice
// element ever allocated. It is the union-find: elements are addressed by
// index so that pointee links and offset maps can express cycles (a struct
// field pointing back at its own type) without ever holding a dangling
// reference.
type Store struct {
	byTerm map[ir.Term]int
	elems  []*element
}

// NewStore returns an empty type store.
func NewStore() *Store {
	return &Store{byTerm: map[ir.Term]int{}}
}

// GetType returns the representative Type for t, allocating a fresh bottom
// element on first access.
func (s *Store) GetType(t ir.Term) Type {
	id, ok := s.byTerm[t]
	if !ok {
		id = s.alloc()
		s.byTerm[t] = id
	}

	return Type{s: s, id: id}
}

func (s *Store) alloc() int {
	id := len(s.elems)
	s.elems = append(s.elems, newElement(id))
	return id
}

func (s *Store) find(id int) int {
	root := id
	for s.elems[root].parent != root {
		root = s.elems[root].parent
	}

	for id != root {
		next := s.elems[id].parent
		s.elems[id].parent = root
		id = next
	}

	return root
}

// Pair is one (term, representative type) entry, as returned by Types.
type Pair struct {
	Term ir.Term
	Type Type
}

// Types iterates every term this store has ever been asked about, paired
// with its current representative type.
func (s *Store) Types() []Pair {
	pairs := make([]Pair, 0, len(s.byTerm))

	for t, id := range s.byTerm {
		pairs = append(pairs, Pair{Term: t, Type: Type{s: s, id: id}})
	}

	return pairs
}

// ProbeAndClear reports whether any element's changed flag has been set
// since the previous call (or since the store was created), then clears
// every element's flag. This is the store's single global "any changed"
// signal, the fixed-point driver's sole termination test.
func (s *Store) ProbeAndClear() bool {
	changed := false

	for _, e := range s.elems {
		if e.changed {
			changed = true
			e.changed = false
		}
	}

	return changed
}
