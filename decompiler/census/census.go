// Package census implements the IR enumerator: it walks a function's basic
// blocks and collects the ordered sequence of statements and terms
// reachable from it, including the synthetic terms a call statement binds
// through the calls-data oracle.
//
// Walk is a single pre-order pass collecting one slice per kind,
// deduplicated by identity, in first-encounter order. Go terms are already
// pointer-identity comparable, so dedup here is a map keyed by the term
// itself alongside a set.Bits[int]-backed "seen" mark on the
// first-encounter index.
package census

import (
	"github.com/nikandfor/nocode/decompiler/cconv"
	"github.com/nikandfor/nocode/decompiler/ir"
	"github.com/nikandfor/nocode/decompiler/set"
)

// Census is the result of walking a function: its statements and terms in
// first-encounter source order.
type Census struct {
	Stmts []ir.Stmt
	Terms []ir.Term

	termIndex map[ir.Term]int
	seen      set.Bits[int]
	nextID    int
}

// Walk enumerates f's statements and reachable terms. calls may be nil, in
// which case call statements contribute no synthetic argument/result terms
// beyond what's directly reachable from the CallStmt itself.
func Walk(f *ir.Func, calls cconv.CallsData) *Census {
	c := &Census{
		termIndex: map[ir.Term]int{},
		seen:      set.MakeBits[int](0),
	}

	for _, bb := range f.BasicBlocks() {
		for _, s := range bb.Stmts {
			c.Stmts = append(c.Stmts, s)

			for _, t := range ir.StmtTerms(s) {
				c.visitTerm(t)
			}

			if call, ok := s.(*ir.CallStmt); ok && calls != nil {
				for _, t := range calls.ArgumentTerms(call) {
					c.visitTerm(t)
				}
				for _, t := range calls.ResultTerms(call) {
					c.visitTerm(t)
				}
			}
		}
	}

	return c
}

func (c *Census) visitTerm(t ir.Term) {
	if t == nil {
		return
	}

	id, ok := c.termIndex[t]
	if !ok {
		id = c.nextID
		c.nextID++
		c.termIndex[t] = id
	}

	if c.seen.IsSet(id) {
		return
	}

	c.seen.Set(id)
	c.Terms = append(c.Terms, t)

	for _, o := range ir.Operands(t) {
		c.visitTerm(o)
	}
}

// Index returns the first-encounter index assigned to t, or -1 if t was
// never visited by this census.
func (c *Census) Index(t ir.Term) int {
	id, ok := c.termIndex[t]
	if !ok {
		return -1
	}

	return id
}
