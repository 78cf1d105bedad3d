package types

import (
	"context"

	"github.com/nikandfor/nocode/decompiler/cconv"
	"github.com/nikandfor/nocode/decompiler/census"
	"github.com/nikandfor/nocode/decompiler/dflow"
	"github.com/nikandfor/nocode/decompiler/ir"
	"github.com/nikandfor/nocode/decompiler/usage"
)

// Analyzer bundles a type store with the external collaborators the
// fixed-point driver needs: a dataflow oracle (required), an optional
// calls-data/signature oracle, and an optional usage oracle.
type Analyzer struct {
	Store *Store

	Dataflow dflow.Oracle
	Calls    cconv.CallsData // may be nil: no cross-function return unification, no call-hook terms
	Usage    usage.Oracle    // may be nil: every term is treated as used
}

// NewAnalyzer returns an Analyzer with a fresh, empty Store.
func NewAnalyzer(df dflow.Oracle, calls cconv.CallsData, use usage.Oracle) *Analyzer {
	return &Analyzer{
		Store:    NewStore(),
		Dataflow: df,
		Calls:    calls,
		Usage:    use,
	}
}

// Analyze runs the fixed-point driver over f: it enumerates f's statements
// and terms, seeds representative types from unambiguous definitions,
// unifies return-value carrier terms across f's return statements, drops
// unused terms from the working set, then alternates forward and backward
// sweeps of the rule engine until the store reports no change or ctx is
// canceled.
//
// Analyze never returns a non-nil error for missing oracle data or
// cancellation — both are handled inline and are not failures. A malformed
// IR (unknown term kind) panics: a term whose kind the rule engine doesn't
// recognize means the IR producer, not this analysis, is broken.
func (a *Analyzer) Analyze(ctx context.Context, f *ir.Func) error {
	c := census.Walk(f, a.Calls)

	a.seedFromDefinitions(c.Terms)
	a.unifyReturns(f)

	terms := c.Terms
	if a.Usage != nil {
		terms = filterUsed(terms, a.Usage)
	}

	stmts := c.Stmts

	for {
		sweepTermsForward(a.Store, a.Dataflow, terms)
		sweepTermsBackward(a.Store, a.Dataflow, terms)
		sweepStmtsForward(a.Store, stmts)
		sweepStmtsBackward(a.Store, stmts)

		if !a.Store.ProbeAndClear() {
			break
		}

		if ctx.Err() != nil {
			break
		}
	}

	return nil
}

func (a *Analyzer) seedFromDefinitions(terms []ir.Term) {
	for _, t := range terms {
		if !t.IsRead() {
			continue
		}

		defs := a.Dataflow.Definitions(t)

		chunk, ok := defs.SingleChunk()
		if !ok || chunk.Location != a.Dataflow.Location(t) {
			continue
		}

		for _, d := range chunk.Defs {
			a.Store.GetType(t).UnionSet(a.Store.GetType(d))
		}
	}
}

func (a *Analyzer) unifyReturns(f *ir.Func) {
	if a.Calls == nil {
		return
	}

	sig, ok := a.Calls.Signature(f)
	if !ok {
		return
	}

	rv, ok := sig.ReturnValue()
	if !ok {
		return
	}

	var first ir.Term

	for _, ret := range f.Returns() {
		ra, ok := a.Calls.ReturnAnalyzer(f, ret)
		if !ok {
			continue
		}

		term := ra.ReturnValueTerm(rv)
		if term == nil {
			continue
		}

		if first == nil {
			first = term
			continue
		}

		a.Store.GetType(first).UnionSet(a.Store.GetType(term))
	}
}

func filterUsed(terms []ir.Term, use usage.Oracle) []ir.Term {
	filtered := make([]ir.Term, 0, len(terms))

	for _, t := range terms {
		if use.IsUsed(t) {
			filtered = append(filtered, t)
		}
	}

	return filtered
}

func sweepTermsForward(s *Store, df dflow.Oracle, terms []ir.Term) {
	for _, t := range terms {
		applyTermRule(s, df, t)
	}
}

func sweepTermsBackward(s *Store, df dflow.Oracle, terms []ir.Term) {
	for i := len(terms) - 1; i >= 0; i-- {
		applyTermRule(s, df, terms[i])
	}
}

func sweepStmtsForward(s *Store, stmts []ir.Stmt) {
	for _, st := range stmts {
		applyStmtRule(s, st)
	}
}

func sweepStmtsBackward(s *Store, stmts []ir.Stmt) {
	for i := len(stmts) - 1; i >= 0; i-- {
		applyStmtRule(s, stmts[i])
	}
}
