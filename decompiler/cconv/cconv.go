// Package cconv declares the calling-convention (signature) oracle the
// fixed-point driver consults to unify return-value types across a
// function's return statements. Inferring calling conventions is out of
// scope for this module; this package only names the shape of the
// prebuilt answers a host ABI pass hands to the core.
package cconv

import "github.com/nikandfor/nocode/decompiler/ir"

type (
	// CallsData is the signature oracle. It doubles as the source of
	// call-hook terms the census enumerator folds into a function's term
	// sequence: a call statement's argument/result terms are not
	// sub-terms of any Term value, they are supplied by whichever pass
	// built the calling convention for that call site.
	CallsData interface {
		Signature(f *ir.Func) (Signature, bool)
		ReturnAnalyzer(f *ir.Func, ret *ir.ReturnStmt) (ReturnAnalyzer, bool)

		// ArgumentTerms and ResultTerms return the extra terms a call
		// statement binds beyond what's already reachable from the
		// statement's own Args/Results/Target fields (e.g. terms
		// standing for callee-saved registers or hidden struct-return
		// pointers). Both may return nil.
		ArgumentTerms(call *ir.CallStmt) []ir.Term
		ResultTerms(call *ir.CallStmt) []ir.Term
	}

	// Signature describes what's known about a function's contract; only
	// the return value matters to the type-reconstruction core.
	Signature interface {
		ReturnValue() (ReturnValue, bool)
	}

	// ReturnValue is an opaque descriptor for "the" return value slot
	// (e.g. "rax", "x0") that ReturnAnalyzer.ReturnValueTerm resolves to a
	// concrete term for a specific return statement.
	ReturnValue interface{}

	// ReturnAnalyzer maps a function+return-statement pair to the concrete
	// IR term carrying a given return-value slot at that return site.
	ReturnAnalyzer interface {
		ReturnValueTerm(rv ReturnValue) ir.Term
	}
)
