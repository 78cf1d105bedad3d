// Package usage declares the usage oracle: a predicate over terms that the
// fixed-point driver uses to shrink its working set before iterating.
// Whether a term is "used" is a property of the whole function (does
// anything downstream ever read it) and is computed by a prior pass this
// module does not own.
package usage

import "github.com/nikandfor/nocode/decompiler/ir"

// Oracle answers whether a term is used anywhere in its function.
type Oracle interface {
	IsUsed(t ir.Term) bool
}
