// Package dflow declares the dataflow oracle the type-reconstruction core
// consumes. Computing dataflow is explicitly out of scope for this module;
// this package only names the shape of the prebuilt answers a host
// dataflow pass hands to the core.
package dflow

import "github.com/nikandfor/nocode/decompiler/ir"

type (
	// Oracle answers questions about a term's storage location, its
	// reaching definitions, and its abstract (partially evaluated) value.
	// A real decompiler backs this with a full dataflow analysis; this
	// module treats it as read-only.
	Oracle interface {
		Location(t ir.Term) ir.Location
		Definitions(t ir.Term) Definitions
		Value(t ir.Term) *Value
	}

	// Definitions is the reaching-definition set for a read term, grouped
	// into memory chunks: a term with a single chunk whose location
	// matches the term's own location has an unambiguous definition set;
	// more than one chunk, or a location mismatch, means the read may
	// observe more than one memory object and the driver does not seed
	// from it.
	Definitions struct {
		Chunks []Chunk
	}

	Chunk struct {
		Location ir.Location
		Defs     []ir.Term
	}

	// Value is the abstract value computed for a term by the dataflow
	// pass: whether it is fully concrete, whether it is known to be a
	// non-trivial multiple of some stride (Product), and whether it is
	// known to be an offset from the stack pointer (StackOffset).
	Value struct {
		Abstract    AbstractValue
		Product     bool
		StackOffset bool
	}

	// AbstractValue mirrors the oracle's Constant interface: Value is the
	// unsigned interpretation, Signed the signed interpretation at the
	// term's width, and Abs the absolute value of Signed.
	AbstractValue struct {
		Concrete bool
		Value    uint64
		Signed   int64
		Abs      uint64
	}
)

// IsConcrete reports whether v carries a known constant value.
func (v AbstractValue) IsConcrete() bool { return v.Concrete }

// NoChunk reports whether d has no reaching definitions at all.
func (d Definitions) NoChunk() bool { return len(d.Chunks) == 0 }

// SingleChunk returns d's one chunk and true, or a zero Chunk and false if d
// does not consist of exactly one chunk.
func (d Definitions) SingleChunk() (Chunk, bool) {
	if len(d.Chunks) != 1 {
		return Chunk{}, false
	}

	return d.Chunks[0], true
}
