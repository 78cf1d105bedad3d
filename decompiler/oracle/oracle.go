// Package oracle provides small, explicit, non-authoritative
// implementations of the dataflow/usage/signature oracles the
// type-reconstruction core consumes. They exist for the CLI demo and for
// tests that don't want to hand-roll an Oracle per scenario; they never
// infer anything a caller didn't explicitly register, unlike a real
// dataflow or ABI analysis, which this module does not implement.
package oracle

import (
	"github.com/nikandfor/nocode/decompiler/cconv"
	"github.com/nikandfor/nocode/decompiler/dflow"
	"github.com/nikandfor/nocode/decompiler/ir"
)

// SimpleDataflow is a map-based dflow.Oracle: every answer is whatever a
// caller registered with SetLocation/SetDefinitions/SetConcrete/SetProduct/
// SetStackOffset, or the zero value (unknown location,
// no definitions, non-concrete abstract value) otherwise.
type SimpleDataflow struct {
	locations map[ir.Term]ir.Location
	defs      map[ir.Term]dflow.Definitions
	values    map[ir.Term]*dflow.Value
}

// NewSimpleDataflow returns an empty SimpleDataflow oracle.
func NewSimpleDataflow() *SimpleDataflow {
	return &SimpleDataflow{
		locations: map[ir.Term]ir.Location{},
		defs:      map[ir.Term]dflow.Definitions{},
		values:    map[ir.Term]*dflow.Value{},
	}
}

func (o *SimpleDataflow) SetLocation(t ir.Term, loc ir.Location) {
	o.locations[t] = loc
}

func (o *SimpleDataflow) SetDefinitions(t ir.Term, d dflow.Definitions) {
	o.defs[t] = d
}

// SetConcrete registers t as a concrete unsigned value, deriving the signed
// and absolute-value views from it as a 64-bit value (no truncation to a
// narrower width).
func (o *SimpleDataflow) SetConcrete(t ir.Term, value uint64) {
	signed := int64(value)
	abs := value
	if signed < 0 {
		abs = uint64(-signed)
	}

	o.values[t] = &dflow.Value{
		Abstract: dflow.AbstractValue{
			Concrete: true,
			Value:    value,
			Signed:   signed,
			Abs:      abs,
		},
	}
}

// SetProduct marks t as a known non-trivial multiple of some stride
// without asserting a concrete value.
func (o *SimpleDataflow) SetProduct(t ir.Term, product bool) {
	v := o.valueOf(t)
	v.Product = product
	o.values[t] = v
}

// SetStackOffset marks t as a known offset from the stack pointer.
func (o *SimpleDataflow) SetStackOffset(t ir.Term, stackOffset bool) {
	v := o.valueOf(t)
	v.StackOffset = stackOffset
	o.values[t] = v
}

func (o *SimpleDataflow) valueOf(t ir.Term) *dflow.Value {
	if v, ok := o.values[t]; ok {
		cp := *v
		return &cp
	}

	return &dflow.Value{}
}

func (o *SimpleDataflow) Location(t ir.Term) ir.Location {
	return o.locations[t]
}

func (o *SimpleDataflow) Definitions(t ir.Term) dflow.Definitions {
	return o.defs[t]
}

func (o *SimpleDataflow) Value(t ir.Term) *dflow.Value {
	if v, ok := o.values[t]; ok {
		return v
	}

	return &dflow.Value{}
}

// AllUsed is the conservative usage.Oracle default: every term is used.
type AllUsed struct{}

func (AllUsed) IsUsed(ir.Term) bool { return true }

// NoSignatures is the conservative cconv.CallsData default: no function has
// a known signature, so the driver never attempts cross-return unification
// and no call contributes synthetic argument/result terms.
type NoSignatures struct{}

func (NoSignatures) Signature(*ir.Func) (cconv.Signature, bool) { return nil, false }

func (NoSignatures) ReturnAnalyzer(*ir.Func, *ir.ReturnStmt) (cconv.ReturnAnalyzer, bool) {
	return nil, false
}

func (NoSignatures) ArgumentTerms(*ir.CallStmt) []ir.Term { return nil }

func (NoSignatures) ResultTerms(*ir.CallStmt) []ir.Term { return nil }
