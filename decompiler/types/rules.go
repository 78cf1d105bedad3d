package types

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/nikandfor/nocode/decompiler/dflow"
	"github.com/nikandfor/nocode/decompiler/ir"
)

// applyTermRule is the term half of the rule engine: one constraint per
// term kind, tightening the term's own type and its operands' types.
// An unknown term kind is a broken IR producer, not a recoverable
// condition, so it panics rather than returning an error.
func applyTermRule(s *Store, df dflow.Oracle, t ir.Term) {
	switch t := t.(type) {
	case *ir.Const, *ir.IntrinsicTerm, *ir.UndefinedTerm, *ir.MemoryLocationAccessTerm, *ir.ChoiceTerm:
		// no-op

	case *ir.Deref:
		s.GetType(t.Address).MakePointerTo(s.GetType(t))

	case *ir.Unary:
		applyUnaryRule(s, t)

	case *ir.Binary:
		applyBinaryRule(s, df, t)

	default:
		panic(errors.New("unknown term kind: %T", t))
	}
}

func applyUnaryRule(s *Store, u *ir.Unary) {
	T := s.GetType(u)
	O := s.GetType(u.Operand)

	switch u.Op {
	case ir.NOT:
		O.MakeInteger()
		T.MakeInteger()
	case ir.NEGATION:
		O.MakeInteger()
		T.MakeInteger()
		O.MakeSigned()
		T.MakeSigned()
	case ir.SIGN_EXTEND:
		O.MakeSigned()
	case ir.ZERO_EXTEND:
		if O.IsSigned() {
			T.MakeUnsigned()
		}
	case ir.TRUNCATE:
		// no-op
	default:
		panic(errors.New("unknown unary operator kind: %v", u.Op))
	}
}

const smallImmediateThreshold = 4096

func applyBinaryRule(s *Store, df dflow.Oracle, b *ir.Binary) {
	T := s.GetType(b)
	L := s.GetType(b.Left)
	R := s.GetType(b.Right)

	leftValue := df.Value(b.Left)
	rightValue := df.Value(b.Right)

	switch b.Op {
	case ir.AND, ir.OR, ir.XOR:
		L.MakeInteger()
		R.MakeInteger()
		T.MakeInteger()
		L.MakeUnsigned()
		R.MakeUnsigned()
		T.MakeUnsigned()

	case ir.SHL:
		L.MakeInteger()
		R.MakeInteger()
		T.MakeInteger()

		R.MakeUnsigned()
		if L.IsSigned() {
			T.MakeSigned()
		}
		if L.IsUnsigned() {
			T.MakeUnsigned()
		}
		if T.IsSigned() {
			L.MakeSigned()
		}
		if T.IsUnsigned() {
			L.MakeUnsigned()
		}

		if rightValue.Abstract.IsConcrete() {
			T.UpdateFactor(L.Factor() * (uint64(1) << rightValue.Abstract.Value))
		}

	case ir.SHR:
		L.MakeInteger()
		R.MakeInteger()
		T.MakeInteger()

		L.MakeUnsigned()
		T.MakeUnsigned()

	case ir.SAR:
		L.MakeInteger()
		R.MakeInteger()
		T.MakeInteger()

		L.MakeSigned()
		T.MakeSigned()

	case ir.ADD:
		applyAddRule(T, L, R, leftValue, rightValue)

	case ir.SUB:
		applySubRule(T, L, R, leftValue, rightValue)

	case ir.MUL:
		T.MakeInteger()
		L.MakeInteger()
		R.MakeInteger()

		propagateSignednessDominance(T, L, R)

		if rightValue.Abstract.IsConcrete() {
			T.UpdateFactor(L.Factor() * rightValue.Abstract.Value)
		}
		if leftValue.Abstract.IsConcrete() {
			T.UpdateFactor(R.Factor() * leftValue.Abstract.Value)
		}

	case ir.SIGNED_DIV, ir.SIGNED_REM:
		L.MakeInteger()
		R.MakeInteger()
		T.MakeInteger()
		L.MakeSigned()
		R.MakeSigned()
		T.MakeSigned()

	case ir.UNSIGNED_DIV, ir.UNSIGNED_REM:
		T.MakeInteger()
		L.MakeInteger()
		R.MakeInteger()

		if L.IsSigned() {
			R.MakeUnsigned()
		}
		if R.IsSigned() {
			L.MakeUnsigned()
		}
		T.MakeUnsigned()

	case ir.EQUAL:
		L.UnionSet(R)

	case ir.SIGNED_LESS, ir.SIGNED_LESS_OR_EQUAL:
		L.MakeSigned()
		R.MakeSigned()
		L.UnionSet(R)

	case ir.UNSIGNED_LESS, ir.UNSIGNED_LESS_OR_EQUAL:
		if R.IsSigned() {
			L.MakeUnsigned()
		} else if L.IsSigned() {
			R.MakeUnsigned()
		} else {
			L.MakeUnsigned()
			R.MakeUnsigned()
		}
		L.UnionSet(R)

	default:
		panic(errors.New("unknown binary operator kind: %v", b.Op))
	}
}

// propagateSignednessDominance is the "unsigned dominates, both-signed
// propagates back" block shared by ADD/SUB/MUL. It always forces R
// unsigned in the mixed-sign case, even when the operand that looked
// unsigned first was actually L; kept exactly this way rather than
// symmetrized, since the two operands aren't interchangeable once one of
// them turns out to be a pointer.
func propagateSignednessDominance(T, L, R Type) {
	if L.IsUnsigned() || R.IsUnsigned() {
		T.MakeUnsigned()
	}
	if L.IsSigned() && R.IsSigned() {
		T.MakeSigned()
	}
	if T.IsSigned() {
		L.MakeSigned()
		R.MakeSigned()
	}
	if T.IsUnsigned() {
		if L.IsSigned() {
			R.MakeUnsigned()
		}
		if R.IsSigned() {
			R.MakeUnsigned()
		}
	}
}

func applyAddRule(T, L, R Type, leftValue, rightValue *dflow.Value) {
	if L.IsInteger() && R.IsInteger() {
		T.MakeInteger()
	}
	if (L.IsInteger() && R.IsPointer()) || (L.IsPointer() && R.IsInteger()) {
		T.MakePointer()
	}
	if T.IsInteger() {
		L.MakeInteger()
		R.MakeInteger()
	}
	if T.IsPointer() {
		if L.IsInteger() {
			R.MakePointer()
		}
		if R.IsInteger() {
			L.MakePointer()
		}
		if L.IsPointer() {
			R.MakeInteger()
		}
		if R.IsPointer() {
			L.MakeInteger()
		}

		if !L.IsPointer() && !R.IsPointer() {
			switch {
			case leftValue.Product:
				R.MakePointer()
			case rightValue.Product:
				L.MakePointer()
			case leftValue.Abstract.IsConcrete():
				if leftValue.Abstract.Value < smallImmediateThreshold {
					L.MakeInteger()
				} else {
					L.MakePointer()
				}
			case rightValue.Abstract.IsConcrete():
				if rightValue.Abstract.Value < smallImmediateThreshold {
					R.MakeInteger()
				} else {
					R.MakePointer()
				}
			}
		}
	}

	propagateSignednessDominance(T, L, R)

	if rightValue.Abstract.IsConcrete() {
		if T.Equal(L) {
			T.UpdateFactor(rightValue.Abstract.Abs)
		} else if StructRecovery && !rightValue.StackOffset {
			L.AddOffset(rightValue.Abstract.Signed, T)
		}
	}
	if leftValue.Abstract.IsConcrete() {
		if T.Equal(R) {
			T.UpdateFactor(leftValue.Abstract.Abs)
		} else if StructRecovery && !leftValue.StackOffset {
			R.AddOffset(leftValue.Abstract.Signed, T)
		}
	}

	if L.IsPointer() && rightValue.Product {
		if pointee, ok := L.Pointee(); ok {
			T.MakePointerTo(pointee)
		} else {
			T.MakePointer()
		}
	}
	if R.IsPointer() && leftValue.Product {
		if pointee, ok := R.Pointee(); ok {
			T.MakePointerTo(pointee)
		} else {
			T.MakePointer()
		}
	}
}

func applySubRule(T, L, R Type, leftValue, rightValue *dflow.Value) {
	if L.IsInteger() && R.IsInteger() {
		T.MakeInteger()
	}
	if L.IsPointer() && R.IsInteger() {
		T.MakePointer()
	}
	if T.IsPointer() {
		L.MakePointer()
		R.MakeInteger()
	}

	propagateSignednessDominance(T, L, R)

	if rightValue.Abstract.IsConcrete() {
		if T.Equal(L) {
			T.UpdateFactor(rightValue.Abstract.Abs)
		} else if StructRecovery && !rightValue.StackOffset {
			L.AddOffset(-rightValue.Abstract.Signed, T)
		}
	}

	if L.IsPointer() && rightValue.Product {
		if pointee, ok := L.Pointee(); ok {
			T.MakePointerTo(pointee)
		} else {
			T.MakePointer()
		}
	}
}

// applyStmtRule is the statement half of the rule engine: constraints that
// depend on a statement's shape rather than on a single term. Unknown
// statement kinds are recoverable: warn and move on.
func applyStmtRule(s *Store, st ir.Stmt) {
	switch st := st.(type) {
	case *ir.CommentStmt, *ir.InlineAssemblyStmt, *ir.KillStmt, *ir.JumpStmt, *ir.CallStmt, *ir.ReturnStmt:
		// no-op at this layer; call/return types are wired through the
		// driver's own seeding and return-unification steps, jumps carry
		// no type obligation.

	case *ir.AssignmentStmt:
		s.GetType(st.Left).UnionSet(s.GetType(st.Right))

	default:
		tlog.Printw("unsupported statement kind, skipping", "kind", "unknown", "type", tlog.NextAsType, st)
	}
}
