package ir

// Operands returns term's immediate sub-terms, if any. Compound kinds
// (dereference, unary, binary, choice) have operands; the others are
// leaves. Call sites do not go through Operands: their argument/result
// terms are hooked in separately by the census, via the calls-data oracle,
// since they are not sub-terms of any single Term value.
func Operands(t Term) []Term {
	switch t := t.(type) {
	case *Deref:
		return []Term{t.Address}
	case *Unary:
		return []Term{t.Operand}
	case *Binary:
		return []Term{t.Left, t.Right}
	case *ChoiceTerm:
		return t.Terms
	default:
		return nil
	}
}

// StmtTerms returns the top-level terms a statement directly refers to, in a
// stable order. It does not recurse into operands; callers walk those
// separately via Operands.
func StmtTerms(s Stmt) []Term {
	switch s := s.(type) {
	case *AssignmentStmt:
		return []Term{s.Left, s.Right}
	case *CallStmt:
		terms := make([]Term, 0, 1+len(s.Args)+len(s.Results))
		if s.Target != nil {
			terms = append(terms, s.Target)
		}
		terms = append(terms, s.Args...)
		terms = append(terms, s.Results...)
		return terms
	case *ReturnStmt:
		return s.Values
	default:
		return nil
	}
}
