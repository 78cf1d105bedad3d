package ir

type (
	CommentStmt struct {
		Text string
	}

	InlineAssemblyStmt struct {
		Text string
	}

	// AssignmentStmt is the only statement kind the rule engine treats
	// specially: it forces Left and Right into the same equivalence class.
	AssignmentStmt struct {
		Left  Term
		Right Term
	}

	KillStmt struct {
		Location Location
	}

	JumpStmt struct {
		Target *BasicBlock
	}

	CallStmt struct {
		Target Term

		Args    []Term
		Results []Term
	}

	// ReturnStmt carries the terms the callee returns. In a real ABI the
	// carrier term is picked out via the signature oracle; Values is kept
	// for hosts that want a fuller picture than the ABI return-value slot
	// alone (e.g. multiple return registers).
	ReturnStmt struct {
		Values []Term
	}
)

func (CommentStmt) Kind() StmtKind        { return Comment }
func (InlineAssemblyStmt) Kind() StmtKind { return InlineAssembly }
func (AssignmentStmt) Kind() StmtKind     { return Assignment }
func (KillStmt) Kind() StmtKind           { return Kill }
func (JumpStmt) Kind() StmtKind           { return Jump }
func (CallStmt) Kind() StmtKind           { return Call }
func (ReturnStmt) Kind() StmtKind         { return Return }

// AsAssignment downcasts a Stmt to *AssignmentStmt, or returns (nil, false).
func AsAssignment(s Stmt) (*AssignmentStmt, bool) {
	a, ok := s.(*AssignmentStmt)
	return a, ok
}
