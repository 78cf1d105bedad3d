package irtext

import (
	"strings"

	"tlog.app/go/errors"

	"github.com/nikandfor/nocode/decompiler/ir"
)

func (fb *funcBuilder) buildStmt(line string) (ir.Stmt, error) {
	if strings.HasPrefix(line, ";") {
		return &ir.CommentStmt{Text: strings.TrimSpace(line[1:])}, nil
	}

	if name, rest, ok := strings.Cut(line, "="); ok {
		name, err := validIdent(strings.TrimSpace(name))
		if err != nil {
			return nil, errors.Wrap(err, "term name")
		}

		if _, dup := fb.terms[name]; dup {
			return nil, errors.New("term %q redefined", name)
		}

		t, err := fb.buildTerm(strings.TrimSpace(rest))
		if err != nil {
			return nil, errors.Wrap(err, "term %q", name)
		}

		fb.terms[name] = t

		// A term definition binds a name to an expression; it isn't an IR
		// action on its own, so it contributes no statement. The term
		// becomes reachable to census once something (an assign, a
		// return, another term's operand) actually uses the name.
		return nil, nil
	}

	kw, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch kw {
	case "assign":
		args := splitArgs(rest)
		if len(args) != 2 {
			return nil, errors.New("assign wants 2 args, got %d", len(args))
		}

		l, err := fb.resolve(args[0])
		if err != nil {
			return nil, err
		}

		r, err := fb.resolve(args[1])
		if err != nil {
			return nil, err
		}

		return &ir.AssignmentStmt{Left: l, Right: r}, nil

	case "kill":
		args := splitArgs(rest)
		if len(args) != 2 {
			return nil, errors.New("kill wants 2 args, got %d", len(args))
		}

		space, err := validIdent(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "space")
		}

		idx, err := parseInt(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "index")
		}

		return &ir.KillStmt{Location: ir.Location{Space: space, Index: idx}}, nil

	case "jump":
		label, err := validIdent(rest)
		if err != nil {
			return nil, errors.Wrap(err, "label")
		}

		st := &ir.JumpStmt{}
		fb.pendingJumps = append(fb.pendingJumps, pendingJump{stmt: st, label: label})

		return st, nil

	case "return":
		var values []ir.Term

		for _, a := range splitArgs(rest) {
			t, err := fb.resolve(a)
			if err != nil {
				return nil, err
			}

			values = append(values, t)
		}

		return &ir.ReturnStmt{Values: values}, nil

	case "call":
		return fb.buildCall(rest)

	case "asm":
		return &ir.InlineAssemblyStmt{Text: rest}, nil

	default:
		return nil, errors.New("unknown statement %q", kw)
	}
}

func (fb *funcBuilder) buildCall(rest string) (ir.Stmt, error) {
	left, right, _ := strings.Cut(rest, "->")

	lparts := splitArgs(left)
	if len(lparts) == 0 {
		return nil, errors.New("call needs a target")
	}

	target, err := fb.resolve(lparts[0])
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}

	var args []ir.Term

	for _, a := range lparts[1:] {
		t, err := fb.resolve(a)
		if err != nil {
			return nil, err
		}

		args = append(args, t)
	}

	var results []ir.Term

	for _, r := range splitArgs(right) {
		name, err := validIdent(r)
		if err != nil {
			return nil, errors.Wrap(err, "result")
		}

		if _, dup := fb.terms[name]; dup {
			return nil, errors.New("term %q redefined", name)
		}

		t := &ir.UndefinedTerm{}
		fb.terms[name] = t
		results = append(results, t)
	}

	return &ir.CallStmt{Target: target, Args: args, Results: results}, nil
}

func (fb *funcBuilder) resolve(name string) (ir.Term, error) {
	name, err := validIdent(name)
	if err != nil {
		return nil, errors.Wrap(err, "operand")
	}

	t, ok := fb.terms[name]
	if !ok {
		return nil, errors.New("undefined term %q", name)
	}

	return t, nil
}

