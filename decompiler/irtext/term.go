package irtext

import (
	"strings"

	"tlog.app/go/errors"

	"github.com/nikandfor/nocode/decompiler/ir"
)

var unaryOps = map[string]ir.UnaryOp{
	"not":   ir.NOT,
	"neg":   ir.NEGATION,
	"sext":  ir.SIGN_EXTEND,
	"zext":  ir.ZERO_EXTEND,
	"trunc": ir.TRUNCATE,
}

var binaryOps = map[string]ir.BinaryOp{
	"and":  ir.AND,
	"or":   ir.OR,
	"xor":  ir.XOR,
	"shl":  ir.SHL,
	"shr":  ir.SHR,
	"sar":  ir.SAR,
	"add":  ir.ADD,
	"sub":  ir.SUB,
	"mul":  ir.MUL,
	"sdiv": ir.SIGNED_DIV,
	"srem": ir.SIGNED_REM,
	"udiv": ir.UNSIGNED_DIV,
	"urem": ir.UNSIGNED_REM,
	"eq":   ir.EQUAL,
	"slt":  ir.SIGNED_LESS,
	"sle":  ir.SIGNED_LESS_OR_EQUAL,
	"ult":  ir.UNSIGNED_LESS,
	"ule":  ir.UNSIGNED_LESS_OR_EQUAL,
}

// buildTerm parses the right-hand side of a term-def line ("kind arg, arg,
// ..."), optionally prefixed with "read", and returns the freshly built
// term.
func (fb *funcBuilder) buildTerm(rest string) (ir.Term, error) {
	read := false

	if r, ok := strings.CutPrefix(rest, "read "); ok {
		read = true
		rest = strings.TrimSpace(r)
	}

	kind, argsStr, _ := strings.Cut(rest, " ")
	args := splitArgs(argsStr)
	base := ir.Base{Read: read}

	if op, ok := unaryOps[kind]; ok {
		operand, err := fb.oneOperand(args)
		if err != nil {
			return nil, err
		}

		return &ir.Unary{Base: base, Op: op, Operand: operand}, nil
	}

	if op, ok := binaryOps[kind]; ok {
		l, r, err := fb.twoOperands(args)
		if err != nil {
			return nil, err
		}

		return &ir.Binary{Base: base, Op: op, Left: l, Right: r}, nil
	}

	switch kind {
	case "const":
		if len(args) != 1 {
			return nil, errors.New("const wants 1 arg, got %d", len(args))
		}

		v, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}

		return &ir.Const{Base: base, Value: v}, nil

	case "undefined":
		return &ir.UndefinedTerm{Base: base}, nil

	case "intrinsic":
		if len(args) != 1 {
			return nil, errors.New("intrinsic wants 1 arg, got %d", len(args))
		}

		return &ir.IntrinsicTerm{Base: base, Name: args[0]}, nil

	case "mem":
		if len(args) != 2 {
			return nil, errors.New("mem wants 2 args (space, index), got %d", len(args))
		}

		space, err := validIdent(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "space")
		}

		idx, err := parseInt(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "index")
		}

		return &ir.MemoryLocationAccessTerm{Base: base, Location: ir.Location{Space: space, Index: idx}}, nil

	case "deref":
		addr, err := fb.oneOperand(args)
		if err != nil {
			return nil, err
		}

		return &ir.Deref{Base: base, Address: addr}, nil

	case "choice":
		if len(args) == 0 {
			return nil, errors.New("choice wants at least 1 arg")
		}

		terms := make([]ir.Term, len(args))

		for i, a := range args {
			t, err := fb.resolve(a)
			if err != nil {
				return nil, err
			}

			terms[i] = t
		}

		return &ir.ChoiceTerm{Base: base, Terms: terms}, nil

	default:
		return nil, errors.New("unknown term kind %q", kind)
	}
}

func (fb *funcBuilder) oneOperand(args []string) (ir.Term, error) {
	if len(args) != 1 {
		return nil, errors.New("wants 1 arg, got %d", len(args))
	}

	return fb.resolve(args[0])
}

func (fb *funcBuilder) twoOperands(args []string) (ir.Term, ir.Term, error) {
	if len(args) != 2 {
		return nil, nil, errors.New("wants 2 args, got %d", len(args))
	}

	l, err := fb.resolve(args[0])
	if err != nil {
		return nil, nil, err
	}

	r, err := fb.resolve(args[1])
	if err != nil {
		return nil, nil, err
	}

	return l, r, nil
}
