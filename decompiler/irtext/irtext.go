// Package irtext builds ir.Func values from a small line-oriented textual
// format, so tests and the CLI can write down a function instead of
// constructing *ir.Const/*ir.Binary/... graphs by hand. It owns no
// type-reconstruction semantics: everything it produces is exactly what
// decompiler/census and decompiler/types would receive from a real lifter.
//
// Grammar (informal):
//
//	func NAME(in0, in1) {
//	  block LABEL:
//	    t1 = const 42
//	    t2 = deref t1
//	    t3 = add t1, t2
//	    t4 = ult t3, t1
//	    assign t4, t3
//	    jump LABEL
//	    return t3
//	}
//
// A `;` starts a line comment (kept as an ir.CommentStmt when it's the
// whole line, discarded when it trails a statement). Term-defining lines
// are `name = kind arg, arg, ...`; `kind` may be prefixed with `read` to
// mark the produced term as a read (`name = read mem stack, -8`). Block
// labels resolve forward and backward within one function, so a jump may
// target a block defined later in the source.
package irtext

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"

	"github.com/nikandfor/nocode/decompiler/ir"
	"github.com/nikandfor/nocode/decompiler/parse"
)

// cursor walks src one logical line at a time. A logical line is a raw
// source line with its trailing comment and surrounding whitespace
// stripped; blank lines are skipped by next/peek. A comment-only line is
// kept whole and surfaces like any other line: inside a block it is
// recorded as an ir.CommentStmt, elsewhere (outside a function, or before
// a function's first block) it is rejected as unexpected input.
type cursor struct {
	lines []string
	pos   int
}

func newCursor(src string) *cursor {
	raw := strings.Split(src, "\n")
	lines := make([]string, len(raw))

	for i, l := range raw {
		t := strings.TrimSpace(l)

		switch {
		case strings.HasPrefix(t, ";"):
			// comment-only line: keep it whole, buildStmt turns it into
			// an ir.CommentStmt.
		case strings.ContainsRune(t, ';'):
			t = strings.TrimSpace(t[:strings.IndexByte(t, ';')])
		}

		lines[i] = t
	}

	return &cursor{lines: lines}
}

func (c *cursor) peek() (string, bool) {
	for c.pos < len(c.lines) && c.lines[c.pos] == "" {
		c.pos++
	}

	if c.pos >= len(c.lines) {
		return "", false
	}

	return c.lines[c.pos], true
}

func (c *cursor) next() (string, bool) {
	l, ok := c.peek()
	if ok {
		c.pos++
	}

	return l, ok
}

// Build parses src and returns the functions it defines, in source order.
func Build(src string) ([]*ir.Func, error) {
	c := newCursor(src)

	var funcs []*ir.Func

	for {
		line, ok := c.peek()
		if !ok {
			break
		}

		if !strings.HasPrefix(line, "func ") {
			return nil, errors.New("expected %q, got %q", "func", line)
		}

		f, err := buildFunc(c)
		if err != nil {
			return nil, errors.Wrap(err, "func")
		}

		funcs = append(funcs, f)
	}

	return funcs, nil
}

type funcBuilder struct {
	f      *ir.Func
	terms  map[string]ir.Term
	blocks map[string]*ir.BasicBlock

	pendingJumps []pendingJump
}

type pendingJump struct {
	stmt  *ir.JumpStmt
	label string
}

func buildFunc(c *cursor) (*ir.Func, error) {
	header, _ := c.next()
	header = strings.TrimSpace(strings.TrimSuffix(header, "{"))

	name, params, err := parseFuncHeader(strings.TrimPrefix(header, "func "))
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}

	fb := &funcBuilder{
		f:      &ir.Func{Name: name},
		terms:  map[string]ir.Term{},
		blocks: map[string]*ir.BasicBlock{},
	}

	for i, p := range params {
		t := &ir.MemoryLocationAccessTerm{
			Base:     ir.Base{Read: true},
			Location: ir.Location{Space: "in", Index: int64(i)},
		}

		fb.terms[p] = t
		fb.f.In = append(fb.f.In, t)
	}

	for {
		line, ok := c.peek()
		if !ok {
			return nil, errors.New("unexpected end of input inside %q", name)
		}

		if line == "}" {
			c.next()

			return fb.finish()
		}

		if !strings.HasPrefix(line, "block ") {
			return nil, errors.New("expected block or %q, got %q", "}", line)
		}

		if err := fb.buildBlock(c); err != nil {
			return nil, errors.Wrap(err, "block")
		}
	}
}

func (fb *funcBuilder) finish() (*ir.Func, error) {
	for _, pj := range fb.pendingJumps {
		bb, ok := fb.blocks[pj.label]
		if !ok {
			return nil, errors.New("jump to undefined block %q", pj.label)
		}

		pj.stmt.Target = bb
	}

	return fb.f, nil
}

func (fb *funcBuilder) buildBlock(c *cursor) error {
	header, _ := c.next()

	label, err := validIdent(strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(header, "block ")), ":"))
	if err != nil {
		return errors.Wrap(err, "label")
	}

	if _, dup := fb.blocks[label]; dup {
		return errors.New("duplicate block %q", label)
	}

	bb := &ir.BasicBlock{Name: label}

	fb.blocks[label] = bb
	fb.f.Blocks = append(fb.f.Blocks, bb)

	for {
		line, ok := c.peek()
		if !ok {
			return errors.New("unexpected end of input inside block %q", label)
		}

		if line == "}" || strings.HasPrefix(line, "block ") {
			return nil
		}

		c.next()

		st, err := fb.buildStmt(line)
		if err != nil {
			return errors.Wrap(err, "%q", line)
		}

		if st != nil {
			bb.Stmts = append(bb.Stmts, st)
		}
	}
}

func parseFuncHeader(s string) (name string, params []string, err error) {
	open := strings.IndexByte(s, '(')
	shut := strings.LastIndexByte(s, ')')

	if open < 0 || shut < open {
		return "", nil, errors.New("malformed function header %q", s)
	}

	name, err = validIdent(strings.TrimSpace(s[:open]))
	if err != nil {
		return "", nil, errors.Wrap(err, "name")
	}

	for _, p := range splitArgs(s[open+1 : shut]) {
		p, err = validIdent(p)
		if err != nil {
			return "", nil, errors.Wrap(err, "param")
		}

		params = append(params, p)
	}

	return name, params, nil
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}

func validIdent(s string) (string, error) {
	x, i, err := (parse.Ident{}).Parse(nil, []byte(s), 0) //nolint:staticcheck // nil ctx: Ident.Parse never touches it
	if err != nil {
		return "", errors.Wrap(err, "ident %q", s)
	}

	if i != len(s) {
		return "", errors.New("%q is not a single identifier", s)
	}

	return string(x.(parse.Ident)), nil
}

func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "integer %q", s)
	}

	return v, nil
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "integer %q", s)
	}

	return v, nil
}
