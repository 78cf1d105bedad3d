// Package parse holds the one token scanner irtext needs: an identifier
// parser, used to validate function names, parameters, and block labels.
package parse

import (
	"context"
	"unicode/utf8"

	"tlog.app/go/errors"
)

// Ident scans a single identifier: a letter or underscore, followed by any
// number of letters, digits, underscores, or non-ASCII runes.
type Ident []byte

// Parse reads an identifier from b starting at st. ctx is accepted for
// signature symmetry with other scanners of this shape but is never
// consulted.
func (p Ident) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("Ident expected")
	}

	i = st

	c := b[i]

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		i++
	default:
		return nil, st, errors.New("Ident expected")
	}

loop:
	for i < len(b) {
		c := b[i]

		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_':
			i++
		case c >= utf8.RuneSelf:
			if r, w := utf8.DecodeRune(b[i:]); r == utf8.RuneError {
				return nil, i, errors.New("bad rune")
			} else {
				i += w
			}
		default:
			break loop
		}
	}

	return Ident(b[st:i]), i, nil
}
