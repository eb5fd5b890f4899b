package compiler

import "strings"

// scanner walks rule text while tracking string-literal and parenthesis state.
// Inside a literal, a backslash escapes the next byte.
type scanner struct {
	src     string
	pos     int
	inQuote bool
	depth   int
}

// next advances one byte and reports whether the byte at the old position
// is structural, i.e. outside any string literal.
func (s *scanner) next() (c byte, structural bool) {
	c = s.src[s.pos]
	s.pos++

	if s.inQuote {
		switch c {
		case '\\':
			if s.pos < len(s.src) {
				s.pos++
			}
		case '"':
			s.inQuote = false
		}
		return c, false
	}

	switch c {
	case '"':
		s.inQuote = true
		return c, false
	case '(':
		s.depth++
	case ')':
		s.depth--
	}
	return c, true
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// splitTopLevel splits src at every sep that is outside literals and parentheses.
func splitTopLevel(src string, sep byte) []string {
	var parts []string
	sc := &scanner{src: src}
	start := 0
	for !sc.done() {
		at := sc.pos
		c, structural := sc.next()
		// The depth check happens after next() so a separator is never a paren.
		if structural && c == sep && sc.depth == 0 {
			parts = append(parts, src[start:at])
			start = sc.pos
		}
	}
	return append(parts, src[start:])
}

// findOperator returns the position and length of the rightmost top-level
// occurrence of the symbol or word form of a logical operator, or -1.
// Word forms match case-insensitively and only on identifier boundaries.
func findOperator(src, symbol, word string) (int, int) {
	pos, length := -1, 0
	sc := &scanner{src: src}
	for !sc.done() {
		at := sc.pos
		_, structural := sc.next()
		if !structural || sc.depth != 0 {
			continue
		}
		rest := src[at:]
		switch {
		case strings.HasPrefix(rest, symbol):
			pos, length = at, len(symbol)
			sc.pos = at + len(symbol)
		case len(rest) >= len(word) && strings.EqualFold(rest[:len(word)], word) &&
			isBoundary(src, at-1) && isBoundary(src, at+len(word)):
			pos, length = at, len(word)
			sc.pos = at + len(word)
		}
	}
	return pos, length
}

// findEquality returns the positions of every top-level "==".
func findEquality(src string) []int {
	var found []int
	sc := &scanner{src: src}
	for !sc.done() {
		at := sc.pos
		_, structural := sc.next()
		if structural && sc.depth == 0 && strings.HasPrefix(src[at:], "==") {
			found = append(found, at)
			sc.pos = at + 2
		}
	}
	return found
}

// matchingParen returns the index of the parenthesis closing the one at open, or -1.
func matchingParen(src string, open int) int {
	sc := &scanner{src: src, pos: open}
	for !sc.done() {
		at := sc.pos
		c, structural := sc.next()
		if structural && c == ')' && sc.depth == 0 {
			return at
		}
	}
	return -1
}

// literalEnd returns the index of the quote closing the literal opened at src[0], or -1.
func literalEnd(src string) int {
	sc := &scanner{src: src}
	sc.next()
	for !sc.done() {
		at := sc.pos
		c, _ := sc.next()
		if c == '"' && !sc.inQuote {
			return at
		}
	}
	return -1
}

// unquote strips the quotes of a literal and resolves \" and \\ escapes.
// Any other escaped byte is kept verbatim together with its backslash.
func unquote(lit string) string {
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '"' || body[i+1] == '\\') {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

func isBoundary(src string, i int) bool {
	if i < 0 || i >= len(src) {
		return true
	}
	return !isIdentByte(src[i]) && src[i] != '.'
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
