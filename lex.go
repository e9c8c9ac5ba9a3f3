package rexxexpr

import "strings"

// SymbolChars contains the characters other than ASCII letters and digits
// that may appear in a symbol. A period separates the parts of a compound
// symbol.
const SymbolChars = ".!?_@#$"

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSymbolChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', isDigit(c):
		return true
	}
	return strings.IndexByte(SymbolChars, c) >= 0
}

// isNameChar reports whether c may appear in one part of a compound symbol.
func isNameChar(c byte) bool {
	return c != '.' && isSymbolChar(c)
}

// blanks returns the position of the first non-blank at or after pos.
func blanks(src string, pos int) int {
	for pos < len(src) && isBlank(src[pos]) {
		pos++
	}
	return pos
}

// scanSymbol returns the end of the symbol starting at pos.
func scanSymbol(src string, pos int) int {
	for pos < len(src) && isSymbolChar(src[pos]) {
		pos++
	}
	return pos
}

// scanName returns the end of the compound symbol part starting at pos.
func scanName(src string, pos int) int {
	for pos < len(src) && isNameChar(src[pos]) {
		pos++
	}
	return pos
}

// scanConstant returns the end of the constant symbol starting at pos. While
// the symbol still looks like a number, a sign immediately following the
// exponent marker and followed by a digit belongs to the symbol rather than
// being an operator, so 1E+3 is one term.
func scanConstant(src string, pos int) int {
	// mant is whether only digits and at most one period have been seen, and
	// dig is whether any of them were digits.
	mant, dig, dot := true, false, false
	i := pos
	for i < len(src) {
		c := src[i]
		switch {
		case isDigit(c):
			dig = true
		case c == '.' && mant && !dot:
			dot = true
		case (c == 'e' || c == 'E') && mant && dig:
			mant = false
			if i+2 < len(src) && (src[i+1] == '+' || src[i+1] == '-') && isDigit(src[i+2]) {
				i += 2
			}
		case isSymbolChar(c):
			mant = false
		default:
			return i
		}
		i++
	}
	return i
}

// scanQuote returns the position of the quote that closes the literal
// opened at pos. Doubled quotes inside the literal do not close it.
func scanQuote(src string, pos int) (int, error) {
	q := src[pos]
	for i := pos + 1; i < len(src); i++ {
		if src[i] != q {
			continue
		}
		if i+1 < len(src) && src[i+1] == q {
			i++
			continue
		}
		return i, nil
	}
	return 0, fail(Unterminated, src[pos:])
}

// literalSuffix reports the radix suffix of the literal whose closing quote
// is at end: 'x' for hexadecimal, 'b' for binary, or 0 for none.
func literalSuffix(src string, end int) byte {
	if end+1 >= len(src) {
		return 0
	}
	if end+2 < len(src) && isSymbolChar(src[end+2]) {
		return 0
	}
	switch src[end+1] {
	case 'x', 'X':
		return 'x'
	case 'b', 'B':
		return 'b'
	}
	return 0
}

// upper uppercases the ASCII letters of a symbol.
func upper(s string) string {
	return strings.ToUpper(s)
}
