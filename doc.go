// Package rexxexpr evaluates REXX expressions with decimal arithmetic.
//
// An expression is evaluated in place within a line of macro source: Eval
// takes the line and a starting offset and returns the value along with the
// offset where the expression ended, so a host interpreter can continue
// parsing the clause from there. Values are strings. Arithmetic treats them
// as decimal numbers with NUMERIC DIGITS significant digits, so "0.1+0.2"
// is exactly 0.3 and "1.50+1" is 2.50.
//
// Variables and functions belong to the host. A Context reads variables
// through a Vars pool, which may be as simple as a map (see the pool
// package), and calls functions through a Caller. Builtins provides a small
// library of the usual REXX functions.
//
// All failures are *Error values. Use errors.Is with an ErrorKind to test
// for a particular condition:
//
//	_, _, err := ctx.Eval("1/0", 0)
//	if errors.Is(err, rexxexpr.DivideByZero) {
//		...
//	}
package rexxexpr
