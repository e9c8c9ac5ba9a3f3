package rexxexpr

import "strconv"

// ErrorKind identifies the condition that stopped an evaluation. ErrorKind
// implements error, so errors.Is(err, DivideByZero) reports whether err is an
// *Error of that kind.
type ErrorKind int8

const (
	errNone ErrorKind = iota
	// NotNumeric is an operand that must be a number but is not.
	NotNumeric
	// DivideByZero is a division of any kind by zero.
	DivideByZero
	// ExponentOverflow is a number whose exponent exceeds MaxExp.
	ExponentOverflow
	// NonIntegerExponent is a power whose exponent is not a whole number.
	NonIntegerExponent
	// WholeNumber is an integer division result wider than Digits.
	WholeNumber
	// BadHex is a malformed hexadecimal string literal.
	BadHex
	// BadBinary is a malformed binary string literal.
	BadBinary
	// Unterminated is a string literal with no closing quote.
	Unterminated
	// Paren is an unmatched open or close parenthesis.
	Paren
	// Comma is a comma outside of a function argument list.
	Comma
	// Expression is a missing term, a unary operator where a binary operator
	// is required, or a character that cannot start a term.
	Expression
	// StackOverflow is an expression nested deeper than MaxDepth operators.
	StackOverflow
	// Resource is a value stack that would exceed MaxStack bytes.
	Resource
	// NameTooLong is a symbol or resolved compound name longer than MaxName.
	NameTooLong
	// NoValue is a reference to an unassigned variable under StrictNoValue.
	NoValue
	// NoResult is a function call that returned no result, or a call to an
	// unknown function.
	NoResult
	// NullValue is an omitted argument used as a value.
	NullValue
	// VarPool is a failure reported by the variable collaborator.
	VarPool
	// Call is a failure reported by a function.
	Call
)

var kindText = [...]string{
	errNone:            "no error",
	NotNumeric:         "bad arithmetic conversion",
	DivideByZero:       "division by zero",
	ExponentOverflow:   "arithmetic overflow",
	NonIntegerExponent: "exponent is not a whole number",
	WholeNumber:        "integer division result too large",
	BadHex:             "invalid hexadecimal constant",
	BadBinary:          "invalid binary constant",
	Unterminated:       "unmatched quote",
	Paren:              "unmatched parenthesis",
	Comma:              "unexpected comma",
	Expression:         "invalid expression",
	StackOverflow:      "expression too complex",
	Resource:           "evaluation stack exhausted",
	NameTooLong:        "name too long",
	NoValue:            "novalue",
	NoResult:           "function did not return a result",
	NullValue:          "omitted argument used as a value",
	VarPool:            "variable pool failure",
	Call:               "function failed",
}

func (k ErrorKind) Error() string {
	if k < 0 || int(k) >= len(kindText) {
		return "unknown error " + strconv.Itoa(int(k))
	}
	return kindText[k]
}

// Error is the error that stopped an evaluation. Every failure of Eval is an
// *Error. It implements InputError.
type Error struct {
	// Kind is the condition that was detected.
	Kind ErrorKind
	// Col is the 1-based byte column in the source where the term or operator
	// being evaluated starts, or 0 if the error did not come from source text.
	Col int
	// Name is the value or name the error concerns, if any.
	Name string
	// Err is the collaborator error for VarPool and Call errors.
	Err error
}

func (err *Error) Error() string {
	msg := err.Kind.Error()
	if err.Name != "" {
		msg += " " + strconv.Quote(err.Name)
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	if err.Col <= 0 {
		return msg
	}
	return errpos(err.Col, msg)
}

func (err *Error) Pos() int {
	return err.Col
}

// Unwrap returns the error kind and, if there is one, the collaborator error.
func (err *Error) Unwrap() []error {
	if err.Err == nil {
		return []error{err.Kind}
	}
	return []error{err.Kind, err.Err}
}

// fail creates an error without position information. The evaluator fills in
// the column as the error passes out through it.
func fail(kind ErrorKind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

// at sets the position of err if it is an *Error without one.
func at(err error, pos int) error {
	if e, ok := err.(*Error); ok && e.Col == 0 {
		e.Col = pos + 1
	}
	return err
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information.
type InputError interface {
	error
	// Pos returns the 1-based byte column of the term or operator that
	// caused the error, or 0 if unknown.
	Pos() int
}

var _ InputError = (*Error)(nil)
