package rexxexpr

import (
	"bytes"
	"strconv"
)

// opKind is an operator.
type opKind int8

const (
	opNone opKind = iota

	opOr  // |
	opXor // &&
	opAnd // &

	opEq // =
	opNe // \= <> ><
	opLt // <
	opGt // >
	opLe // <= \>
	opGe // >= \<

	opSEq // ==
	opSNe // \==
	opSLt // <<
	opSGt // >>
	opSLe // <<= \>>
	opSGe // >>= \<<

	opConcat // || and abuttal
	opBlank  // blank concatenation

	opAdd // +
	opSub // -

	opMul  // *
	opDiv  // /
	opIDiv // %
	opRem  // //

	opPow // **

	opNeg  // prefix -
	opPlus // prefix +
	opNot  // prefix \
)

// opInfo describes an operator: its text for tracing, its priority, and the
// function that applies it to the operands on the stack.
type opInfo struct {
	text  string
	prec  int8
	apply func(ctx *Context, op opKind) error
}

// prefixPrec is the priority of prefix operators.
const prefixPrec = 11

// blankPrec is the priority of all forms of concatenation.
const blankPrec = 6

var ops = [...]opInfo{
	opNone: {"", 0, nil},

	opOr:  {"|", 2, (*Context).logic},
	opXor: {"&&", 2, (*Context).logic},
	opAnd: {"&", 3, (*Context).logic},

	opEq: {"=", 5, (*Context).loose},
	opNe: {"\\=", 5, (*Context).loose},
	opLt: {"<", 5, (*Context).loose},
	opGt: {">", 5, (*Context).loose},
	opLe: {"<=", 5, (*Context).loose},
	opGe: {">=", 5, (*Context).loose},

	opSEq: {"==", 5, (*Context).strict},
	opSNe: {"\\==", 5, (*Context).strict},
	opSLt: {"<<", 5, (*Context).strict},
	opSGt: {">>", 5, (*Context).strict},
	opSLe: {"<<=", 5, (*Context).strict},
	opSGe: {">>=", 5, (*Context).strict},

	opConcat: {"||", blankPrec, (*Context).concat},
	opBlank:  {" ", blankPrec, (*Context).concat},

	opAdd: {"+", 7, (*Context).arith},
	opSub: {"-", 7, (*Context).arith},

	opMul:  {"*", 8, (*Context).arith},
	opDiv:  {"/", 8, (*Context).arith},
	opIDiv: {"%", 8, (*Context).arith},
	opRem:  {"//", 8, (*Context).arith},

	opPow: {"**", 9, (*Context).power},

	opNeg:  {"-", prefixPrec, (*Context).prefix},
	opPlus: {"+", prefixPrec, (*Context).prefix},
	opNot:  {"\\", prefixPrec, (*Context).prefix},
}

func (op opKind) String() string {
	if op <= opNone || int(op) >= len(ops) {
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
	return ops[op].text
}

// badOp creates a panic message for an operator applied by the wrong
// function. It must not refer to ops, which refers to the apply functions.
func badOp(fn string, op opKind) string {
	return "rexxexpr: " + fn + " on operator " + strconv.Itoa(int(op))
}

func (op opKind) prec() int8 {
	return ops[op].prec
}

// operand pops the top value and decodes it as a number.
func (ctx *Context) operand() (number, error) {
	b, err := ctx.stk.popText()
	if err != nil {
		return number{}, err
	}
	n, ok, err := ctx.wk.decode(b, ctx.num.MaxExp)
	if err != nil {
		return number{}, err
	}
	if !ok {
		return number{}, fail(NotNumeric, string(b))
	}
	return n, nil
}

// operands pops and decodes the two operands of a binary operator.
func (ctx *Context) operands() (a, b number, err error) {
	b, err = ctx.operand()
	if err != nil {
		return
	}
	a, err = ctx.operand()
	return
}

// pushNumber formats n and pushes it.
func (ctx *Context) pushNumber(n number) error {
	var err error
	ctx.scratch, err = ctx.wk.appendNumber(ctx.scratch[:0], n, ctx.num)
	if err != nil {
		return err
	}
	return ctx.stk.push(ctx.scratch)
}

// pushBool pushes "1" or "0".
func (ctx *Context) pushBool(v bool) error {
	if v {
		return ctx.stk.pushString("1")
	}
	return ctx.stk.pushString("0")
}

func (ctx *Context) arith(op opKind) error {
	a, b, err := ctx.operands()
	if err != nil {
		return err
	}
	var r number
	switch op {
	case opAdd:
		r = ctx.wk.add(a, b, ctx.num.Digits)
	case opSub:
		r = ctx.wk.sub(a, b, ctx.num.Digits)
	case opMul:
		r = ctx.wk.mul(a, b, ctx.num.Digits+2)
		if err := checkExp(r, ctx.num.MaxExp); err != nil {
			return err
		}
	case opDiv, opIDiv, opRem:
		if b.zero {
			return fail(DivideByZero, "")
		}
		q, rem, err := ctx.wk.divide(a, b, ctx.num.Digits, op != opDiv)
		if err != nil {
			return err
		}
		r = q
		if op == opRem {
			r = rem
		}
	default:
		panic(badOp("arith", op))
	}
	return ctx.pushNumber(r)
}

func (ctx *Context) power(op opKind) error {
	y, err := ctx.operand()
	if err != nil {
		return err
	}
	x, err := ctx.operand()
	if err != nil {
		return err
	}
	n, ok, fits := whole(y)
	if !ok {
		return fail(NonIntegerExponent, "")
	}
	if !fits {
		return fail(ExponentOverflow, "")
	}
	r, err := ctx.wk.power(x, n, ctx.num)
	if err != nil {
		return err
	}
	return ctx.pushNumber(r)
}

// loose compares numerically if both operands are numbers and otherwise
// compares them as strings with blanks trimmed, padding the shorter with
// blanks.
func (ctx *Context) loose(op opKind) error {
	bt, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	at, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	var c int
	b, okb, err := ctx.wk.decode(bt, ctx.num.MaxExp)
	if err != nil {
		return err
	}
	a, oka, err := ctx.wk.decode(at, ctx.num.MaxExp)
	if err != nil {
		return err
	}
	if oka && okb {
		c = ctx.wk.compare(a, b, ctx.num.Digits-ctx.num.Fuzz)
	} else {
		// Tabs are blanks here as everywhere else.
		c = padCompare(bytes.Trim(at, " \t"), bytes.Trim(bt, " \t"))
	}
	var r bool
	switch op {
	case opEq:
		r = c == 0
	case opNe:
		r = c != 0
	case opLt:
		r = c < 0
	case opGt:
		r = c > 0
	case opLe:
		r = c <= 0
	case opGe:
		r = c >= 0
	default:
		panic(badOp("loose comparison", op))
	}
	return ctx.pushBool(r)
}

// padCompare compares a and b as though the shorter were padded with blanks.
func padCompare(a, b []byte) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := byte(' '), byte(' ')
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
	}
	return 0
}

// strict compares the operands byte for byte.
func (ctx *Context) strict(op opKind) error {
	b, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	a, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	c := bytes.Compare(a, b)
	var r bool
	switch op {
	case opSEq:
		r = c == 0
	case opSNe:
		r = c != 0
	case opSLt:
		r = c < 0
	case opSGt:
		r = c > 0
	case opSLe:
		r = c <= 0
	case opSGe:
		r = c >= 0
	default:
		panic(badOp("strict comparison", op))
	}
	return ctx.pushBool(r)
}

// logic applies a boolean operator to the truth values of the operands.
// A number is true when it is not zero.
func (ctx *Context) logic(op opKind) error {
	a, b, err := ctx.operands()
	if err != nil {
		return err
	}
	x, y := !a.zero, !b.zero
	var r bool
	switch op {
	case opAnd:
		r = x && y
	case opOr:
		r = x || y
	case opXor:
		r = x != y
	default:
		panic(badOp("logic", op))
	}
	return ctx.pushBool(r)
}

func (ctx *Context) concat(op opKind) error {
	b, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	a, err := ctx.stk.popText()
	if err != nil {
		return err
	}
	// a and b alias the stack, so build the result elsewhere.
	s := append(ctx.scratch[:0], a...)
	if op == opBlank {
		s = append(s, ' ')
	}
	s = append(s, b...)
	ctx.scratch = s
	return ctx.stk.push(s)
}

func (ctx *Context) prefix(op opKind) error {
	n, err := ctx.operand()
	if err != nil {
		return err
	}
	switch op {
	case opNot:
		return ctx.pushBool(n.zero)
	case opNeg:
		if !n.zero {
			n.neg = !n.neg
		}
	case opPlus:
	default:
		panic(badOp("prefix", op))
	}
	return ctx.pushNumber(n)
}
