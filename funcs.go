package rexxexpr

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function callable from expressions. Arguments and results are
// strings; an omitted argument is a null Value.
type Func interface {
	// Call evaluates the function. args has a length for which CanCall
	// returned true. Call may evaluate further expressions with ctx.
	Call(ctx *Context, args []Value) (string, error)

	// CanCall returns whether the function can be called with n arguments,
	// counting omitted ones.
	CanCall(n int) bool
}

// Funcs is a function table keyed by uppercase name. It implements Caller.
// A name mapped to nil is not a function.
type Funcs map[string]Func

// Call calls the named function. A name not in the table yields no result.
func (f Funcs) Call(ctx *Context, name string, args []Value) (string, bool, error) {
	fn := f[name]
	if fn == nil {
		return "", false, nil
	}
	if !fn.CanCall(len(args)) {
		return "", false, &Error{Kind: Call, Name: name, Err: ArgCountError(len(args))}
	}
	r, err := fn.Call(ctx, args)
	if err != nil {
		return "", false, err
	}
	return r, true, nil
}

var globalfuncs = Funcs{
	"ABS":    Fixed(1, 1, builtinAbs),
	"SIGN":   Fixed(1, 1, builtinSign),
	"MAX":    Fixed(1, -1, builtinMax),
	"MIN":    Fixed(1, -1, builtinMin),
	"TRUNC":  Fixed(1, 2, builtinTrunc),
	"FORMAT": Fixed(1, 1, builtinFormat),

	"DATATYPE": Fixed(1, 2, builtinDatatype),
	"LENGTH":   Fixed(1, 1, builtinLength),
	"COPIES":   Fixed(2, 2, builtinCopies),
	"REVERSE":  Fixed(1, 1, builtinReverse),
	"SUBSTR":   Fixed(2, 4, builtinSubstr),
	"LEFT":     Fixed(2, 3, builtinLeft),
	"RIGHT":    Fixed(2, 3, builtinRight),
	"WORDS":    Fixed(1, 1, builtinWords),

	"DIGITS": Fixed(0, 0, func(ctx *Context, _ []Value) (string, error) {
		return strconv.Itoa(ctx.num.Digits), nil
	}),
	"FUZZ": Fixed(0, 0, func(ctx *Context, _ []Value) (string, error) {
		return strconv.Itoa(ctx.num.Fuzz), nil
	}),
	"FORM": Fixed(0, 0, func(ctx *Context, _ []Value) (string, error) {
		return ctx.num.Form.String(), nil
	}),

	"SQRT": Monadic("SQRT", func(out, in *big.Float) *big.Float {
		if in.Sign() < 0 {
			panic(&DomainError{X: in, Arg: 1, Func: "SQRT"})
		}
		return out.Sqrt(in)
	}),
	"EXP": Monadic("EXP", func(out, in *big.Float) *big.Float {
		x, _ := in.Float64()
		switch est := x / math.Ln2; {
		case est > maxFloatExp:
			return out.SetInf(false)
		case est < -maxFloatExp:
			return out.SetInt64(0)
		}
		return bigfloat.Exp(out, in)
	}),
	"LN": Monadic("LN", func(out, in *big.Float) *big.Float {
		if in.Sign() <= 0 {
			panic(&DomainError{X: in, Arg: 1, Func: "LN"})
		}
		return bigfloat.Log(out, in)
	}),
	"POWER": Fixed(2, 2, builtinPower),
}

// Builtins returns a new copy of the built-in function table. Hosts may add
// to or remove from the result before passing it to WithFuncs.
func Builtins() Funcs {
	m := make(Funcs, len(globalfuncs))
	for k, v := range globalfuncs {
		m[k] = v
	}
	return m
}

// ArgCountError is an error returned when a function is called with a number
// of arguments it does not accept.
type ArgCountError int

func (err ArgCountError) Error() string {
	return "cannot call with " + strconv.Itoa(int(err)) + " arguments"
}

type fixed struct {
	min, max int
	f        func(ctx *Context, args []Value) (string, error)
}

func (f fixed) Call(ctx *Context, args []Value) (string, error) {
	return f.f(ctx, args)
}

func (f fixed) CanCall(n int) bool {
	return n >= f.min && (f.max < 0 || n <= f.max)
}

// Fixed wraps a function accepting between min and max arguments into a
// Func. A negative max allows any number of arguments.
func Fixed(min, max int, f func(ctx *Context, args []Value) (string, error)) Func {
	return fixed{min: min, max: max, f: f}
}

// ArgError is an error returned when a function argument is invalid.
type ArgError struct {
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is the function name.
	Func string
	// Msg describes the problem.
	Msg string
}

func (err *ArgError) Error() string {
	return err.Func + " argument " + strconv.Itoa(err.Arg) + " " + err.Msg
}

func argErr(fn string, i int, msg string) error {
	return &Error{Kind: Call, Name: fn, Err: &ArgError{Arg: i + 1, Func: fn, Msg: msg}}
}

// required returns the text of argument i, which must not be omitted.
func required(fn string, args []Value, i int) (string, error) {
	if args[i].Null {
		return "", argErr(fn, i, "is required")
	}
	return args[i].Text, nil
}

// optional returns the text of argument i or def if it is absent.
func optional(args []Value, i int, def string) string {
	if i >= len(args) || args[i].Null {
		return def
	}
	return args[i].Text
}

// wholeArg returns argument i as a non-negative whole number, or def if it
// is absent.
func wholeArg(ctx *Context, fn string, args []Value, i, def int) (int, error) {
	if i >= len(args) || args[i].Null {
		return def, nil
	}
	var v int
	err := ctx.numbers(args[i:i+1], func(ns []number) error {
		n, ok, fits := whole(ctx.wk.round(ns[0], ctx.num.Digits))
		if !ok || !fits || n < 0 {
			return argErr(fn, i, "must be a non-negative whole number")
		}
		v = n
		return nil
	})
	return v, err
}

// numbers decodes vals as numbers and passes them to f. The decoded numbers
// are valid only during f.
func (ctx *Context) numbers(vals []Value, f func(ns []number) error) error {
	base, mark := ctx.enter()
	ns := make([]number, len(vals))
	var err error
	for i, v := range vals {
		if v.Null {
			err = fail(NullValue, "")
			break
		}
		var ok bool
		ns[i], ok, err = ctx.wk.decode([]byte(v.Text), ctx.num.MaxExp)
		if err != nil {
			break
		}
		if !ok {
			err = fail(NotNumeric, v.Text)
			break
		}
	}
	if err == nil {
		err = f(ns)
	}
	return ctx.leave(base, mark, err)
}

// text formats n under the current settings.
func (ctx *Context) text(n number) (string, error) {
	var err error
	ctx.scratch, err = ctx.wk.appendNumber(ctx.scratch[:0], n, ctx.num)
	return string(ctx.scratch), err
}

func builtinAbs(ctx *Context, args []Value) (r string, err error) {
	err = ctx.numbers(args, func(ns []number) error {
		n := ns[0]
		n.neg = false
		r, err = ctx.text(n)
		return err
	})
	return r, err
}

func builtinSign(ctx *Context, args []Value) (r string, err error) {
	err = ctx.numbers(args, func(ns []number) error {
		n := ctx.wk.round(ns[0], ctx.num.Digits)
		switch {
		case n.zero:
			r = "0"
		case n.neg:
			r = "-1"
		default:
			r = "1"
		}
		return nil
	})
	return r, err
}

func extreme(ctx *Context, args []Value, want int) (r string, err error) {
	err = ctx.numbers(args, func(ns []number) error {
		best := ns[0]
		for _, n := range ns[1:] {
			if ctx.wk.compare(n, best, ctx.num.Digits) == want {
				best = n
			}
		}
		r, err = ctx.text(ctx.wk.round(best, ctx.num.Digits))
		return err
	})
	return r, err
}

func builtinMax(ctx *Context, args []Value) (string, error) {
	return extreme(ctx, args, 1)
}

func builtinMin(ctx *Context, args []Value) (string, error) {
	return extreme(ctx, args, -1)
}

// builtinTrunc returns the integer part of a number with a given count of
// decimal places, never in exponential notation.
func builtinTrunc(ctx *Context, args []Value) (r string, err error) {
	places, err := wholeArg(ctx, "TRUNC", args, 1, 0)
	if err != nil {
		return "", err
	}
	err = ctx.numbers(args[:1], func(ns []number) error {
		n := ctx.wk.round(ns[0], ctx.num.Digits)
		size := max(n.exp, 0) + 2 + places
		if size > maxTrunc {
			return fail(Resource, "")
		}
		if err := ctx.room(size); err != nil {
			return err
		}
		r = fixedPoint(n, places)
		return nil
	})
	return r, err
}

// maxTrunc bounds the length of a TRUNC result, which can be far longer than
// the number it came from.
const maxTrunc = 1 << 20

// fixedPoint writes n in plain notation with exactly places decimal places,
// truncating any further digits.
func fixedPoint(n number, places int) string {
	digit := func(i int) byte {
		if n.zero || i < 0 || i >= len(n.digits) {
			return '0'
		}
		return '0' + n.digits[i]
	}
	var b []byte
	if n.exp >= 0 {
		for i := 0; i <= n.exp; i++ {
			b = append(b, digit(i))
		}
	} else {
		b = append(b, '0')
	}
	if places > 0 {
		b = append(b, '.')
		for j := 1; j <= places; j++ {
			b = append(b, digit(n.exp+j))
		}
	}
	if n.neg && strings.ContainsAny(string(b), "123456789") {
		return "-" + string(b)
	}
	return string(b)
}

func builtinFormat(ctx *Context, args []Value) (string, error) {
	s, err := required("FORMAT", args, 0)
	if err != nil {
		return "", err
	}
	return ctx.Format(s)
}

// builtinDatatype classifies a string. With one argument it returns NUM or
// CHAR; with a type letter it returns 1 or 0.
func builtinDatatype(ctx *Context, args []Value) (string, error) {
	s, err := required("DATATYPE", args, 0)
	if err != nil {
		return "", err
	}
	if len(args) < 2 || args[1].Null {
		if ctx.isNumber(s, false) {
			return "NUM", nil
		}
		return "CHAR", nil
	}
	t := args[1].Text
	if t == "" {
		return "", argErr("DATATYPE", 1, "must not be empty")
	}
	var ok bool
	switch t[0] {
	case 'A', 'a':
		ok = s != "" && allBytes(s, func(c byte) bool { return isDigit(c) || isLetter(c) })
	case 'B', 'b':
		_, err := literalGroups(s, 4, binDigit, BadBinary)
		ok = err == nil
	case 'L', 'l':
		ok = s != "" && allBytes(s, func(c byte) bool { return 'a' <= c && c <= 'z' })
	case 'M', 'm':
		ok = s != "" && allBytes(s, isLetter)
	case 'N', 'n':
		ok = ctx.isNumber(s, false)
	case 'S', 's':
		ok = s != "" && allBytes(s, isSymbolChar)
	case 'U', 'u':
		ok = s != "" && allBytes(s, func(c byte) bool { return 'A' <= c && c <= 'Z' })
	case 'W', 'w':
		ok = ctx.isNumber(s, true)
	case 'X', 'x':
		_, err := literalGroups(s, 2, hexDigit, BadHex)
		ok = err == nil
	default:
		return "", argErr("DATATYPE", 1, "is not a known type")
	}
	if ok {
		return "1", nil
	}
	return "0", nil
}

// isNumber reports whether s is a number, and if integer is set, whether it
// is a whole number at the current precision.
func (ctx *Context) isNumber(s string, integer bool) bool {
	m := ctx.wk.mark
	defer ctx.wk.release(m)
	n, ok, err := ctx.wk.decode([]byte(s), ctx.num.MaxExp)
	if err != nil || !ok {
		return false
	}
	if integer {
		_, ok, _ = whole(ctx.wk.round(n, ctx.num.Digits))
	}
	return ok
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func allBytes(s string, f func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !f(s[i]) {
			return false
		}
	}
	return true
}

func builtinLength(ctx *Context, args []Value) (string, error) {
	s, err := required("LENGTH", args, 0)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(len(s)), nil
}

func builtinCopies(ctx *Context, args []Value) (string, error) {
	s, err := required("COPIES", args, 0)
	if err != nil {
		return "", err
	}
	if args[1].Null {
		return "", argErr("COPIES", 1, "is required")
	}
	n, err := wholeArg(ctx, "COPIES", args, 1, 0)
	if err != nil {
		return "", err
	}
	if n > 0 && len(s) > maxResult/n {
		return "", fail(Resource, "")
	}
	if err := ctx.room(len(s) * n); err != nil {
		return "", err
	}
	return strings.Repeat(s, n), nil
}

func builtinReverse(ctx *Context, args []Value) (string, error) {
	s, err := required("REVERSE", args, 0)
	if err != nil {
		return "", err
	}
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

// padArg returns the pad character argument i, defaulting to a blank.
func padArg(fn string, args []Value, i int) (byte, error) {
	p := optional(args, i, " ")
	if len(p) != 1 {
		return 0, argErr(fn, i, "must be a single character")
	}
	return p[0], nil
}

func builtinSubstr(ctx *Context, args []Value) (string, error) {
	s, err := required("SUBSTR", args, 0)
	if err != nil {
		return "", err
	}
	if args[1].Null {
		return "", argErr("SUBSTR", 1, "is required")
	}
	start, err := wholeArg(ctx, "SUBSTR", args, 1, 1)
	if err != nil {
		return "", err
	}
	if start < 1 {
		return "", argErr("SUBSTR", 1, "must be positive")
	}
	n, err := wholeArg(ctx, "SUBSTR", args, 2, max(len(s)-start+1, 0))
	if err != nil {
		return "", err
	}
	pad, err := padArg("SUBSTR", args, 3)
	if err != nil {
		return "", err
	}
	if err := ctx.room(n); err != nil {
		return "", err
	}
	return padded(s, start-1, n, pad), nil
}

// maxResult bounds the length of strings built by functions.
const maxResult = math.MaxInt32

// room fails if a function result of n bytes would not fit on the stack.
func (ctx *Context) room(n int) error {
	if n > maxResult || ctx.stk.limit > 0 && n > ctx.stk.limit {
		return fail(Resource, "")
	}
	return nil
}

// padded returns n bytes of s starting at i, padding past the end of s.
func padded(s string, i, n int, pad byte) string {
	b := make([]byte, n)
	for k := range b {
		if i+k < len(s) {
			b[k] = s[i+k]
		} else {
			b[k] = pad
		}
	}
	return string(b)
}

func builtinLeft(ctx *Context, args []Value) (string, error) {
	s, err := required("LEFT", args, 0)
	if err != nil {
		return "", err
	}
	if args[1].Null {
		return "", argErr("LEFT", 1, "is required")
	}
	n, err := wholeArg(ctx, "LEFT", args, 1, 0)
	if err != nil {
		return "", err
	}
	pad, err := padArg("LEFT", args, 2)
	if err != nil {
		return "", err
	}
	if err := ctx.room(n); err != nil {
		return "", err
	}
	return padded(s, 0, n, pad), nil
}

func builtinRight(ctx *Context, args []Value) (string, error) {
	s, err := required("RIGHT", args, 0)
	if err != nil {
		return "", err
	}
	if args[1].Null {
		return "", argErr("RIGHT", 1, "is required")
	}
	n, err := wholeArg(ctx, "RIGHT", args, 1, 0)
	if err != nil {
		return "", err
	}
	pad, err := padArg("RIGHT", args, 2)
	if err != nil {
		return "", err
	}
	if n <= len(s) {
		return s[len(s)-n:], nil
	}
	if err := ctx.room(n); err != nil {
		return "", err
	}
	return strings.Repeat(string(pad), n-len(s)) + s, nil
}

func builtinWords(ctx *Context, args []Value) (string, error) {
	s, err := required("WORDS", args, 0)
	if err != nil {
		return "", err
	}
	w := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' })
	return strconv.Itoa(len(w)), nil
}

// bits returns the binary precision used for a computation to Digits.
func (ctx *Context) bits() uint {
	return uint(float64(ctx.num.Digits+4)*3.33) + 16
}

// float converts argument i to a big.Float at the context's precision.
func (ctx *Context) float(fn string, args []Value, i int) (*big.Float, error) {
	s, err := required(fn, args, i)
	if err != nil {
		return nil, err
	}
	s, err = ctx.Format(s)
	if err != nil {
		return nil, err
	}
	x, _, err := new(big.Float).SetPrec(ctx.bits()).Parse(s, 10)
	if err != nil {
		return nil, &Error{Kind: Call, Name: fn, Err: err}
	}
	if e := x.MantExp(nil); x.IsInf() || e > maxFloatExp || e < -maxFloatExp {
		return nil, fail(ExponentOverflow, s)
	}
	return x, nil
}

// fromFloat formats a big.Float result under the current settings.
func (ctx *Context) fromFloat(fn string, x *big.Float) (string, error) {
	e := x.MantExp(nil)
	if x.IsInf() || e > maxFloatExp {
		return "", fail(ExponentOverflow, fn)
	}
	if x.Sign() == 0 || e < -maxFloatExp {
		return "0", nil
	}
	t := x.Text('e', ctx.num.Digits+2)
	// Drop the trailing zeros of the mantissa so exact results stay short.
	if i := strings.IndexByte(t, 'e'); i > 0 {
		m := strings.TrimRight(strings.TrimRight(t[:i], "0"), ".")
		t = m + t[i:]
	}
	return ctx.Format(t)
}

// maxFloatExp bounds the binary exponents of arguments and results of the
// big.Float functions.
const maxFloatExp = 1 << 20

type monadic struct {
	name string
	f    func(out, in *big.Float) *big.Float
}

func (m monadic) Call(ctx *Context, args []Value) (r string, err error) {
	x, err := ctx.float(m.name, args, 0)
	if err != nil {
		return "", err
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		e, ok := p.(error)
		if !ok {
			panic(p)
		}
		var nan big.ErrNaN
		if !errors.As(e, &nan) && !errors.As(e, new(*DomainError)) {
			panic(p)
		}
		err = &Error{Kind: Call, Name: m.name, Err: &DomainError{X: x, Arg: 1, Func: m.name}}
	}()
	out := new(big.Float).SetPrec(x.Prec())
	m.f(out, x)
	return ctx.fromFloat(m.name, out)
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a big.Float function of one variable into a Func named name.
// f must set out to its result at the precision of out. If f is called on
// an argument outside its domain, it should panic with big.ErrNaN or a
// *DomainError.
func Monadic(name string, f func(out, in *big.Float) *big.Float) Func {
	return monadic{name: name, f: f}
}

// DomainError is an error returned when a function is called on arguments
// outside its domain. DomainError unwraps to big.ErrNaN.
type DomainError struct {
	// X is the out-of-domain argument.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := err.X.String() + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

func (err *DomainError) Unwrap() error {
	return big.ErrNaN{}
}

func builtinPower(ctx *Context, args []Value) (string, error) {
	x, err := ctx.float("POWER", args, 0)
	if err != nil {
		return "", err
	}
	y, err := ctx.float("POWER", args, 1)
	if err != nil {
		return "", err
	}
	if x.Sign() < 0 || x.Sign() == 0 && y.Sign() <= 0 {
		return "", &Error{Kind: Call, Name: "POWER", Err: &DomainError{X: x, Arg: 1, Func: "POWER"}}
	}
	if x.Sign() == 0 {
		return "0", nil
	}
	// Estimate the binary exponent of the result as y*log2(x).
	e := x.MantExp(nil)
	m, _ := new(big.Float).SetMantExp(x, -e).Float64()
	yf, _ := y.Float64()
	switch est := yf * (float64(e) + math.Log2(m)); {
	case est > maxFloatExp:
		return "", fail(ExponentOverflow, args[1].Text)
	case est < -maxFloatExp:
		return "0", nil
	}
	r := bigfloat.Pow(new(big.Float).SetPrec(x.Prec()), x, y)
	return ctx.fromFloat("POWER", r)
}
