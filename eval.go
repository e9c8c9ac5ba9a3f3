package rexxexpr

import (
	"strings"

	"fortio.org/log"
)

// Vars is a variable pool. Names are derived names: uppercased simple
// symbols, stems ending in a period, or compound names with their qualifiers
// substituted.
type Vars interface {
	// Lookup returns the value of a variable. ok is false if the variable
	// has no value.
	Lookup(name string) (value string, ok bool, err error)
	// Assign sets the value of a variable.
	Assign(name, value string) error
}

// Caller invokes functions on behalf of expressions.
type Caller interface {
	// Call calls the named function. Omitted arguments are null values.
	// ok is false if the function returned no result. Call may evaluate
	// further expressions with ctx.
	Call(ctx *Context, name string, args []Value) (result string, ok bool, err error)
}

// Context evaluates expressions. It owns the evaluation stack and the
// numeric settings. It is not safe to use a Context concurrently.
type Context struct {
	stk     stack
	wk      work
	scratch []byte
	num     Numeric

	vars   Vars
	funcs  Caller
	tracer Tracer
	fatal  func(*Error)

	maxDepth int
	maxName  int
	novalue  bool

	// nest counts active evaluations, including ones started by functions.
	nest int
}

// Numeric returns the numeric settings.
func (ctx *Context) Numeric() Numeric {
	return ctx.num
}

// SetNumeric changes the numeric settings. Calling SetNumeric while the
// context is evaluating an expression panics.
func (ctx *Context) SetNumeric(num Numeric) error {
	if ctx.nest > 0 {
		panic("rexxexpr: SetNumeric during Eval")
	}
	if err := num.Validate(); err != nil {
		return err
	}
	ctx.num = num
	return nil
}

// Vars returns the variable pool.
func (ctx *Context) Vars() Vars {
	return ctx.vars
}

// enter begins an evaluation. The stack and scratch space are reset when no
// other evaluation is active.
func (ctx *Context) enter() (base, mark int) {
	if ctx.nest == 0 {
		ctx.stk.reset()
		ctx.wk.release(0)
	}
	ctx.nest++
	return ctx.stk.depth(), ctx.wk.mark
}

// leave ends an evaluation, discarding anything it left on the stack and
// reporting a fatal error to the host.
func (ctx *Context) leave(base, mark int, err error) error {
	ctx.nest--
	ctx.stk.truncate(base)
	ctx.wk.release(mark)
	if err != nil && ctx.nest == 0 && ctx.fatal != nil {
		if e, ok := err.(*Error); ok {
			ctx.fatal(e)
		}
	}
	return err
}

// Eval evaluates the expression in src starting at byte offset pos. It
// returns the value and the offset of the text that ended the expression:
// the end of src, a semicolon, or, after a blank, one of the keywords in
// stop, compared without regard to case. A close parenthesis or comma
// ending the expression is an error.
func (ctx *Context) Eval(src string, pos int, stop ...string) (string, int, error) {
	base, mark := ctx.enter()
	e := evaluator{ctx: ctx, src: src, stop: stop}
	end, err := e.expr(pos, 0)
	if err == nil && end < len(src) {
		switch src[end] {
		case ')':
			err = &Error{Kind: Paren, Col: end + 1, Name: ")"}
		case ',':
			err = &Error{Kind: Comma, Col: end + 1}
		}
	}
	var r string
	if err == nil {
		r = ctx.stk.popValue().Text
	}
	return r, end, ctx.leave(base, mark, err)
}

// Format returns the canonical form of the number s under the current
// numeric settings, as prefix + would.
func (ctx *Context) Format(s string) (string, error) {
	base, mark := ctx.enter()
	err := ctx.stk.pushString(s)
	if err == nil {
		err = ctx.prefix(opPlus)
	}
	var r string
	if err == nil {
		r = ctx.stk.popValue().Text
	}
	return r, ctx.leave(base, mark, err)
}

// EvalString is a shortcut to evaluate src in a new context. It is an error
// if anything other than a semicolon ends the expression.
func EvalString(src string, opts ...ContextOption) (string, error) {
	ctx := NewContext(opts...)
	r, end, err := ctx.Eval(src, 0)
	if err != nil {
		return "", err
	}
	if end < len(src) && strings.TrimLeft(src[end:], "; \t") != "" {
		return "", &Error{Kind: Expression, Col: end + 1, Name: src[end:]}
	}
	return r, nil
}

// evaluator holds the state of one call to Eval.
type evaluator struct {
	ctx  *Context
	src  string
	stop []string
}

// pending is an operator waiting for its right operand.
type pending struct {
	op  opKind
	pos int
}

// expr evaluates one expression starting at pos and leaves its value on the
// stack. It returns the position of the terminator. level is the nesting
// depth of parentheses, arguments, and qualifiers; keywords end expressions
// only at level 0.
func (e *evaluator) expr(pos, level int) (int, error) {
	ctx := e.ctx
	if level > maxNest {
		return pos, &Error{Kind: StackOverflow, Col: pos + 1}
	}
	opstk := make([]pending, 1, 8)
	for {
		// Term phase: prefix operators, then exactly one term.
		for {
			pos = blanks(e.src, pos)
			op, width := e.prefixAt(pos)
			if op == opNone {
				break
			}
			if len(opstk) > ctx.maxDepth {
				return pos, &Error{Kind: StackOverflow, Col: pos + 1}
			}
			opstk = append(opstk, pending{op: op, pos: pos})
			pos += width
		}
		var err error
		pos, err = e.term(pos, level)
		if err != nil {
			return pos, err
		}

		// Operator phase.
		p := blanks(e.src, pos)
		op, width, err := e.binaryAt(p, p > pos, level)
		if err != nil {
			return p, err
		}
		if op == opNone {
			if err := e.reduce(&opstk, 0); err != nil {
				return p, err
			}
			return p, nil
		}
		if err := e.reduce(&opstk, op.prec()); err != nil {
			return p, err
		}
		if len(opstk) > ctx.maxDepth {
			return p, &Error{Kind: StackOverflow, Col: p + 1}
		}
		opstk = append(opstk, pending{op: op, pos: p})
		if width == 0 {
			// Implicit concatenation consumes nothing; the blanks are
			// skipped again by the term phase.
			continue
		}
		pos = p + width
	}
}

// reduce applies pending operators whose priority is at least prec. Equal
// priorities reduce, so chains of operators of one priority, including **,
// associate to the left.
func (e *evaluator) reduce(opstk *[]pending, prec int8) error {
	s := *opstk
	defer func() { *opstk = s }()
	for len(s) > 1 && s[len(s)-1].op.prec() >= prec {
		top := s[len(s)-1]
		s = s[:len(s)-1]
		if err := e.apply(top.op); err != nil {
			return at(err, top.pos)
		}
	}
	return nil
}

// apply applies one operator to the values on the stack.
func (e *evaluator) apply(op opKind) error {
	ctx := e.ctx
	m := ctx.wk.mark
	err := ops[op].apply(ctx, op)
	ctx.wk.release(m)
	if err != nil {
		return err
	}
	if log.LogVerbose() {
		b, _ := ctx.stk.peek()
		log.LogVf("rexxexpr: %q -> %q", op.String(), b)
	}
	if op.prec() == prefixPrec {
		ctx.trace(TracePrefix)
	} else {
		ctx.trace(TraceOperator)
	}
	return nil
}

// prefixAt returns the prefix operator at pos, if any, and its width.
func (e *evaluator) prefixAt(pos int) (opKind, int) {
	if pos >= len(e.src) {
		return opNone, 0
	}
	switch e.src[pos] {
	case '+':
		return opPlus, 1
	case '-':
		return opNeg, 1
	case '\\':
		return opNot, 1
	case notSign[0]:
		if strings.HasPrefix(e.src[pos:], notSign) {
			return opNot, len(notSign)
		}
	}
	return opNone, 0
}

// notSign is the alternative not character.
const notSign = "¬"

// binaryAt returns the binary operator at pos and its width. opNone means
// the expression ends at pos. blank indicates that blanks preceded pos.
func (e *evaluator) binaryAt(pos int, blank bool, level int) (opKind, int, error) {
	src := e.src
	if pos >= len(src) {
		return opNone, 0, nil
	}
	next := func(i int) byte {
		if pos+i < len(src) {
			return src[pos+i]
		}
		return 0
	}
	switch src[pos] {
	case ';', ')', ',':
		return opNone, 0, nil
	case '+':
		return opAdd, 1, nil
	case '-':
		return opSub, 1, nil
	case '*':
		if next(1) == '*' {
			return opPow, 2, nil
		}
		return opMul, 1, nil
	case '/':
		if next(1) == '/' {
			return opRem, 2, nil
		}
		return opDiv, 1, nil
	case '%':
		return opIDiv, 1, nil
	case '|':
		if next(1) == '|' {
			return opConcat, 2, nil
		}
		return opOr, 1, nil
	case '&':
		if next(1) == '&' {
			return opXor, 2, nil
		}
		return opAnd, 1, nil
	case '=':
		if next(1) == '=' {
			return opSEq, 2, nil
		}
		return opEq, 1, nil
	case '<':
		switch {
		case next(1) == '<' && next(2) == '=':
			return opSLe, 3, nil
		case next(1) == '<':
			return opSLt, 2, nil
		case next(1) == '=':
			return opLe, 2, nil
		case next(1) == '>':
			return opNe, 2, nil
		}
		return opLt, 1, nil
	case '>':
		switch {
		case next(1) == '>' && next(2) == '=':
			return opSGe, 3, nil
		case next(1) == '>':
			return opSGt, 2, nil
		case next(1) == '=':
			return opGe, 2, nil
		case next(1) == '<':
			return opNe, 2, nil
		}
		return opGt, 1, nil
	case '\\':
		return e.negated(pos, 1)
	case notSign[0]:
		if strings.HasPrefix(src[pos:], notSign) {
			return e.negated(pos, len(notSign))
		}
	}
	if blank && level == 0 && e.keywordAt(pos) {
		return opNone, 0, nil
	}
	if blank {
		return opBlank, 0, nil
	}
	return opConcat, 0, nil
}

// negated returns the negated comparison whose not sign at pos is width
// bytes wide. A not sign followed by anything else is a prefix operator
// where a binary operator belongs.
func (e *evaluator) negated(pos, width int) (opKind, int, error) {
	rest := e.src[pos+width:]
	switch {
	case strings.HasPrefix(rest, "=="):
		return opSNe, width + 2, nil
	case strings.HasPrefix(rest, "="):
		return opNe, width + 1, nil
	case strings.HasPrefix(rest, "<<"):
		return opSGe, width + 2, nil
	case strings.HasPrefix(rest, "<"):
		return opGe, width + 1, nil
	case strings.HasPrefix(rest, ">>"):
		return opSLe, width + 2, nil
	case strings.HasPrefix(rest, ">"):
		return opLe, width + 1, nil
	}
	return opNone, 0, &Error{Kind: Expression, Col: pos + 1, Name: e.src[pos : pos+width]}
}

// keywordAt reports whether a stop keyword starts at pos.
func (e *evaluator) keywordAt(pos int) bool {
	if len(e.stop) == 0 || !isSymbolChar(e.src[pos]) {
		return false
	}
	word := e.src[pos:scanSymbol(e.src, pos)]
	for _, k := range e.stop {
		if strings.EqualFold(word, k) {
			return true
		}
	}
	return false
}

// term evaluates one term at pos and pushes its value.
func (e *evaluator) term(pos, level int) (int, error) {
	ctx, src := e.ctx, e.src
	if pos >= len(src) {
		return pos, &Error{Kind: Expression, Col: pos + 1}
	}
	c := src[pos]
	switch {
	case c == '(':
		end, err := e.expr(pos+1, level+1)
		if err != nil {
			return end, err
		}
		if end < len(src) && src[end] == ',' {
			return end, &Error{Kind: Comma, Col: end + 1}
		}
		if end >= len(src) || src[end] != ')' {
			return end, &Error{Kind: Paren, Col: pos + 1, Name: "("}
		}
		return end + 1, nil

	case c == '\'' || c == '"':
		end, err := scanQuote(src, pos)
		if err != nil {
			return pos, at(err, pos)
		}
		body := src[pos+1 : end]
		if end+1 < len(src) && src[end+1] == '(' {
			ctx.scratch = appendQuoted(ctx.scratch[:0], body, c)
			return e.call(string(ctx.scratch), pos, end+1, level)
		}
		switch literalSuffix(src, end) {
		case 'x':
			err = ctx.stk.pushHex(body)
			end++
		case 'b':
			err = ctx.stk.pushBinary(body)
			end++
		default:
			err = ctx.stk.pushQuoted(body, c)
		}
		if err != nil {
			return pos, at(err, pos)
		}
		ctx.trace(TraceLiteral)
		return end + 1, nil

	case isDigit(c) || c == '.':
		end := scanConstant(src, pos)
		if end < len(src) && src[end] == '(' {
			return e.call(upper(src[pos:end]), pos, end, level)
		}
		if end-pos > ctx.maxName {
			return pos, &Error{Kind: NameTooLong, Col: pos + 1, Name: src[pos:end]}
		}
		if err := ctx.stk.pushString(upper(src[pos:end])); err != nil {
			return pos, at(err, pos)
		}
		ctx.trace(TraceLiteral)
		return end, nil

	case isSymbolChar(c):
		end := scanSymbol(src, pos)
		if end < len(src) && src[end] == '(' && src[end-1] != '.' {
			return e.call(upper(src[pos:end]), pos, end, level)
		}
		return e.variable(pos, level)
	}
	return pos, &Error{Kind: Expression, Col: pos + 1, Name: src[pos : pos+1]}
}

// appendQuoted appends the body of a quoted literal with doubled quotes
// collapsed.
func appendQuoted(dst []byte, body string, quote byte) []byte {
	for i := 0; i < len(body); i++ {
		dst = append(dst, body[i])
		if body[i] == quote && i+1 < len(body) && body[i+1] == quote {
			i++
		}
	}
	return dst
}

// call evaluates the arguments of a call to name, which starts at start and
// whose open parenthesis is at pos, invokes the function, and pushes its
// result.
func (e *evaluator) call(name string, start, pos, level int) (int, error) {
	ctx, src := e.ctx, e.src
	open := pos
	base := ctx.stk.depth()
	pos = blanks(src, pos+1)
	if pos < len(src) && src[pos] == ')' {
		pos++
	} else {
		for {
			pos = blanks(src, pos)
			if pos < len(src) && (src[pos] == ',' || src[pos] == ')') {
				ctx.stk.pushNull()
			} else {
				var err error
				pos, err = e.expr(pos, level+1)
				if err != nil {
					return pos, err
				}
			}
			if pos >= len(src) || src[pos] != ',' && src[pos] != ')' {
				return pos, &Error{Kind: Paren, Col: open + 1, Name: "("}
			}
			pos++
			if src[pos-1] == ')' {
				break
			}
		}
	}
	args := make([]Value, ctx.stk.depth()-base)
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = ctx.stk.popValue()
	}
	if ctx.funcs == nil {
		return pos, &Error{Kind: NoResult, Col: start + 1, Name: name}
	}
	log.LogVf("rexxexpr: call %s with %d arguments", name, len(args))
	r, ok, err := ctx.funcs.Call(ctx, name, args)
	if err != nil {
		if _, isErr := err.(*Error); !isErr {
			err = &Error{Kind: Call, Name: name, Err: err}
		}
		return pos, at(err, start)
	}
	if !ok {
		return pos, &Error{Kind: NoResult, Col: start + 1, Name: name}
	}
	if err := ctx.stk.pushString(r); err != nil {
		return pos, at(err, start)
	}
	ctx.trace(TraceFunction)
	return pos, nil
}
