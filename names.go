package rexxexpr

import (
	"errors"
	"strings"
)

var errNoPool = errors.New("no variable pool")

// variable evaluates the variable reference at pos and pushes its value.
func (e *evaluator) variable(pos, level int) (int, error) {
	ctx := e.ctx
	name, compound, end, err := e.derive(pos, level)
	if err != nil {
		return end, err
	}
	if compound {
		if err := ctx.stk.pushString(name); err != nil {
			return end, at(err, pos)
		}
		ctx.trace(TraceCompound)
		ctx.stk.truncate(ctx.stk.depth() - 1)
	}
	v, ok, err := ctx.lookup(name)
	if err != nil {
		return end, at(err, pos)
	}
	if !ok {
		if ctx.novalue {
			return end, &Error{Kind: NoValue, Col: pos + 1, Name: name}
		}
		v = name
	}
	if err := ctx.stk.pushString(v); err != nil {
		return end, at(err, pos)
	}
	ctx.trace(TraceVariable)
	return end, nil
}

// lookup gets a variable from the pool. A context without a pool has no
// assigned variables.
func (ctx *Context) lookup(name string) (string, bool, error) {
	if ctx.vars == nil {
		return "", false, nil
	}
	v, ok, err := ctx.vars.Lookup(name)
	if err != nil {
		return "", false, &Error{Kind: VarPool, Name: name, Err: err}
	}
	return v, ok, nil
}

// derive builds the derived name of the symbol at pos, evaluating the
// qualifiers of a compound symbol. compound is false for simple symbols and
// stems.
func (e *evaluator) derive(pos, level int) (name string, compound bool, end int, err error) {
	ctx, src := e.ctx, e.src
	head := scanName(src, pos)
	if head >= len(src) || src[head] != '.' {
		if head-pos > ctx.maxName {
			return "", false, head, &Error{Kind: NameTooLong, Col: pos + 1, Name: src[pos:head]}
		}
		return upper(src[pos:head]), false, head, nil
	}
	var b strings.Builder
	b.WriteString(upper(src[pos : head+1]))
	end = head + 1
	if !e.qualifierAt(end) {
		// A bare stem.
		if b.Len() > ctx.maxName {
			return "", false, end, &Error{Kind: NameTooLong, Col: pos + 1, Name: b.String()}
		}
		return b.String(), false, end, nil
	}
	for {
		end, err = e.qualifier(&b, end, level)
		if err != nil {
			return "", true, end, err
		}
		if b.Len() > ctx.maxName {
			return "", true, end, &Error{Kind: NameTooLong, Col: pos + 1, Name: b.String()}
		}
		if end >= len(src) || src[end] != '.' {
			return b.String(), true, end, nil
		}
		b.WriteByte('.')
		end++
	}
}

// qualifierAt reports whether a qualifier other than the null one starts at
// pos, or whether another period follows to make the null qualifier explicit.
func (e *evaluator) qualifierAt(pos int) bool {
	if pos >= len(e.src) {
		return false
	}
	c := e.src[pos]
	return c == '.' || c == '(' || c == '\'' || c == '"' || isNameChar(c)
}

// qualifier appends the value of one qualifier at pos to b. A symbol
// qualifier is replaced by its value if it has one. An absent qualifier is
// null and appends nothing.
func (e *evaluator) qualifier(b *strings.Builder, pos, level int) (int, error) {
	ctx, src := e.ctx, e.src
	if pos >= len(src) {
		return pos, nil
	}
	switch c := src[pos]; {
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
		v := ctx.stk.popValue()
		b.WriteString(v.Text)
		return end + 1, nil

	case c == '\'' || c == '"':
		end, err := scanQuote(src, pos)
		if err != nil {
			return pos, at(err, pos)
		}
		b.Write(appendQuoted(nil, src[pos+1:end], c))
		return end + 1, nil

	case isNameChar(c):
		end := scanName(src, pos)
		part := upper(src[pos:end])
		if end-pos > ctx.maxName {
			return pos, &Error{Kind: NameTooLong, Col: pos + 1, Name: src[pos:end]}
		}
		if isDigit(c) {
			b.WriteString(part)
			return end, nil
		}
		v, ok, err := ctx.lookup(part)
		if err != nil {
			return pos, at(err, pos)
		}
		if ok {
			b.WriteString(v)
		} else {
			b.WriteString(part)
		}
		return end, nil
	}
	return pos, nil
}

// SkipName returns the position just past the variable reference at pos
// without evaluating any of its qualifiers. Parentheses in qualifiers must
// balance, and quoted strings must be terminated.
func SkipName(src string, pos int) (int, error) {
	end := scanName(src, pos)
	for end < len(src) && src[end] == '.' {
		end++
		if end >= len(src) {
			break
		}
		switch c := src[end]; {
		case c == '(':
			e, err := skipParens(src, end)
			if err != nil {
				return e, err
			}
			end = e
		case c == '\'' || c == '"':
			q, err := scanQuote(src, end)
			if err != nil {
				return end, at(err, end)
			}
			end = q + 1
		default:
			end = scanName(src, end)
		}
	}
	return end, nil
}

// skipParens returns the position just past the parenthesis that closes the
// one at pos.
func skipParens(src string, pos int) (int, error) {
	depth := 0
	for i := pos; i < len(src); i++ {
		switch c := src[i]; c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		case '\'', '"':
			q, err := scanQuote(src, i)
			if err != nil {
				return i, at(err, i)
			}
			i = q
		}
	}
	return len(src), &Error{Kind: Paren, Col: pos + 1, Name: "("}
}

// Resolve returns the derived name of the variable reference in src,
// evaluating its qualifiers. src must contain only the reference, optionally
// surrounded by blanks.
func (ctx *Context) Resolve(src string) (string, error) {
	base, mark := ctx.enter()
	name, err := ctx.resolve(src)
	return name, ctx.leave(base, mark, err)
}

func (ctx *Context) resolve(src string) (string, error) {
	pos := blanks(src, 0)
	if pos >= len(src) || !isSymbolChar(src[pos]) || isDigit(src[pos]) || src[pos] == '.' {
		return "", &Error{Kind: Expression, Col: pos + 1, Name: src[pos:]}
	}
	e := evaluator{ctx: ctx, src: src}
	name, _, end, err := e.derive(pos, 0)
	if err != nil {
		return "", err
	}
	if end = blanks(src, end); end < len(src) {
		return "", &Error{Kind: Expression, Col: end + 1, Name: src[end:]}
	}
	return name, nil
}

// Assign sets the variable named by the reference in target to value.
// Qualifiers in target are evaluated first.
func (ctx *Context) Assign(target, value string) error {
	base, mark := ctx.enter()
	err := ctx.assign(target, value)
	return ctx.leave(base, mark, err)
}

func (ctx *Context) assign(target, value string) error {
	name, err := ctx.resolve(target)
	if err != nil {
		return err
	}
	if ctx.vars == nil {
		return &Error{Kind: VarPool, Name: name, Err: errNoPool}
	}
	if err := ctx.vars.Assign(name, value); err != nil {
		return &Error{Kind: VarPool, Name: name, Err: err}
	}
	return nil
}
