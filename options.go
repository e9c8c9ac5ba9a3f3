package rexxexpr

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	digitsopt  int
	fuzzopt    int
	formopt    Form
	maxexpopt  int
	depthopt   int
	stackopt   int
	nameopt    int
	novalueopt bool
	varsopt    struct{ v Vars }
	funcsopt   struct{ c Caller }
	traceopt   struct{ t Tracer }
	fatalopt   func(*Error)
)

func (digitsopt) ctxOption()  {}
func (fuzzopt) ctxOption()    {}
func (formopt) ctxOption()    {}
func (maxexpopt) ctxOption()  {}
func (depthopt) ctxOption()   {}
func (stackopt) ctxOption()   {}
func (nameopt) ctxOption()    {}
func (novalueopt) ctxOption() {}
func (varsopt) ctxOption()    {}
func (funcsopt) ctxOption()   {}
func (traceopt) ctxOption()   {}
func (fatalopt) ctxOption()   {}

// Digits sets the number of significant digits in arithmetic results.
func Digits(n int) ContextOption {
	return digitsopt(n)
}

// Fuzz sets the number of digits ignored by numeric comparisons.
func Fuzz(n int) ContextOption {
	return fuzzopt(n)
}

// WithForm sets the exponential notation style.
func WithForm(f Form) ContextOption {
	return formopt(f)
}

// MaxExp sets the largest allowed exponent magnitude.
func MaxExp(n int) ContextOption {
	return maxexpopt(n)
}

// MaxDepth sets the number of operators that may be pending at once in one
// expression or parenthesized subexpression. The default is 32.
func MaxDepth(n int) ContextOption {
	return depthopt(n)
}

// MaxStack limits the total size in bytes of the values on the evaluation
// stack. The default, 0, is no limit.
func MaxStack(n int) ContextOption {
	return stackopt(n)
}

// MaxName sets the longest allowed symbol or derived compound name. The
// default is 250.
func MaxName(n int) ContextOption {
	return nameopt(n)
}

// StrictNoValue makes references to unassigned variables fail with a
// NoValue error instead of evaluating to their names.
func StrictNoValue(on bool) ContextOption {
	return novalueopt(on)
}

// WithVars sets the variable pool.
func WithVars(v Vars) ContextOption {
	return varsopt{v}
}

// WithFuncs sets the function hook.
func WithFuncs(c Caller) ContextOption {
	return funcsopt{c}
}

// WithTracer sets a tracer that receives intermediate results.
func WithTracer(t Tracer) ContextOption {
	return traceopt{t}
}

// OnFatal sets a function to receive each error that stops a top-level
// evaluation.
func OnFatal(f func(*Error)) ContextOption {
	return fatalopt(f)
}

const (
	defaultMaxDepth = 32
	defaultMaxName  = 250
	// maxNest bounds the recursion through parentheses, arguments, and
	// qualifiers within one evaluation.
	maxNest = 1000
)

// NewContext creates a new evaluation context. Panics if the options give an
// invalid numeric configuration.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{
		num:      DefaultNumeric,
		maxDepth: defaultMaxDepth,
		maxName:  defaultMaxName,
		funcs:    Builtins(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case digitsopt:
			ctx.num.Digits = int(opt)
		case fuzzopt:
			ctx.num.Fuzz = int(opt)
		case formopt:
			ctx.num.Form = Form(opt)
		case maxexpopt:
			ctx.num.MaxExp = int(opt)
		case depthopt:
			ctx.maxDepth = int(opt)
		case stackopt:
			ctx.stk.limit = int(opt)
		case nameopt:
			ctx.maxName = int(opt)
		case novalueopt:
			ctx.novalue = bool(opt)
		case varsopt:
			ctx.vars = opt.v
		case funcsopt:
			ctx.funcs = opt.c
		case traceopt:
			ctx.tracer = opt.t
		case fatalopt:
			ctx.fatal = opt
		default:
			panic("rexxexpr: unknown option type")
		}
	}
	if err := ctx.num.Validate(); err != nil {
		panic(err)
	}
	if ctx.maxDepth < 1 {
		panic("rexxexpr: MaxDepth must be positive")
	}
	return &ctx
}
