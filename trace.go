package rexxexpr

import (
	"strconv"

	"fortio.org/log"
)

// TraceKind identifies what produced a traced intermediate result.
type TraceKind int8

const (
	// TraceLiteral is a string literal or constant symbol.
	TraceLiteral TraceKind = iota
	// TraceVariable is the value of a variable.
	TraceVariable
	// TraceFunction is the result of a function call.
	TraceFunction
	// TraceOperator is the result of an operator.
	TraceOperator
	// TraceCompound is the derived name of a compound symbol.
	TraceCompound
	// TracePrefix is the result of a prefix operator.
	TracePrefix
)

func (k TraceKind) String() string {
	switch k {
	case TraceLiteral:
		return ">L>"
	case TraceVariable:
		return ">V>"
	case TraceFunction:
		return ">F>"
	case TraceOperator:
		return ">O>"
	case TraceCompound:
		return ">C>"
	case TracePrefix:
		return ">P>"
	default:
		return ">" + strconv.Itoa(int(k)) + ">"
	}
}

// Tracer receives intermediate results during evaluation.
type Tracer interface {
	Trace(kind TraceKind, text string)
}

// TracerFunc adapts a function to a Tracer.
type TracerFunc func(kind TraceKind, text string)

func (f TracerFunc) Trace(kind TraceKind, text string) {
	f(kind, text)
}

// LogTracer writes intermediate results to the log in the style of
// TRACE INTERMEDIATES.
type LogTracer struct{}

func (LogTracer) Trace(kind TraceKind, text string) {
	log.Infof("       %s \"%s\"", kind, text)
}

// trace sends the top of the stack to the tracer, if there is one.
func (ctx *Context) trace(kind TraceKind) {
	if ctx.tracer == nil {
		return
	}
	b, n := ctx.stk.peek()
	if n < 0 {
		return
	}
	ctx.tracer.Trace(kind, string(b))
}
