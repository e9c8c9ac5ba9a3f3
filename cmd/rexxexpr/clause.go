package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/log"

	"github.com/zephyrtronium/rexxexpr"
	"github.com/zephyrtronium/rexxexpr/pool"
)

// runner executes clauses against one context.
type runner struct {
	ctx  *rexxexpr.Context
	vars pool.Pool
	out  io.Writer
}

var errClause = errors.New("invalid clause")

// run executes the semicolon-separated clauses in line.
func (r *runner) run(line string) error {
	pos := 0
	for pos < len(line) {
		end, err := r.clause(line, pos)
		if err != nil {
			return err
		}
		pos = end
		if pos < len(line) && line[pos] == ';' {
			pos++
		}
	}
	return nil
}

// clause executes one clause starting at pos and returns the position where
// it ended.
func (r *runner) clause(line string, pos int) (int, error) {
	start := skipBlanks(line, pos)
	if start >= len(line) || line[start] == ';' {
		return start, nil
	}
	if end, err := rexxexpr.SkipName(line, start); err == nil && end > start {
		eq := skipBlanks(line, end)
		if eq < len(line) && line[eq] == '=' && (eq+1 >= len(line) || line[eq+1] != '=') {
			v, stop, err := r.ctx.Eval(line, eq+1)
			if err != nil {
				return stop, err
			}
			log.LogVf("assign %s = %q", line[start:end], v)
			return stop, r.ctx.Assign(line[start:end], v)
		}
	}
	word, after := keyword(line, start)
	switch strings.ToUpper(word) {
	case "SAY":
		v, end, err := r.ctx.Eval(line, after)
		if err != nil {
			return end, err
		}
		fmt.Fprintln(r.out, v)
		return end, nil
	case "NUMERIC":
		return r.numeric(line, after)
	case "DROP":
		return r.drop(line, after)
	}
	v, end, err := r.ctx.Eval(line, start)
	if err != nil {
		return end, err
	}
	fmt.Fprintln(r.out, v)
	return end, nil
}

// numeric executes NUMERIC DIGITS, NUMERIC FUZZ, and NUMERIC FORM.
func (r *runner) numeric(line string, pos int) (int, error) {
	word, after := keyword(line, skipBlanks(line, pos))
	num := r.ctx.Numeric()
	var end int
	switch strings.ToUpper(word) {
	case "DIGITS", "FUZZ":
		v, stop, err := r.ctx.Eval(line, after)
		if err != nil {
			return stop, err
		}
		n, err := r.whole(v)
		if err != nil {
			return stop, fmt.Errorf("NUMERIC %s: %w", strings.ToUpper(word), err)
		}
		if strings.EqualFold(word, "DIGITS") {
			num.Digits = n
		} else {
			num.Fuzz = n
		}
		end = stop
	case "FORM":
		w, stop := keyword(line, skipBlanks(line, after))
		f, err := parseForm(w)
		if err != nil {
			return stop, err
		}
		num.Form = f
		end = stop
	default:
		return pos, fmt.Errorf("NUMERIC %s: %w", word, errClause)
	}
	return end, r.ctx.SetNumeric(num)
}

// whole converts a NUMERIC setting to an int. The value must be a whole
// number under the current settings, written without an exponent.
func (r *runner) whole(v string) (int, error) {
	f, err := r.ctx.Format(v)
	if err != nil {
		return 0, err
	}
	if i := strings.IndexByte(f, '.'); i >= 0 && strings.Trim(f[i+1:], "0") == "" {
		f = f[:i]
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return n, nil
}

// drop drops the variables named in the rest of the clause.
func (r *runner) drop(line string, pos int) (int, error) {
	for {
		pos = skipBlanks(line, pos)
		if pos >= len(line) || line[pos] == ';' {
			return pos, nil
		}
		end, err := rexxexpr.SkipName(line, pos)
		if err != nil {
			return end, err
		}
		if end == pos {
			return pos, fmt.Errorf("DROP %q: %w", line[pos:], errClause)
		}
		name, err := r.ctx.Resolve(line[pos:end])
		if err != nil {
			return end, err
		}
		if err := r.vars.Delete(name); err != nil {
			return end, err
		}
		pos = end
	}
}

// eval evaluates a whole line as one expression.
func (r *runner) eval(src string) (string, error) {
	v, end, err := r.ctx.Eval(src, 0)
	if err != nil {
		return "", err
	}
	if skipBlanks(src, end) < len(src) {
		return "", fmt.Errorf("unexpected %q after expression", src[end:])
	}
	return v, nil
}

func skipBlanks(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	return pos
}

// keyword returns the letters starting at pos and the position after them.
func keyword(s string, pos int) (string, int) {
	end := pos
	for end < len(s) && ('a' <= s[end] && s[end] <= 'z' || 'A' <= s[end] && s[end] <= 'Z') {
		end++
	}
	return s[pos:end], end
}
