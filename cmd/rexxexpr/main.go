// Command rexxexpr evaluates REXX expressions and simple clauses.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"golang.org/x/term"

	"github.com/zephyrtronium/rexxexpr"
	"github.com/zephyrtronium/rexxexpr/pool"
)

func main() {
	var (
		inname, form, poolpath string
		given                  [][2]string
		trace, novalue, verb   bool
		num                    = rexxexpr.DefaultNumeric
	)
	addgiven := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		given = append(given, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file of clauses (default stdin if no args given)")
	flag.IntVar(&num.Digits, "digits", num.Digits, "NUMERIC DIGITS")
	flag.IntVar(&num.Fuzz, "fuzz", num.Fuzz, "NUMERIC FUZZ")
	flag.StringVar(&form, "form", "scientific", "NUMERIC FORM: scientific or engineering")
	flag.IntVar(&num.MaxExp, "maxexp", num.MaxExp, "largest allowed exponent")
	flag.Func("given", "name=expr variable definition (any number of times)", addgiven)
	flag.StringVar(&poolpath, "pool", "", "SQLite database holding variables across runs")
	flag.BoolVar(&trace, "trace", false, "trace intermediate results")
	flag.BoolVar(&novalue, "novalue", false, "fail on unassigned variables")
	flag.BoolVar(&verb, "v", false, "verbose logging")
	flag.Parse()

	log.SetDefaultsForClientTools()
	if verb {
		log.SetLogLevel(log.Verbose)
	}
	f, err := parseForm(form)
	if err != nil {
		log.Fatalf("%v", err)
	}
	num.Form = f
	if err := num.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	vars, err := openPool(poolpath)
	if err != nil {
		log.Fatalf("opening variable pool: %v", err)
	}
	defer vars.Close()

	opts := []rexxexpr.ContextOption{
		rexxexpr.Digits(num.Digits),
		rexxexpr.Fuzz(num.Fuzz),
		rexxexpr.WithForm(num.Form),
		rexxexpr.MaxExp(num.MaxExp),
		rexxexpr.StrictNoValue(novalue),
		rexxexpr.WithVars(vars),
	}
	if trace {
		opts = append(opts, rexxexpr.WithTracer(rexxexpr.LogTracer{}))
	}
	r := &runner{ctx: rexxexpr.NewContext(opts...), vars: vars, out: os.Stdout}
	for _, d := range given {
		v, err := r.eval(d[1])
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		if err := r.ctx.Assign(d[0], v); err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
	}

	code := 0
	for _, arg := range flag.Args() {
		if err := r.run(arg); err != nil {
			log.Errf("%v", err)
			code = 1
		}
	}
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer in.Close()
		code = max(code, r.batch(in))
	case inname == "-", flag.NArg() == 0 && !term.IsTerminal(int(os.Stdin.Fd())):
		code = max(code, r.batch(os.Stdin))
	case flag.NArg() == 0:
		code = max(code, r.repl())
	}
	if code != 0 {
		vars.Close()
		os.Exit(code)
	}
}

func parseForm(s string) (rexxexpr.Form, error) {
	switch strings.ToUpper(s) {
	case "SCIENTIFIC":
		return rexxexpr.Scientific, nil
	case "ENGINEERING":
		return rexxexpr.Engineering, nil
	}
	return 0, fmt.Errorf("unknown numeric form %q", s)
}

func openPool(path string) (pool.Pool, error) {
	if path == "" {
		return pool.NewMemory(), nil
	}
	return pool.NewSQLite(path)
}

// batch runs each line of in as a clause. It returns the exit code.
func (r *runner) batch(in io.Reader) int {
	code := 0
	sc := bufio.NewScanner(in)
	for line := 1; sc.Scan(); line++ {
		if err := r.run(sc.Text()); err != nil {
			log.Errf("line %d: %v", line, err)
			code = 1
		}
	}
	if err := sc.Err(); err != nil {
		log.Errf("reading input: %v", err)
		return 1
	}
	return code
}
