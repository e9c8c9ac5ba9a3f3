package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/zephyrtronium/rexxexpr"
	"github.com/zephyrtronium/rexxexpr/pool"
)

func newRunner() (*runner, *bytes.Buffer) {
	vars := pool.NewMemory()
	var out bytes.Buffer
	r := &runner{
		ctx:  rexxexpr.NewContext(rexxexpr.WithVars(vars)),
		vars: vars,
		out:  &out,
	}
	return r, &out
}

func TestRun(t *testing.T) {
	cases := []struct {
		name string
		src  string
		out  string
	}{
		{"say", "SAY 1+2", "3\n"},
		{"say-lower", "say 'a' || 'b'", "ab\n"},
		{"bare", "1 + 1", "2\n"},
		{"blank", "   ", ""},
		{"empty-clauses", ";; ;", ""},
		{"assign", "x = 4; SAY x*2", "8\n"},
		{"assign-compound", "a.1 = 'one'; i = 1; say a.i", "one\n"},
		{"assign-stem", "a. = 0; say a.7", "0\n"},
		{"compare-not-assign", "x == 1", "0\n"},
		{"keyword-as-var", "say = 3; say say", "3\n"},
		{"numeric-digits", "numeric digits 4; say 2/3", "0.6667\n"},
		{"numeric-digits-expr", "n = 2; numeric digits n*2; say digits()", "4\n"},
		{"numeric-digits-exponent", "numeric digits 1E2; say digits()", "100\n"},
		{"numeric-digits-point", "numeric digits 4.00; say digits()", "4\n"},
		{"numeric-form", "numeric form engineering; say 1e10 * 1", "10E+9\n"},
		{"numeric-fuzz", "numeric digits 3; numeric fuzz 1; say 100 = 101", "1\n"},
		{"drop", "x = 5; drop x; say x", "X\n"},
		{"drop-many", "x = 1; y = 2; drop x y; say x y", "X Y\n"},
		{"drop-stem", "a.1 = 1; a.2 = 2; drop a.; say a.1 a.2", "A.1 A.2\n"},
		{"several", "say 1; say 2", "1\n2\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, out := newRunner()
			if err := r.run(c.src); err != nil {
				t.Fatalf("%q failed: %v", c.src, err)
			}
			if out.String() != c.out {
				t.Errorf("%q: want output %q, got %q", c.src, c.out, out.String())
			}
		})
	}
}

func TestRunError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		out  string
		kind error
	}{
		{"expr", "say 1 +", "", rexxexpr.Expression},
		{"numeric-bogus", "numeric bogus 3", "", errClause},
		{"numeric-digits", "numeric digits 'abc'", "", rexxexpr.NotNumeric},
		{"numeric-digits-frac", "numeric digits 2.5", "", nil},
		{"numeric-digits-words", "numeric digits '4 5'", "", rexxexpr.NotNumeric},
		{"numeric-fuzz-frac", "numeric fuzz 0.5", "", nil},
		{"numeric-fuzz", "numeric fuzz 9", "", nil},
		{"numeric-form", "numeric form wide", "", nil},
		{"divide", "say 1; say 1/0; say 2", "1\n", rexxexpr.DivideByZero},
		{"drop-constant", "drop 7", "", rexxexpr.Expression},
		{"drop-bad", "drop +", "", errClause},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, out := newRunner()
			err := r.run(c.src)
			if err == nil {
				t.Fatalf("%q gave no error", c.src)
			}
			if c.kind != nil && !errors.Is(err, c.kind) {
				t.Errorf("%q: want %v, got %v", c.src, c.kind, err)
			}
			if out.String() != c.out {
				t.Errorf("%q: want output %q, got %q", c.src, c.out, out.String())
			}
		})
	}
}

func TestRunNumericKept(t *testing.T) {
	r, _ := newRunner()
	if err := r.run("numeric digits 5"); err != nil {
		t.Fatal(err)
	}
	if err := r.run("numeric fuzz 9"); err == nil {
		t.Fatal("fuzz 9 with digits 5 succeeded")
	}
	if err := r.run("numeric digits 2.5"); err == nil {
		t.Fatal("digits 2.5 succeeded")
	}
	if got := r.ctx.Numeric(); got.Digits != 5 || got.Fuzz != 0 {
		t.Errorf("settings changed after failure: %+v", got)
	}
}

func TestBatch(t *testing.T) {
	r, out := newRunner()
	in := strings.NewReader("x = 3\nsay x ** 2\nsay (\nsay x + 1\n")
	if code := r.batch(in); code != 1 {
		t.Errorf("want exit code 1, got %d", code)
	}
	if want := "9\n4\n"; out.String() != want {
		t.Errorf("want output %q, got %q", want, out.String())
	}

	r, out = newRunner()
	if code := r.batch(strings.NewReader("say 'ok'\n")); code != 0 {
		t.Errorf("want exit code 0, got %d", code)
	}
	if out.String() != "ok\n" {
		t.Errorf("want output %q, got %q", "ok\n", out.String())
	}
}

func TestEvalGiven(t *testing.T) {
	r, _ := newRunner()
	v, err := r.eval("2 * 21")
	if err != nil {
		t.Fatal(err)
	}
	if v != "42" {
		t.Errorf("want 42, got %q", v)
	}
	if _, err := r.eval("1 ; 2"); err == nil {
		t.Error("trailing clause accepted")
	}
}

func TestParseForm(t *testing.T) {
	for s, want := range map[string]rexxexpr.Form{
		"scientific":  rexxexpr.Scientific,
		"ENGINEERING": rexxexpr.Engineering,
	} {
		got, err := parseForm(s)
		if err != nil || got != want {
			t.Errorf("parseForm(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := parseForm("x"); err == nil {
		t.Error("parseForm accepted x")
	}
}

func TestListVars(t *testing.T) {
	r, out := newRunner()
	if err := r.run("x = 1; a. = 'z'"); err != nil {
		t.Fatal(err)
	}
	r.listVars()
	if want := "A. = \"z\"\nX = \"1\"\n"; out.String() != want {
		t.Errorf("want %q, got %q", want, out.String())
	}
}
