package rexxexpr

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		neg    bool
		zero   bool
		digits string
		exp    int
	}{
		{"0", true, false, true, "", 0},
		{"-0.00", true, false, true, "", 0},
		{"1", true, false, false, "1", 0},
		{"  12  ", true, false, false, "12", 1},
		{"- 12", true, true, false, "12", 1},
		{"+3.14", true, false, false, "314", 0},
		{"1.50", true, false, false, "150", 0},
		{"0.0012", true, false, false, "12", -3},
		{".5", true, false, false, "5", -1},
		{"5.", true, false, false, "5", 0},
		{"007", true, false, false, "7", 0},
		{"1e3", true, false, false, "1", 3},
		{"12.5E-3", true, false, false, "125", -2},
		{"", false, false, false, "", 0},
		{" ", false, false, false, "", 0},
		{"-", false, false, false, "", 0},
		{".", false, false, false, "", 0},
		{"1.2.3", false, false, false, "", 0},
		{"1e", false, false, false, "", 0},
		{"1e+", false, false, false, "", 0},
		{"e1", false, false, false, "", 0},
		{"1 2", false, false, false, "", 0},
		{"--1", false, false, false, "", 0},
		{"0x10", false, false, false, "", 0},
	}
	var w work
	for _, c := range cases {
		n, ok, err := w.decode([]byte(c.in), 999)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.in, err)
			continue
		}
		if ok != c.ok {
			t.Errorf("%q: want ok %t, got %t", c.in, c.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if n.zero != c.zero {
			t.Errorf("%q: want zero %t, got %t", c.in, c.zero, n.zero)
			continue
		}
		if n.zero {
			continue
		}
		if n.neg != c.neg || string(appendDigits(nil, n.digits)) != c.digits || n.exp != c.exp {
			t.Errorf("%q: want %t %s e%d, got %t %s e%d", c.in, c.neg, c.digits, c.exp, n.neg, appendDigits(nil, n.digits), n.exp)
		}
		w.release(0)
	}
}

func TestDecodeOverflow(t *testing.T) {
	var w work
	for _, s := range []string{"1e1000", "1e-1000", "1234e997", "1e99999999999999999999"} {
		_, _, err := w.decode([]byte(s), 999)
		if !errors.Is(err, ExponentOverflow) {
			t.Errorf("%q: want ExponentOverflow, got %v", s, err)
		}
	}
	if _, ok, err := w.decode([]byte("1e999"), 999); !ok || err != nil {
		t.Errorf("1e999: want ok, got %t %v", ok, err)
	}
}

func TestAppendNumber(t *testing.T) {
	sci := Numeric{Digits: 9, Form: Scientific, MaxExp: 999}
	eng := Numeric{Digits: 9, Form: Engineering, MaxExp: 999}
	cases := []struct {
		in  string
		num Numeric
		out string
	}{
		{"0", sci, "0"},
		{"-1.5", sci, "-1.5"},
		{"1.50", sci, "1.50"},
		{"123456789", sci, "123456789"},
		{"1234567890", sci, "1.23456789E+9"},
		{"1234567850", sci, "1.23456785E+9"},
		{"1234567895", sci, "1.23456790E+9"},
		{"999999999.5", sci, "1.00000000E+9"},
		{"0.1", sci, "0.1"},
		{"0.000000000000000001", sci, "0.000000000000000001"},
		{"0.0000000000000000001", sci, "1E-19"},
		{"1.5e-20", sci, "1.5E-20"},
		{"1e9", sci, "1E+9"},
		{"1e8", sci, "100000000"},
		{"1234567890", eng, "1.23456789E+9"},
		{"12345678901", eng, "12.3456789E+9"},
		{"123456789012", eng, "123.456789E+9"},
		{"1e10", eng, "10E+9"},
		{"1.5e-20", eng, "15E-21"},
		{"1e-21", eng, "1E-21"},
	}
	var w work
	for _, c := range cases {
		n, ok, err := w.decode([]byte(c.in), c.num.MaxExp)
		if !ok || err != nil {
			t.Fatalf("%q didn't decode: %v", c.in, err)
		}
		b, err := w.appendNumber(nil, n, c.num)
		if err != nil {
			t.Errorf("%q: %v", c.in, err)
		} else if string(b) != c.out {
			t.Errorf("%q in %v: want %q, got %q", c.in, c.num.Form, c.out, b)
		}
		w.release(0)
	}
}

func TestArith(t *testing.T) {
	cases := []struct {
		a, b string
		op   opKind
		p    int
		r    string
	}{
		{"1", "2", opAdd, 9, "3"},
		{"9", "1", opAdd, 9, "10"},
		{"99999", "1", opAdd, 5, "1.0000E+5"},
		{"1", "0.001", opSub, 9, "0.999"},
		{"-1", "-2", opAdd, 9, "-3"},
		{"5", "5", opSub, 9, "0"},
		{"0.1", "-0.3", opAdd, 9, "-0.2"},
		{"123", "456", opMul, 9, "56088"},
		{"-1.5", "2", opMul, 9, "-3.0"},
		{"1", "8", opDiv, 9, "0.125"},
		{"100", "7", opDiv, 9, "14.2857143"},
		{"-1", "3", opDiv, 9, "-0.333333333"},
		{"6", "2", opDiv, 9, "3"},
		{"17", "5", opIDiv, 9, "3"},
		{"17", "5", opRem, 9, "2"},
		{"17", "-5", opRem, 9, "2"},
		{"-17", "5", opIDiv, 9, "-3"},
		{"2", "3", opIDiv, 9, "0"},
		{"2", "3", opRem, 9, "2"},
		{"3.6", "1.5", opRem, 9, "0.6"},
		{"999", "1", opIDiv, 3, "999"},
	}
	for _, c := range cases {
		ctx := NewContext(Digits(c.p))
		ctx.stk.pushString(c.a)
		ctx.stk.pushString(c.b)
		if err := ops[c.op].apply(ctx, c.op); err != nil {
			t.Errorf("%s %s %s: %v", c.a, c.op, c.b, err)
			continue
		}
		r := ctx.stk.popValue()
		if r.Text != c.r {
			t.Errorf("%s %s %s: want %q, got %q", c.a, c.op, c.b, c.r, r.Text)
		}
	}
}

func TestWorkMark(t *testing.T) {
	var w work
	a := w.alloc(4)
	copy(a, []byte{1, 2, 3, 4})
	m := w.mark
	b := w.alloc(1000)
	b[0] = 9
	w.release(m)
	if a[0] != 1 || a[3] != 4 {
		t.Errorf("region below mark changed: %v", a)
	}
	if w.mark != 4 {
		t.Errorf("wrong mark %d after release", w.mark)
	}
}
