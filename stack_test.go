package rexxexpr

import (
	"errors"
	"testing"
)

func TestStack(t *testing.T) {
	var s stack
	s.pushString("abc")
	s.pushNull()
	s.push([]byte("de"))
	if s.depth() != 3 {
		t.Fatalf("want depth 3, got %d", s.depth())
	}
	if err := s.dup(); err != nil {
		t.Fatal(err)
	}
	if v := s.popValue(); v.Text != "de" || v.Null {
		t.Errorf("dup gave %+v", v)
	}
	if b, n := s.peek(); n != 2 || string(b) != "de" {
		t.Errorf("peek gave %q %d", b, n)
	}
	s.pop()
	if _, err := s.popText(); !errors.Is(err, NullValue) {
		t.Errorf("popping null text: want NullValue, got %v", err)
	}
	if v := s.popValue(); v.Text != "abc" {
		t.Errorf("bottom value is %+v", v)
	}
	if s.depth() != 0 || len(s.arena) != 0 {
		t.Errorf("stack not empty: %d values, %d bytes", s.depth(), len(s.arena))
	}
}

func TestStackTruncate(t *testing.T) {
	var s stack
	for _, v := range []string{"a", "bb", "ccc"} {
		s.pushString(v)
	}
	s.truncate(1)
	if s.depth() != 1 || len(s.arena) != 1 {
		t.Errorf("truncate left %d values, %d bytes", s.depth(), len(s.arena))
	}
	s.truncate(5)
	if s.depth() != 1 {
		t.Errorf("truncate above depth changed the stack")
	}
}

func TestStackLimit(t *testing.T) {
	s := stack{limit: 10}
	if err := s.pushString("12345"); err != nil {
		t.Fatal(err)
	}
	if err := s.pushString("123456"); !errors.Is(err, Resource) {
		t.Errorf("want Resource, got %v", err)
	}
	if err := s.pushString("12345"); err != nil {
		t.Errorf("push to exactly the limit failed: %v", err)
	}
}

func TestStackLiterals(t *testing.T) {
	cases := []struct {
		text string
		hex  bool
		r    string
		err  ErrorKind
	}{
		{"", true, "", errNone},
		{"41", true, "A", errNone},
		{"4a4B", true, "JK", errNone},
		{"141", true, "\x01A", errNone},
		{"1 41", true, "\x01A", errNone},
		{"41 42 4344", true, "ABCD", errNone},
		{"41  42", true, "AB", errNone},
		{"4 1 4", true, "", BadHex},
		{"41 ", true, "", BadHex},
		{"4G", true, "", BadHex},
		{"", false, "", errNone},
		{"1", false, "\x01", errNone},
		{"01000001", false, "A", errNone},
		{"0100 0001", false, "A", errNone},
		{"1 0000 0001", false, "\x01\x01", errNone},
		{"10 101", false, "", BadBinary},
		{"012", false, "", BadBinary},
	}
	for _, c := range cases {
		var s stack
		// Stale bytes in the arena must not leak into literals.
		s.pushString("\xff\xff\xff\xff")
		s.pop()
		var err error
		if c.hex {
			err = s.pushHex(c.text)
		} else {
			err = s.pushBinary(c.text)
		}
		if c.err != errNone {
			if !errors.Is(err, c.err) {
				t.Errorf("%q: want %v, got %v", c.text, c.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", c.text, err)
			continue
		}
		if v := s.popValue(); v.Text != c.r {
			t.Errorf("%q: want %q, got %q", c.text, c.r, v.Text)
		}
	}
}

func TestPushQuoted(t *testing.T) {
	var s stack
	s.pushQuoted("it''s", '\'')
	s.pushQuoted(`say ""hi""`, '"')
	s.pushQuoted(`a''b`, '"')
	want := []string{`a''b`, `say "hi"`, "it's"}
	for _, w := range want {
		if v := s.popValue(); v.Text != w {
			t.Errorf("want %q, got %q", w, v.Text)
		}
	}
}
