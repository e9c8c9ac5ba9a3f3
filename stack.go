package rexxexpr

// Value is a value exchanged with collaborators: a string, or the null value
// that stands for an omitted function argument.
type Value struct {
	Text string
	Null bool
}

// span locates a value in the stack arena. n is -1 for the null value.
type span struct {
	off, n int
}

// stack is the evaluation stack. Values are stored end to end in one arena;
// a slice returned by pop or peek aliases the arena and is valid only until
// the next push.
type stack struct {
	arena []byte
	vals  []span
	// limit is the maximum arena size in bytes, or 0 for no limit.
	limit int
}

// reset empties the stack without releasing its memory.
func (s *stack) reset() {
	s.arena = s.arena[:0]
	s.vals = s.vals[:0]
}

// depth returns the number of values on the stack.
func (s *stack) depth() int {
	return len(s.vals)
}

// truncate pops values until k remain.
func (s *stack) truncate(k int) {
	if k >= len(s.vals) {
		return
	}
	s.arena = s.arena[:s.vals[k].off]
	s.vals = s.vals[:k]
}

// grow pushes a new value of n bytes and returns its storage.
func (s *stack) grow(n int) ([]byte, error) {
	off := len(s.arena)
	if s.limit > 0 && off+n > s.limit {
		return nil, fail(Resource, "")
	}
	if off+n > cap(s.arena) {
		c := 2*cap(s.arena) + n
		if c < 256 {
			c = 256
		}
		if s.limit > 0 && c > s.limit {
			c = s.limit
		}
		a := make([]byte, off, c)
		copy(a, s.arena)
		s.arena = a
	}
	s.arena = s.arena[:off+n]
	s.vals = append(s.vals, span{off: off, n: n})
	return s.arena[off : off+n : off+n], nil
}

// shrink shortens the top value to n bytes.
func (s *stack) shrink(n int) {
	v := &s.vals[len(s.vals)-1]
	v.n = n
	s.arena = s.arena[:v.off+n]
}

// push pushes a copy of b.
func (s *stack) push(b []byte) error {
	p, err := s.grow(len(b))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

// pushString pushes a copy of t.
func (s *stack) pushString(t string) error {
	p, err := s.grow(len(t))
	if err != nil {
		return err
	}
	copy(p, t)
	return nil
}

// pushQuoted pushes the body of a quoted literal, collapsing each doubled
// quote character into one.
func (s *stack) pushQuoted(b string, quote byte) error {
	p, err := s.grow(len(b))
	if err != nil {
		return err
	}
	k := 0
	for i := 0; i < len(b); i++ {
		p[k] = b[i]
		k++
		if b[i] == quote && i+1 < len(b) && b[i+1] == quote {
			i++
		}
	}
	s.shrink(k)
	return nil
}

// pushNull pushes the null value.
func (s *stack) pushNull() {
	s.vals = append(s.vals, span{off: len(s.arena), n: -1})
}

// dup pushes a copy of the top value.
func (s *stack) dup() error {
	v := s.vals[len(s.vals)-1]
	if v.n < 0 {
		s.pushNull()
		return nil
	}
	p, err := s.grow(v.n)
	if err != nil {
		return err
	}
	copy(p, s.arena[v.off:v.off+v.n])
	return nil
}

// peek returns the top value without removing it. The length is -1 for the
// null value.
func (s *stack) peek() ([]byte, int) {
	v := s.vals[len(s.vals)-1]
	if v.n < 0 {
		return nil, -1
	}
	return s.arena[v.off : v.off+v.n : v.off+v.n], v.n
}

// pop removes the top value and returns it. The length is -1 for the null
// value. The returned slice is overwritten by the next push.
func (s *stack) pop() ([]byte, int) {
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	s.arena = s.arena[:v.off]
	if v.n < 0 {
		return nil, -1
	}
	return s.arena[v.off : v.off+v.n : v.off+v.n], v.n
}

// popValue removes the top value and returns a copy of it.
func (s *stack) popValue() Value {
	b, n := s.pop()
	if n < 0 {
		return Value{Null: true}
	}
	return Value{Text: string(b)}
}

// popText removes the top value, failing if it is the null value.
func (s *stack) popText() ([]byte, error) {
	b, n := s.pop()
	if n < 0 {
		return nil, fail(NullValue, "")
	}
	return b, nil
}

// pushHex pushes the bytes denoted by the body of a hexadecimal literal.
// Blanks may separate groups of digits. The first group may have any number
// of digits; every later group must have an even number.
func (s *stack) pushHex(text string) error {
	n, err := literalGroups(text, 2, hexDigit, BadHex)
	if err != nil {
		return err
	}
	p, err := s.grow((n + 1) / 2)
	if err != nil {
		return err
	}
	clear(p)
	k, half := 0, n%2 == 1
	for i := 0; i < len(text); i++ {
		d, ok := hexDigit(text[i])
		if !ok {
			continue
		}
		if half {
			p[k] |= d
			k++
		} else {
			p[k] = d << 4
		}
		half = !half
	}
	return nil
}

// pushBinary pushes the bytes denoted by the body of a binary literal. The
// first group may have any number of digits; every later group must have a
// multiple of four.
func (s *stack) pushBinary(text string) error {
	n, err := literalGroups(text, 4, binDigit, BadBinary)
	if err != nil {
		return err
	}
	p, err := s.grow((n + 7) / 8)
	if err != nil {
		return err
	}
	clear(p)
	// Pad on the left to a whole byte.
	bit := (8 - n%8) % 8
	for i := 0; i < len(text); i++ {
		d, ok := binDigit(text[i])
		if !ok {
			continue
		}
		p[bit/8] |= d << (7 - bit%8)
		bit++
	}
	return nil
}

// literalGroups validates the digit grouping of a hex or binary literal and
// returns the number of digits.
func literalGroups(text string, width int, digit func(byte) (byte, bool), kind ErrorKind) (int, error) {
	n, group, groups := 0, 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isBlank(c) {
			if i == 0 || i == len(text)-1 {
				return 0, fail(kind, text)
			}
			if group == 0 {
				continue
			}
			if groups > 0 && group%width != 0 {
				return 0, fail(kind, text)
			}
			groups++
			group = 0
			continue
		}
		if _, ok := digit(c); !ok {
			return 0, fail(kind, text)
		}
		n++
		group++
	}
	if groups > 0 && group%width != 0 {
		return 0, fail(kind, text)
	}
	return n, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func binDigit(c byte) (byte, bool) {
	switch c {
	case '0':
		return 0, true
	case '1':
		return 1, true
	}
	return 0, false
}
