package rexxexpr

import (
	"errors"
	"strconv"
)

// Form is the notation used for numbers written in exponential notation.
type Form int8

const (
	// Scientific puts one digit before the decimal point.
	Scientific Form = iota
	// Engineering puts one to three digits before the decimal point so that
	// the exponent is a multiple of three.
	Engineering
)

func (f Form) String() string {
	switch f {
	case Scientific:
		return "SCIENTIFIC"
	case Engineering:
		return "ENGINEERING"
	default:
		return "Form(" + strconv.Itoa(int(f)) + ")"
	}
}

// Numeric holds the settings that control decimal arithmetic.
type Numeric struct {
	// Digits is the number of significant digits kept in results.
	Digits int
	// Fuzz is the number of digits ignored in numeric comparisons.
	Fuzz int
	// Form is the exponential notation style.
	Form Form
	// MaxExp is the largest allowed exponent magnitude.
	MaxExp int
}

// DefaultNumeric is the configuration of a new Context.
var DefaultNumeric = Numeric{Digits: 9, Fuzz: 0, Form: Scientific, MaxExp: 999999999}

// Validate checks that the settings are usable.
func (num Numeric) Validate() error {
	switch {
	case num.Digits < 1:
		return errors.New("rexxexpr: digits " + strconv.Itoa(num.Digits) + " must be positive")
	case num.Fuzz < 0 || num.Fuzz >= num.Digits:
		return errors.New("rexxexpr: fuzz " + strconv.Itoa(num.Fuzz) + " must be non-negative and less than digits")
	case num.Form != Scientific && num.Form != Engineering:
		return errors.New("rexxexpr: invalid form " + num.Form.String())
	case num.MaxExp < 1:
		return errors.New("rexxexpr: maxexp " + strconv.Itoa(num.MaxExp) + " must be positive")
	}
	return nil
}

// number is a decoded decimal number. Its magnitude is digits[0].digits[1:]
// times ten to the power exp. digits holds digit values, not characters, and
// has no leading zeros. digits is meaningless when zero is set.
type number struct {
	neg    bool
	zero   bool
	digits []byte
	exp    int
}

// work is scratch space for digit sequences. Allocations are made only above
// mark, so digits decoded for an operand stay intact until the operator that
// decoded them releases its region.
type work struct {
	buf  []byte
	mark int
}

// alloc returns n bytes of scratch space above the mark and raises the mark.
func (w *work) alloc(n int) []byte {
	if w.mark+n > len(w.buf) {
		c := 2*len(w.buf) + n
		if c < 256 {
			c = 256
		}
		// Slices into the old buffer remain valid for their holders.
		b := make([]byte, c)
		copy(b, w.buf[:w.mark])
		w.buf = b
	}
	p := w.buf[w.mark : w.mark+n : w.mark+n]
	w.mark += n
	return p
}

// release lowers the mark to m, freeing everything allocated since.
func (w *work) release(m int) {
	w.mark = m
}

// decode parses b as a number. ok is false if b is not a number; err is
// non-nil only for an exponent beyond maxexp.
func (w *work) decode(b []byte, maxexp int) (n number, ok bool, err error) {
	i, j := 0, len(b)
	for i < j && isBlank(b[i]) {
		i++
	}
	for j > i && isBlank(b[j-1]) {
		j--
	}
	if i < j && (b[i] == '+' || b[i] == '-') {
		n.neg = b[i] == '-'
		i++
		for i < j && isBlank(b[i]) {
			i++
		}
	}
	if i == j {
		return number{}, false, nil
	}
	if !isDigit(b[i]) && !(b[i] == '.' && i+1 < j && isDigit(b[i+1])) {
		return number{}, false, nil
	}
	start, point := i, -1
	for ; i < j; i++ {
		if isDigit(b[i]) {
			continue
		}
		if b[i] == '.' && point < 0 {
			point = i
			continue
		}
		break
	}
	mant := b[start:i]
	intlen := len(mant)
	if point >= 0 {
		intlen = point - start
	}

	e, over := 0, false
	if i < j {
		if b[i] != 'e' && b[i] != 'E' {
			return number{}, false, nil
		}
		i++
		eneg := false
		if i < j && (b[i] == '+' || b[i] == '-') {
			eneg = b[i] == '-'
			i++
		}
		if i == j {
			return number{}, false, nil
		}
		for ; i < j; i++ {
			if !isDigit(b[i]) {
				return number{}, false, nil
			}
			if !over {
				e = e*10 + int(b[i]-'0')
				over = e > maxexp+len(mant)+1
			}
		}
		if eneg {
			e = -e
		}
	}

	p := w.alloc(len(mant))
	k, first := 0, -1
	for _, c := range mant {
		if c == '.' {
			continue
		}
		if first < 0 {
			if c == '0' {
				k++
				continue
			}
			first = k
		}
		p[k-first] = c - '0'
		k++
	}
	if first < 0 {
		return number{zero: true}, true, nil
	}
	n.digits = p[:k-first]
	n.exp = intlen - 1 - first + e
	if over || n.exp > maxexp || n.exp < -maxexp {
		return number{}, false, fail(ExponentOverflow, string(b))
	}
	return n, true, nil
}

// round rounds n to at most p significant digits, rounding half up.
func (w *work) round(n number, p int) number {
	if n.zero || len(n.digits) <= p {
		return n
	}
	d := w.alloc(p)
	copy(d, n.digits[:p])
	if n.digits[p] >= 5 {
		i := p - 1
		for ; i >= 0; i-- {
			if d[i] < 9 {
				d[i]++
				break
			}
			d[i] = 0
		}
		if i < 0 {
			// Carry out of the leading digit: 999.9 → 1000.
			d[0] = 1
			n.exp++
		}
	}
	n.digits = d
	return n
}

// trunc cuts n to at most p significant digits without rounding.
func trunc(n number, p int) number {
	if !n.zero && len(n.digits) > p {
		n.digits = n.digits[:p]
	}
	return n
}

// trimZeros removes trailing zero digits from n.
func trimZeros(n number) number {
	if n.zero {
		return n
	}
	k := len(n.digits)
	for k > 1 && n.digits[k-1] == 0 {
		k--
	}
	n.digits = n.digits[:k]
	return n
}

// normalize strips leading zero digits from d, which has its first digit at
// exponent e, and produces a number.
func normalize(neg bool, d []byte, e int) number {
	k := 0
	for k < len(d) && d[k] == 0 {
		k++
	}
	if k == len(d) {
		return number{zero: true}
	}
	return number{neg: neg, digits: d[k:], exp: e - k}
}

// whole returns the value of n if it is a whole number whose magnitude fits
// comfortably in an int. ok is false if n has a nonzero fractional part; fits
// is false if n is whole but too large.
func whole(n number) (v int, ok, fits bool) {
	if n.zero {
		return 0, true, true
	}
	if n.exp < 0 {
		return 0, false, false
	}
	for _, d := range n.digits[min(n.exp+1, len(n.digits)):] {
		if d != 0 {
			return 0, false, false
		}
	}
	if n.exp > 17 {
		return 0, true, false
	}
	for i := 0; i <= n.exp; i++ {
		v *= 10
		if i < len(n.digits) {
			v += int(n.digits[i])
		}
	}
	if n.neg {
		v = -v
	}
	return v, true, true
}

// appendNumber formats n according to num and appends the result to dst.
func (w *work) appendNumber(dst []byte, n number, num Numeric) ([]byte, error) {
	if n.zero {
		return append(dst, '0'), nil
	}
	n = w.round(n, num.Digits)
	if n.exp > num.MaxExp || n.exp < -num.MaxExp {
		return dst, fail(ExponentOverflow, "")
	}
	if n.neg {
		dst = append(dst, '-')
	}
	nd := len(n.digits)
	if after := nd - 1 - n.exp; n.exp < num.Digits && after <= 2*num.Digits {
		if n.exp < 0 {
			dst = append(dst, '0', '.')
			for i := -1; i > n.exp; i-- {
				dst = append(dst, '0')
			}
			return appendDigits(dst, n.digits), nil
		}
		return appendMantissa(dst, n.digits, n.exp+1), nil
	}
	e, lead := n.exp, 1
	if num.Form == Engineering {
		m := e % 3
		if m < 0 {
			m += 3
		}
		e -= m
		lead += m
	}
	dst = appendMantissa(dst, n.digits, lead)
	if e != 0 {
		dst = append(dst, 'E')
		if e > 0 {
			dst = append(dst, '+')
		} else {
			dst = append(dst, '-')
			e = -e
		}
		dst = strconv.AppendInt(dst, int64(e), 10)
	}
	return dst, nil
}

// appendMantissa writes d with lead digits before the decimal point, padding
// with zeros if d is shorter.
func appendMantissa(dst, d []byte, lead int) []byte {
	if len(d) <= lead {
		dst = appendDigits(dst, d)
		for i := len(d); i < lead; i++ {
			dst = append(dst, '0')
		}
		return dst
	}
	dst = appendDigits(dst, d[:lead])
	dst = append(dst, '.')
	return appendDigits(dst, d[lead:])
}

func appendDigits(dst, d []byte) []byte {
	for _, c := range d {
		dst = append(dst, c+'0')
	}
	return dst
}
