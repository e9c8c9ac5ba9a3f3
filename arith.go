package rexxexpr

var oneDigits = []byte{1}

// one is the number 1.
var one = number{digits: oneDigits}

// place writes the digits of n into dst, whose first element is the digit at
// exponent top. Digits below exponent low are dropped.
func place(dst []byte, n number, top, low int) {
	clear(dst)
	for i, d := range n.digits {
		pos := n.exp - i
		if pos < low {
			break
		}
		dst[top-pos] = d
	}
}

// add computes a+b to p digits. Each operand is first rounded to p digits,
// and the operand with the smaller exponent keeps only one guard digit below
// the precision of the larger.
func (w *work) add(a, b number, p int) number {
	if a.zero {
		return b
	}
	if b.zero {
		return a
	}
	a = w.round(a, p)
	b = w.round(b, p)
	if b.exp > a.exp {
		a, b = b, a
	}
	low := min(a.exp-len(a.digits)+1, b.exp-len(b.digits)+1)
	if floor := a.exp - p - 1; low < floor {
		low = floor
	}
	// One extra leading position holds a carry out.
	top := a.exp + 1
	width := top - low + 1
	da := w.alloc(width)
	db := w.alloc(width)
	place(da, a, top, low)
	place(db, b, top, low)
	if a.neg == b.neg {
		carry := byte(0)
		for i := width - 1; i >= 0; i-- {
			t := da[i] + db[i] + carry
			carry = t / 10
			da[i] = t % 10
		}
		return normalize(a.neg, da, top)
	}
	neg := a.neg
	switch cmpDigits(da, db) {
	case 0:
		return number{zero: true}
	case -1:
		da, db = db, da
		neg = b.neg
	}
	borrow := byte(0)
	for i := width - 1; i >= 0; i-- {
		t := da[i] + 10 - db[i] - borrow
		borrow = 1 - t/10
		da[i] = t % 10
	}
	return normalize(neg, da, top)
}

// sub computes a-b to p digits.
func (w *work) sub(a, b number, p int) number {
	if !b.zero {
		b.neg = !b.neg
	}
	return w.add(a, b, p)
}

// cmpDigits compares two digit sequences of equal length.
func cmpDigits(a, b []byte) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// mul computes a*b with each operand cut to p digits. The result is exact
// for the cut operands.
func (w *work) mul(a, b number, p int) number {
	if a.zero || b.zero {
		return number{zero: true}
	}
	a = trunc(a, p)
	b = trunc(b, p)
	na, nb := len(a.digits), len(b.digits)
	r := w.alloc(na + nb)
	clear(r)
	for i := na - 1; i >= 0; i-- {
		carry := 0
		for j := nb - 1; j >= 0; j-- {
			t := int(r[i+j+1]) + int(a.digits[i])*int(b.digits[j]) + carry
			r[i+j+1] = byte(t % 10)
			carry = t / 10
		}
		r[i] = byte(carry)
	}
	return normalize(a.neg != b.neg, r, a.exp+b.exp+1)
}

// mulsub subtracts q times the divisor d from the window win, which is one
// digit longer than d. It reports false if the result went negative, in
// which case win holds the complement and must be restored with muladd.
func mulsub(win, d []byte, q int) bool {
	borrow := 0
	for i := len(d) - 1; i >= 0; i-- {
		t := int(win[i+1]) - q*int(d[i]) - borrow
		borrow = 0
		if t < 0 {
			borrow = (9 - t) / 10
			t += borrow * 10
		}
		win[i+1] = byte(t)
	}
	t := int(win[0]) - borrow
	if t < 0 {
		win[0] = byte(t + 10)
		return false
	}
	win[0] = byte(t)
	return true
}

// muladd adds q times the divisor d back into win, modulo the window width.
func muladd(win, d []byte, q int) {
	carry := 0
	for i := len(d) - 1; i >= 0; i-- {
		t := int(win[i+1]) + q*int(d[i]) + carry
		win[i+1] = byte(t % 10)
		carry = t / 10
	}
	win[0] = byte((int(win[0]) + carry) % 10)
}

func isZeroDigits(d []byte) bool {
	for _, c := range d {
		if c != 0 {
			return false
		}
	}
	return true
}

// divide computes a/b. With integer set, it produces the integer part of the
// quotient and the remainder, which has the sign of a, and fails if the
// quotient needs more than p digits. Otherwise it produces p+1 significant
// quotient digits with trailing zeros removed and r is unused. b must not be
// zero.
func (w *work) divide(a, b number, p int, integer bool) (q, r number, err error) {
	if a.zero {
		return number{zero: true}, number{zero: true}, nil
	}
	a = w.round(a, p)
	b = w.round(b, p)
	neg := a.neg != b.neg
	k0 := a.exp - b.exp
	if integer && k0 < 0 {
		return number{zero: true}, a, nil
	}
	if integer && k0+1 > p+1 {
		return number{}, number{}, fail(WholeNumber, "")
	}
	ad := func(i int) byte {
		if i < len(a.digits) {
			return a.digits[i]
		}
		return 0
	}
	bd := b.digits
	nb := len(bd)
	win := w.alloc(nb + 1)
	win[0] = 0
	for i := 0; i < nb; i++ {
		win[i+1] = ad(i)
	}
	next := nb

	limit := p + 2
	if integer {
		limit = k0 + 1
	}
	qd := w.alloc(limit)
	steps, sig := 0, 0
	for {
		// The leading digits give an estimate that is never too small.
		qt := (int(win[0])*10 + int(win[1])) / int(bd[0])
		if qt > 9 {
			qt = 9
		}
		for !mulsub(win, bd, qt) {
			muladd(win, bd, qt)
			qt--
		}
		qd[steps] = byte(qt)
		steps++
		if sig > 0 || qt != 0 {
			sig++
		}
		if integer {
			if steps == limit {
				break
			}
		} else if sig == p+1 || steps == limit || next >= len(a.digits) && isZeroDigits(win) {
			break
		}
		copy(win, win[1:])
		win[nb] = ad(next)
		next++
	}
	q = normalize(neg, qd[:steps], k0)
	if !integer {
		return trimZeros(q), number{}, nil
	}
	if !q.zero && len(q.digits) > p {
		return number{}, number{}, fail(WholeNumber, "")
	}
	// The remainder is the window followed by the dividend digits not yet
	// brought down. The window's first digit is just above b's leading digit.
	rest := 0
	if next < len(a.digits) {
		rest = len(a.digits) - next
	}
	rd := w.alloc(nb + 1 + rest)
	copy(rd, win)
	if rest > 0 {
		copy(rd[nb+1:], a.digits[next:])
	}
	return q, normalize(a.neg, rd, b.exp+1), nil
}

// power computes x**n. Intermediate products keep p+2 digits; a negative n
// takes the reciprocal of the positive power.
func (w *work) power(x number, n int, num Numeric) (number, error) {
	p := num.Digits + 2
	neg := n < 0
	if neg {
		n = -n
	}
	r, base := one, x
	for n > 0 {
		if n&1 != 0 {
			r = w.round(w.mul(r, base, p), p)
			if err := checkExp(r, num.MaxExp); err != nil {
				return number{}, err
			}
		}
		n >>= 1
		if n > 0 {
			base = w.round(w.mul(base, base, p), p)
			if err := checkExp(base, num.MaxExp); err != nil {
				return number{}, err
			}
		}
	}
	if !neg {
		return r, nil
	}
	if r.zero {
		return number{}, fail(DivideByZero, "")
	}
	q, _, err := w.divide(one, r, num.Digits, false)
	return q, err
}

// checkExp fails if the exponent of n exceeds maxexp in magnitude.
func checkExp(n number, maxexp int) error {
	if !n.zero && (n.exp > maxexp || n.exp < -maxexp) {
		return fail(ExponentOverflow, "")
	}
	return nil
}

// compare compares a and b numerically to p digits.
func (w *work) compare(a, b number, p int) int {
	d := w.sub(a, b, p)
	switch {
	case d.zero:
		return 0
	case d.neg:
		return -1
	default:
		return 1
	}
}
