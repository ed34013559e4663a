package connection

// seqLess reports whether a precedes b under 16-bit wrapping arithmetic:
// a < b iff (b-a) mod 2^16 is in (0, 2^15).
func seqLess(a, b uint16) bool {
	d := b - a
	return d != 0 && d < 0x8000
}

// seqInWindow reports whether seq falls within [base, base+size) under
// wrapping arithmetic.
func seqInWindow(seq, base uint16, size int) bool {
	d := seq - base
	return int(d) < size
}
