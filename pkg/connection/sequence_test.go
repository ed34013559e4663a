package connection

import "testing"

func TestSeqLess(t *testing.T) {
	if !seqLess(0, 1) {
		t.Fatal("0 < 1")
	}
	if seqLess(1, 0) {
		t.Fatal("1 should not be < 0")
	}
	if !seqLess(0xFFFF, 0) {
		t.Fatal("expected wraparound: 0xFFFF < 0")
	}
	if seqLess(5, 5) {
		t.Fatal("a value is never less than itself")
	}
}

func TestSeqInWindow(t *testing.T) {
	if !seqInWindow(12, 10, 5) {
		t.Fatal("12 should be within [10,15)")
	}
	if seqInWindow(15, 10, 5) {
		t.Fatal("15 should be outside [10,15)")
	}
	if !seqInWindow(2, 0xFFFE, 5) {
		t.Fatal("expected wraparound window membership")
	}
}
