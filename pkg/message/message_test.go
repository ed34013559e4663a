package message

import "testing"

func TestResizeGrowsCapacityWithoutPreservingContent(t *testing.T) {
	m := NewFromBytes([]byte{1, 2, 3})
	if m.Length() != 3 {
		t.Fatalf("length = %d, want 3", m.Length())
	}
	m.Resize(10)
	if m.Length() != 10 {
		t.Fatalf("length = %d, want 10", m.Length())
	}
	if len(m.Bytes()) != 10 {
		t.Fatalf("bytes len = %d, want 10", len(m.Bytes()))
	}
}

func TestResizeShrink(t *testing.T) {
	m := NewFromBytes([]byte{1, 2, 3, 4, 5})
	m.Resize(2)
	if m.Length() != 2 {
		t.Fatalf("length = %d, want 2", m.Length())
	}
	if len(m.Bytes()) != 2 {
		t.Fatalf("bytes len = %d, want 2", len(m.Bytes()))
	}
}

func TestWriterScopeFlushesOnClose(t *testing.T) {
	m := New()
	w := NewWriter(m)
	w.W().WriteByte(0x42)
	w.W().WriteUshort(1234)
	w.Close()

	if m.Length() != 3 {
		t.Fatalf("length = %d, want 3", m.Length())
	}

	r := NewReader(m)
	b, err := r.R().ReadByte()
	if err != nil || b != 0x42 {
		t.Fatalf("byte = %d, %v", b, err)
	}
	u, err := r.R().ReadUshort()
	if err != nil || u != 1234 {
		t.Fatalf("ushort = %d, %v", u, err)
	}
}

func TestTimestampAdvancesOnMutation(t *testing.T) {
	m := New()
	before := m.Timestamp()
	m.Resize(4)
	if m.Timestamp().Before(before) {
		t.Fatal("timestamp should not move backwards")
	}
}
