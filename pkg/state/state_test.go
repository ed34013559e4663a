package state

import (
	"testing"

	"github.com/dragonlace/denetwork/pkg/value"
	"github.com/dragonlace/denetwork/pkg/wire"
)

type recordingLink struct {
	dirty map[int]bool
}

func newRecordingLink() *recordingLink       { return &recordingLink{dirty: map[int]bool{}} }
func (l *recordingLink) MarkDirty(index int) { l.dirty[index] = true }

func TestAddValueFailsAfterLink(t *testing.T) {
	s := New(false)
	v := value.NewSint32(1)
	if err := s.AddValue(v); err != nil {
		t.Fatal(err)
	}
	s.AttachLink(newRecordingLink())
	if err := s.AddValue(value.NewSint32(2)); err != ErrStateLinked {
		t.Fatalf("expected ErrStateLinked, got %v", err)
	}
}

func TestIndexOf(t *testing.T) {
	s := New(false)
	a := value.NewSint32(1)
	b := value.NewSint32(2)
	s.AddValue(a)
	s.AddValue(b)
	if s.IndexOf(b) != 1 {
		t.Fatalf("expected index 1, got %d", s.IndexOf(b))
	}
	if s.IndexOf(value.NewSint32(3)) != -1 {
		t.Fatal("expected -1 for unknown value")
	}
}

func TestInvalidateValueFansOutToLinks(t *testing.T) {
	s := New(false)
	s.AddValue(value.NewSint32(1))
	s.AddValue(value.NewSint32(2))
	l1 := newRecordingLink()
	l2 := newRecordingLink()
	s.AttachLink(l1)
	s.AttachLink(l2)

	if err := s.InvalidateValue(1); err != nil {
		t.Fatal(err)
	}
	if !l1.dirty[1] || !l2.dirty[1] {
		t.Fatal("expected both links marked dirty at index 1")
	}
	if l1.dirty[0] {
		t.Fatal("index 0 should not be dirty")
	}
}

func TestInvalidateValueOutOfRange(t *testing.T) {
	s := New(false)
	s.AddValue(value.NewSint32(1))
	if err := s.InvalidateValue(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestApplyUpdateFiresChangeListenerInWireOrder(t *testing.T) {
	s := New(true)
	a := value.NewSint32(0)
	b := value.NewString("")
	s.AddValue(a)
	s.AddValue(b)

	var seen []int
	s.SetChangeListener(func(index int, v value.Value) {
		seen = append(seen, index)
	})

	w := wire.NewWriter(nil)
	w.WriteUshort(2)
	w.WriteUshort(1)
	b2 := value.NewString("hi")
	b2.Write(w)
	w.WriteUshort(0)
	a2 := value.NewSint32(99)
	a2.Write(w)

	if err := s.ApplyUpdate(wire.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 0 {
		t.Fatalf("unexpected callback order: %v", seen)
	}
	if a.Get() != 99 {
		t.Fatalf("expected a updated to 99")
	}
	if b.Get() != "hi" {
		t.Fatalf("expected b updated to hi")
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	s := New(false)
	s.AddValue(value.NewSint16(7))
	s.AddValue(value.NewString("x"))

	w := wire.NewWriter(nil)
	if err := s.WriteSchema(w); err != nil {
		t.Fatal(err)
	}

	decoded, err := ReadSchema(wire.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.SchemaTags()) != 2 {
		t.Fatalf("expected 2 schema entries, got %d", len(decoded.SchemaTags()))
	}
	for i, tag := range s.SchemaTags() {
		if decoded.SchemaTags()[i] != tag {
			t.Fatalf("schema tag mismatch at %d", i)
		}
	}
}
