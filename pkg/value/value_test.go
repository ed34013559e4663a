package value

import (
	"testing"

	"github.com/dragonlace/denetwork/pkg/wire"
)

func TestIntValueRoundTripAndChangeDetection(t *testing.T) {
	v := NewSint32(42)
	if v.UpdateValue(false) {
		t.Fatal("fresh value should not report changed")
	}
	v.Set(43)
	if !v.UpdateValue(false) {
		t.Fatal("expected change after Set")
	}
	if v.UpdateValue(false) {
		t.Fatal("snapshot should have advanced, no further change")
	}

	w := wire.NewWriter(nil)
	if err := v.Write(w); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(w.Bytes())
	got := NewSint32(0)
	if err := got.Read(r); err != nil {
		t.Fatal(err)
	}
	if got.Get() != 43 {
		t.Fatalf("got %d, want 43", got.Get())
	}
}

func TestFloatValueBitExactChangeDetection(t *testing.T) {
	v := NewFloat32(1.0)
	v.Set(1.0)
	if v.UpdateValue(false) {
		t.Fatal("identical bit pattern should not report changed")
	}
	v.Set(float32(1.0000001))
	if !v.UpdateValue(false) {
		t.Fatal("distinct bit pattern should report changed even though visually close")
	}
}

func TestStringValueRoundTrip(t *testing.T) {
	v := NewString("hello")
	w := wire.NewWriter(nil)
	if err := v.Write(w); err != nil {
		t.Fatal(err)
	}
	got := NewString("")
	if err := got.Read(wire.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	if got.Get() != "hello" {
		t.Fatalf("got %q", got.Get())
	}
	v.Set("hello")
	if v.UpdateValue(false) {
		t.Fatal("unchanged string should not report changed")
	}
}

func TestDataValueChangeDetectionIsByValue(t *testing.T) {
	v := NewData([]byte{1, 2, 3})
	if v.UpdateValue(false) {
		t.Fatal("fresh data should not report changed")
	}
	v.Set([]byte{1, 2, 3})
	if v.UpdateValue(false) {
		t.Fatal("equal-content set should not report changed")
	}
	v.Set([]byte{1, 2, 4})
	if !v.UpdateValue(false) {
		t.Fatal("different content should report changed")
	}
}

func TestPoint2RoundTrip(t *testing.T) {
	v := NewPoint2Sint32(10, -20)
	w := wire.NewWriter(nil)
	if err := v.Write(w); err != nil {
		t.Fatal(err)
	}
	got := NewPoint2Sint32(0, 0)
	if err := got.Read(wire.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	x, y := got.Get()
	if x != 10 || y != -20 {
		t.Fatalf("got (%d,%d)", x, y)
	}
}

func TestPoint3ChangeDetectionPerComponent(t *testing.T) {
	v := NewPoint3Uint16(1, 2, 3)
	v.Set(1, 2, 4)
	if !v.UpdateValue(false) {
		t.Fatal("z-only change should report changed")
	}
}

func TestVector3RoundTrip(t *testing.T) {
	v := NewVector3F32(1.5, -2.5, 3.5)
	w := wire.NewWriter(nil)
	if err := v.Write(w); err != nil {
		t.Fatal(err)
	}
	got := NewVector3F32(0, 0, 0)
	if err := got.Read(wire.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	x, y, z := got.Get()
	if x != 1.5 || y != -2.5 || z != 3.5 {
		t.Fatalf("got (%v,%v,%v)", x, y, z)
	}
}

func TestQuaternionF16RoundTripLossy(t *testing.T) {
	v := NewQuaternionF16(0, 0, 0, 1)
	w := wire.NewWriter(nil)
	if err := v.Write(w); err != nil {
		t.Fatal(err)
	}
	got := NewQuaternionF16(0, 0, 0, 0)
	if err := got.Read(wire.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	x, y, z, q := got.Get()
	if x != 0 || y != 0 || z != 0 || q != 1 {
		t.Fatalf("got (%v,%v,%v,%v)", x, y, z, q)
	}
}

func TestVector2TypeTagsDistinguishWidths(t *testing.T) {
	a := NewVector2F16(0, 0)
	b := NewVector2F32(0, 0)
	c := NewVector2F64(0, 0)
	if a.Type() == b.Type() || b.Type() == c.Type() {
		t.Fatal("expected distinct ValueType tags per width")
	}
}
