package wire

import (
	"math"
	"testing"

	"github.com/go-test/deep"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	w.WriteChar(-5)
	w.WriteByte(200)
	w.WriteShort(-1234)
	w.WriteUshort(54321)
	w.WriteInt(-70000)
	w.WriteUint(4000000000)
	w.WriteLong(-1 << 40)
	w.WriteUlong(1 << 63)
	w.WriteFloat32(3.5)
	w.WriteFloat64(-2.25)
	if err := w.WriteString8("hello"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteString16("world"); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())

	if v, err := r.ReadChar(); err != nil || v != -5 {
		t.Fatalf("char = %d, %v", v, err)
	}
	if v, err := r.ReadByte(); err != nil || v != 200 {
		t.Fatalf("byte = %d, %v", v, err)
	}
	if v, err := r.ReadShort(); err != nil || v != -1234 {
		t.Fatalf("short = %d, %v", v, err)
	}
	if v, err := r.ReadUshort(); err != nil || v != 54321 {
		t.Fatalf("ushort = %d, %v", v, err)
	}
	if v, err := r.ReadInt(); err != nil || v != -70000 {
		t.Fatalf("int = %d, %v", v, err)
	}
	if v, err := r.ReadUint(); err != nil || v != 4000000000 {
		t.Fatalf("uint = %d, %v", v, err)
	}
	if v, err := r.ReadLong(); err != nil || v != -1<<40 {
		t.Fatalf("long = %d, %v", v, err)
	}
	if v, err := r.ReadUlong(); err != nil || v != 1<<63 {
		t.Fatalf("ulong = %d, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("float32 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -2.25 {
		t.Fatalf("float64 = %v, %v", v, err)
	}
	if v, err := r.ReadString8(); err != nil || v != "hello" {
		t.Fatalf("string8 = %q, %v", v, err)
	}
	if v, err := r.ReadString16(); err != nil || v != "world" {
		t.Fatalf("string16 = %q, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", r.Remaining())
	}
}

func TestString8TooLong(t *testing.T) {
	w := NewWriter(nil)
	long := make([]byte, 256)
	if err := w.WriteString8(string(long)); err == nil {
		t.Fatal("expected error for string8 > 255 bytes")
	}
}

func TestString16TooLong(t *testing.T) {
	w := NewWriter(nil)
	long := make([]byte, 65536)
	if err := w.WriteString16(string(long)); err == nil {
		t.Fatal("expected error for string16 > 65535 bytes")
	}
}

func TestReadUnderflow(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint(); err == nil {
		t.Fatal("expected underflow error")
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	w.WritePoint2(1, -2)
	w.WritePoint3(3, -4, 5)
	w.WriteVector2(1.5, -2.5)
	w.WriteVector3(1.5, -2.5, 3.5)
	w.WriteQuaternion(0, 0, 0, 1)
	w.WriteDVector(1.123456789, -2.2, 3.3)

	r := NewReader(w.Bytes())
	x2, y2, err := r.ReadPoint2()
	if err != nil || x2 != 1 || y2 != -2 {
		t.Fatalf("point2 = %d,%d err=%v", x2, y2, err)
	}
	x3, y3, z3, err := r.ReadPoint3()
	if err != nil || x3 != 3 || y3 != -4 || z3 != 5 {
		t.Fatalf("point3 = %d,%d,%d err=%v", x3, y3, z3, err)
	}
	vx2, vy2, err := r.ReadVector2()
	if err != nil || vx2 != 1.5 || vy2 != -2.5 {
		t.Fatalf("vector2 = %v,%v err=%v", vx2, vy2, err)
	}
	vx3, vy3, vz3, err := r.ReadVector3()
	if err != nil || vx3 != 1.5 || vy3 != -2.5 || vz3 != 3.5 {
		t.Fatalf("vector3 err=%v", err)
	}
	qx, qy, qz, qw, err := r.ReadQuaternion()
	if err != nil || qx != 0 || qy != 0 || qz != 0 || qw != 1 {
		t.Fatalf("quaternion err=%v", err)
	}
	dx, dy, dz, err := r.ReadDVector()
	if err != nil || dx != 1.123456789 || dy != -2.2 || dz != 3.3 {
		t.Fatalf("dvector err=%v", err)
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	cases := []float32{0, 1, -1, 0.5, 65504, -65504, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, c := range cases {
		w := NewWriter(nil)
		w.WriteFloat16(c)
		r := NewReader(w.Bytes())
		got, err := r.ReadFloat16()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c {
			t.Errorf("float16 round trip %v -> %v", c, got)
		}
	}

	// NaN compares unequal to itself; check that a NaN comes back as a NaN instead.
	w := NewWriter(nil)
	w.WriteFloat16(float32(math.NaN()))
	r := NewReader(w.Bytes())
	got, err := r.ReadFloat16()
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(float64(got)) {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestDataBlobRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	blob := []byte{1, 2, 3, 4, 5}
	if err := w.WriteData(blob); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes())
	got, err := r.ReadData()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, blob); diff != nil {
		t.Errorf("data round trip diff: %v", diff)
	}
}
