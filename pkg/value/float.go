package value

import (
	"math"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Float is the constraint for the two storage widths backing FLOAT16/32
// (float32) and FLOAT64 (float64) values.
type Float interface {
	~float32 | ~float64
}

// FloatValue backs Float16, Float32 and Float64. Change detection
// compares bit patterns, not `==`: an absolute-threshold equality check
// can suppress a real (if tiny) change forever, while bit-exact
// comparison also means a NaN written once does not look "changed" on
// every subsequent tick just because NaN != NaN.
type FloatValue[T Float] struct {
	vt     protocol.ValueType
	value  T
	synced T
	read   func(r *wire.Reader) (T, error)
	write  func(w *wire.Writer, v T)
	bits   func(T) uint64
}

func newFloatValue[T Float](vt protocol.ValueType, initial T, read func(*wire.Reader) (T, error), write func(*wire.Writer, T), bits func(T) uint64) *FloatValue[T] {
	return &FloatValue[T]{vt: vt, value: initial, synced: initial, read: read, write: write, bits: bits}
}

func (v *FloatValue[T]) Type() protocol.ValueType { return v.vt }
func (v *FloatValue[T]) Get() T                   { return v.value }
func (v *FloatValue[T]) Set(x T)                  { v.value = x }

func (v *FloatValue[T]) Read(r *wire.Reader) error {
	x, err := v.read(r)
	if err != nil {
		return err
	}
	v.value = x
	v.synced = x
	return nil
}

func (v *FloatValue[T]) Write(w *wire.Writer) error {
	v.write(w, v.value)
	return nil
}

func (v *FloatValue[T]) UpdateValue(force bool) bool {
	if force || v.bits(v.value) != v.bits(v.synced) {
		v.synced = v.value
		return true
	}
	return false
}

func bits32(v float32) uint64 { return uint64(math.Float32bits(v)) }
func bits64(v float64) uint64 { return math.Float64bits(v) }

// NewFloat16 stores the value as float32 (Go has no native binary16) and
// quantizes through github.com/x448/float16 only on the wire; the stored
// value is never silently rounded by Set/Get.
func NewFloat16(initial float32) *FloatValue[float32] {
	return newFloatValue(protocol.ValueFloat16, initial,
		func(r *wire.Reader) (float32, error) { return r.ReadFloat16() },
		func(w *wire.Writer, v float32) { w.WriteFloat16(v) },
		bits32)
}

func NewFloat32(initial float32) *FloatValue[float32] {
	return newFloatValue(protocol.ValueFloat32, initial,
		func(r *wire.Reader) (float32, error) { return r.ReadFloat32() },
		func(w *wire.Writer, v float32) { w.WriteFloat32(v) },
		bits32)
}

func NewFloat64(initial float64) *FloatValue[float64] {
	return newFloatValue(protocol.ValueFloat64, initial,
		func(r *wire.Reader) (float64, error) { return r.ReadFloat64() },
		func(w *wire.Writer, v float64) { w.WriteFloat64(v) },
		bits64)
}
