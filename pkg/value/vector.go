package value

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

type floatIO[T Float] struct {
	read  func(*wire.Reader) (T, error)
	write func(*wire.Writer, T)
	bits  func(T) uint64
}

var float16IO = floatIO[float32]{
	read:  func(r *wire.Reader) (float32, error) { return r.ReadFloat16() },
	write: func(w *wire.Writer, v float32) { w.WriteFloat16(v) },
	bits:  bits32,
}
var float32IO = floatIO[float32]{
	read:  func(r *wire.Reader) (float32, error) { return r.ReadFloat32() },
	write: func(w *wire.Writer, v float32) { w.WriteFloat32(v) },
	bits:  bits32,
}
var float64IO = floatIO[float64]{
	read:  func(r *wire.Reader) (float64, error) { return r.ReadFloat64() },
	write: func(w *wire.Writer, v float64) { w.WriteFloat64(v) },
	bits:  bits64,
}

type Vector2Value[T Float] struct {
	vt     protocol.ValueType
	x, y   T
	sx, sy T
	io     floatIO[T]
}

func newVector2Value[T Float](vt protocol.ValueType, x, y T, io floatIO[T]) *Vector2Value[T] {
	return &Vector2Value[T]{vt: vt, x: x, y: y, sx: x, sy: y, io: io}
}

func (v *Vector2Value[T]) Type() protocol.ValueType { return v.vt }
func (v *Vector2Value[T]) Get() (x, y T)            { return v.x, v.y }
func (v *Vector2Value[T]) Set(x, y T)               { v.x, v.y = x, y }

func (v *Vector2Value[T]) Read(r *wire.Reader) error {
	x, err := v.io.read(r)
	if err != nil {
		return err
	}
	y, err := v.io.read(r)
	if err != nil {
		return err
	}
	v.x, v.y = x, y
	v.sx, v.sy = x, y
	return nil
}

func (v *Vector2Value[T]) Write(w *wire.Writer) error {
	v.io.write(w, v.x)
	v.io.write(w, v.y)
	return nil
}

func (v *Vector2Value[T]) UpdateValue(force bool) bool {
	if force || v.io.bits(v.x) != v.io.bits(v.sx) || v.io.bits(v.y) != v.io.bits(v.sy) {
		v.sx, v.sy = v.x, v.y
		return true
	}
	return false
}

type Vector3Value[T Float] struct {
	vt         protocol.ValueType
	x, y, z    T
	sx, sy, sz T
	io         floatIO[T]
}

func newVector3Value[T Float](vt protocol.ValueType, x, y, z T, io floatIO[T]) *Vector3Value[T] {
	return &Vector3Value[T]{vt: vt, x: x, y: y, z: z, sx: x, sy: y, sz: z, io: io}
}

func (v *Vector3Value[T]) Type() protocol.ValueType { return v.vt }
func (v *Vector3Value[T]) Get() (x, y, z T)         { return v.x, v.y, v.z }
func (v *Vector3Value[T]) Set(x, y, z T)            { v.x, v.y, v.z = x, y, z }

func (v *Vector3Value[T]) Read(r *wire.Reader) error {
	x, err := v.io.read(r)
	if err != nil {
		return err
	}
	y, err := v.io.read(r)
	if err != nil {
		return err
	}
	z, err := v.io.read(r)
	if err != nil {
		return err
	}
	v.x, v.y, v.z = x, y, z
	v.sx, v.sy, v.sz = x, y, z
	return nil
}

func (v *Vector3Value[T]) Write(w *wire.Writer) error {
	v.io.write(w, v.x)
	v.io.write(w, v.y)
	v.io.write(w, v.z)
	return nil
}

func (v *Vector3Value[T]) UpdateValue(force bool) bool {
	if force || v.io.bits(v.x) != v.io.bits(v.sx) || v.io.bits(v.y) != v.io.bits(v.sy) || v.io.bits(v.z) != v.io.bits(v.sz) {
		v.sx, v.sy, v.sz = v.x, v.y, v.z
		return true
	}
	return false
}

type QuaternionValue[T Float] struct {
	vt             protocol.ValueType
	x, y, z, q     T
	sx, sy, sz, sq T
	io             floatIO[T]
}

func newQuaternionValue[T Float](vt protocol.ValueType, x, y, z, q T, io floatIO[T]) *QuaternionValue[T] {
	return &QuaternionValue[T]{vt: vt, x: x, y: y, z: z, q: q, sx: x, sy: y, sz: z, sq: q, io: io}
}

func (v *QuaternionValue[T]) Type() protocol.ValueType { return v.vt }
func (v *QuaternionValue[T]) Get() (x, y, z, q T)      { return v.x, v.y, v.z, v.q }
func (v *QuaternionValue[T]) Set(x, y, z, q T)         { v.x, v.y, v.z, v.q = x, y, z, q }

func (v *QuaternionValue[T]) Read(r *wire.Reader) error {
	x, err := v.io.read(r)
	if err != nil {
		return err
	}
	y, err := v.io.read(r)
	if err != nil {
		return err
	}
	z, err := v.io.read(r)
	if err != nil {
		return err
	}
	q, err := v.io.read(r)
	if err != nil {
		return err
	}
	v.x, v.y, v.z, v.q = x, y, z, q
	v.sx, v.sy, v.sz, v.sq = x, y, z, q
	return nil
}

func (v *QuaternionValue[T]) Write(w *wire.Writer) error {
	v.io.write(w, v.x)
	v.io.write(w, v.y)
	v.io.write(w, v.z)
	v.io.write(w, v.q)
	return nil
}

func (v *QuaternionValue[T]) UpdateValue(force bool) bool {
	if force ||
		v.io.bits(v.x) != v.io.bits(v.sx) ||
		v.io.bits(v.y) != v.io.bits(v.sy) ||
		v.io.bits(v.z) != v.io.bits(v.sz) ||
		v.io.bits(v.q) != v.io.bits(v.sq) {
		v.sx, v.sy, v.sz, v.sq = v.x, v.y, v.z, v.q
		return true
	}
	return false
}

func NewVector2F16(x, y float32) *Vector2Value[float32] {
	return newVector2Value(protocol.ValueVector2Float16, x, y, float16IO)
}
func NewVector2F32(x, y float32) *Vector2Value[float32] {
	return newVector2Value(protocol.ValueVector2Float32, x, y, float32IO)
}
func NewVector2F64(x, y float64) *Vector2Value[float64] {
	return newVector2Value(protocol.ValueVector2Float64, x, y, float64IO)
}

func NewVector3F16(x, y, z float32) *Vector3Value[float32] {
	return newVector3Value(protocol.ValueVector3Float16, x, y, z, float16IO)
}
func NewVector3F32(x, y, z float32) *Vector3Value[float32] {
	return newVector3Value(protocol.ValueVector3Float32, x, y, z, float32IO)
}
func NewVector3F64(x, y, z float64) *Vector3Value[float64] {
	return newVector3Value(protocol.ValueVector3Float64, x, y, z, float64IO)
}

func NewQuaternionF16(x, y, z, q float32) *QuaternionValue[float32] {
	return newQuaternionValue(protocol.ValueQuaternionFloat16, x, y, z, q, float16IO)
}
func NewQuaternionF32(x, y, z, q float32) *QuaternionValue[float32] {
	return newQuaternionValue(protocol.ValueQuaternionFloat32, x, y, z, q, float32IO)
}
func NewQuaternionF64(x, y, z, q float64) *QuaternionValue[float64] {
	return newQuaternionValue(protocol.ValueQuaternionFloat64, x, y, z, q, float64IO)
}
