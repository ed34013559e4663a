package value

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

type intIO[T Integer] struct {
	read  func(*wire.Reader) (T, error)
	write func(*wire.Writer, T)
}

// Point2Value and Point3Value reuse the same per-width component
// read/write pair as IntValue so a Point2<Sint32> and a bare Sint32
// differ only in arity, never in per-component encoding.
type Point2Value[T Integer] struct {
	vt     protocol.ValueType
	x, y   T
	sx, sy T
	io     intIO[T]
}

func newPoint2Value[T Integer](vt protocol.ValueType, x, y T, io intIO[T]) *Point2Value[T] {
	return &Point2Value[T]{vt: vt, x: x, y: y, sx: x, sy: y, io: io}
}

func (v *Point2Value[T]) Type() protocol.ValueType { return v.vt }
func (v *Point2Value[T]) Get() (x, y T)            { return v.x, v.y }
func (v *Point2Value[T]) Set(x, y T)               { v.x, v.y = x, y }

func (v *Point2Value[T]) Read(r *wire.Reader) error {
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

func (v *Point2Value[T]) Write(w *wire.Writer) error {
	v.io.write(w, v.x)
	v.io.write(w, v.y)
	return nil
}

func (v *Point2Value[T]) UpdateValue(force bool) bool {
	if force || v.x != v.sx || v.y != v.sy {
		v.sx, v.sy = v.x, v.y
		return true
	}
	return false
}

type Point3Value[T Integer] struct {
	vt         protocol.ValueType
	x, y, z    T
	sx, sy, sz T
	io         intIO[T]
}

func newPoint3Value[T Integer](vt protocol.ValueType, x, y, z T, io intIO[T]) *Point3Value[T] {
	return &Point3Value[T]{vt: vt, x: x, y: y, z: z, sx: x, sy: y, sz: z, io: io}
}

func (v *Point3Value[T]) Type() protocol.ValueType { return v.vt }
func (v *Point3Value[T]) Get() (x, y, z T)         { return v.x, v.y, v.z }
func (v *Point3Value[T]) Set(x, y, z T)            { v.x, v.y, v.z = x, y, z }

func (v *Point3Value[T]) Read(r *wire.Reader) error {
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

func (v *Point3Value[T]) Write(w *wire.Writer) error {
	v.io.write(w, v.x)
	v.io.write(w, v.y)
	v.io.write(w, v.z)
	return nil
}

func (v *Point3Value[T]) UpdateValue(force bool) bool {
	if force || v.x != v.sx || v.y != v.sy || v.z != v.sz {
		v.sx, v.sy, v.sz = v.x, v.y, v.z
		return true
	}
	return false
}

var sint8IO = intIO[int8]{
	read:  func(r *wire.Reader) (int8, error) { return r.ReadChar() },
	write: func(w *wire.Writer, v int8) { w.WriteChar(v) },
}
var uint8IO = intIO[uint8]{
	read:  func(r *wire.Reader) (uint8, error) { return r.ReadByte() },
	write: func(w *wire.Writer, v uint8) { w.WriteByte(v) },
}
var sint16IO = intIO[int16]{
	read:  func(r *wire.Reader) (int16, error) { return r.ReadShort() },
	write: func(w *wire.Writer, v int16) { w.WriteShort(v) },
}
var uint16IO = intIO[uint16]{
	read:  func(r *wire.Reader) (uint16, error) { return r.ReadUshort() },
	write: func(w *wire.Writer, v uint16) { w.WriteUshort(v) },
}
var sint32IO = intIO[int32]{
	read:  func(r *wire.Reader) (int32, error) { return r.ReadInt() },
	write: func(w *wire.Writer, v int32) { w.WriteInt(v) },
}
var uint32IO = intIO[uint32]{
	read:  func(r *wire.Reader) (uint32, error) { return r.ReadUint() },
	write: func(w *wire.Writer, v uint32) { w.WriteUint(v) },
}
var sint64IO = intIO[int64]{
	read:  func(r *wire.Reader) (int64, error) { return r.ReadLong() },
	write: func(w *wire.Writer, v int64) { w.WriteLong(v) },
}
var uint64IO = intIO[uint64]{
	read:  func(r *wire.Reader) (uint64, error) { return r.ReadUlong() },
	write: func(w *wire.Writer, v uint64) { w.WriteUlong(v) },
}

func NewPoint2Sint8(x, y int8) *Point2Value[int8] {
	return newPoint2Value(protocol.ValuePoint2Sint8, x, y, sint8IO)
}
func NewPoint2Uint8(x, y uint8) *Point2Value[uint8] {
	return newPoint2Value(protocol.ValuePoint2Uint8, x, y, uint8IO)
}
func NewPoint2Sint16(x, y int16) *Point2Value[int16] {
	return newPoint2Value(protocol.ValuePoint2Sint16, x, y, sint16IO)
}
func NewPoint2Uint16(x, y uint16) *Point2Value[uint16] {
	return newPoint2Value(protocol.ValuePoint2Uint16, x, y, uint16IO)
}
func NewPoint2Sint32(x, y int32) *Point2Value[int32] {
	return newPoint2Value(protocol.ValuePoint2Sint32, x, y, sint32IO)
}
func NewPoint2Uint32(x, y uint32) *Point2Value[uint32] {
	return newPoint2Value(protocol.ValuePoint2Uint32, x, y, uint32IO)
}
func NewPoint2Sint64(x, y int64) *Point2Value[int64] {
	return newPoint2Value(protocol.ValuePoint2Sint64, x, y, sint64IO)
}
func NewPoint2Uint64(x, y uint64) *Point2Value[uint64] {
	return newPoint2Value(protocol.ValuePoint2Uint64, x, y, uint64IO)
}

func NewPoint3Sint8(x, y, z int8) *Point3Value[int8] {
	return newPoint3Value(protocol.ValuePoint3Sint8, x, y, z, sint8IO)
}
func NewPoint3Uint8(x, y, z uint8) *Point3Value[uint8] {
	return newPoint3Value(protocol.ValuePoint3Uint8, x, y, z, uint8IO)
}
func NewPoint3Sint16(x, y, z int16) *Point3Value[int16] {
	return newPoint3Value(protocol.ValuePoint3Sint16, x, y, z, sint16IO)
}
func NewPoint3Uint16(x, y, z uint16) *Point3Value[uint16] {
	return newPoint3Value(protocol.ValuePoint3Uint16, x, y, z, uint16IO)
}
func NewPoint3Sint32(x, y, z int32) *Point3Value[int32] {
	return newPoint3Value(protocol.ValuePoint3Sint32, x, y, z, sint32IO)
}
func NewPoint3Uint32(x, y, z uint32) *Point3Value[uint32] {
	return newPoint3Value(protocol.ValuePoint3Uint32, x, y, z, uint32IO)
}
func NewPoint3Sint64(x, y, z int64) *Point3Value[int64] {
	return newPoint3Value(protocol.ValuePoint3Sint64, x, y, z, sint64IO)
}
func NewPoint3Uint64(x, y, z uint64) *Point3Value[uint64] {
	return newPoint3Value(protocol.ValuePoint3Uint64, x, y, z, uint64IO)
}
