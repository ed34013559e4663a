package value

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Integer is the constraint satisfied by every width+signedness
// DENetwork synchronises: SINT8, UINT8, ... UINT64.
type Integer interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// IntValue is the single generic implementation backing all eight
// integer ValueTypes; each width gets its own constructor below wiring
// the matching wire.Reader/Writer method pair. Equality for change
// detection is native Go `!=`, which for integers is always exact.
type IntValue[T Integer] struct {
	vt     protocol.ValueType
	value  T
	synced T
	read   func(r *wire.Reader) (T, error)
	write  func(w *wire.Writer, v T)
}

func newIntValue[T Integer](vt protocol.ValueType, initial T, read func(*wire.Reader) (T, error), write func(*wire.Writer, T)) *IntValue[T] {
	return &IntValue[T]{vt: vt, value: initial, synced: initial, read: read, write: write}
}

func (v *IntValue[T]) Type() protocol.ValueType { return v.vt }
func (v *IntValue[T]) Get() T                   { return v.value }
func (v *IntValue[T]) Set(x T)                  { v.value = x }

func (v *IntValue[T]) Read(r *wire.Reader) error {
	x, err := v.read(r)
	if err != nil {
		return err
	}
	v.value = x
	v.synced = x
	return nil
}

func (v *IntValue[T]) Write(w *wire.Writer) error {
	v.write(w, v.value)
	return nil
}

func (v *IntValue[T]) UpdateValue(force bool) bool {
	if force || v.value != v.synced {
		v.synced = v.value
		return true
	}
	return false
}

func NewSint8(initial int8) *IntValue[int8] {
	return newIntValue(protocol.ValueSint8, initial,
		func(r *wire.Reader) (int8, error) { return r.ReadChar() },
		func(w *wire.Writer, v int8) { w.WriteChar(v) })
}

func NewUint8(initial uint8) *IntValue[uint8] {
	return newIntValue(protocol.ValueUint8, initial,
		func(r *wire.Reader) (uint8, error) { return r.ReadByte() },
		func(w *wire.Writer, v uint8) { w.WriteByte(v) })
}

func NewSint16(initial int16) *IntValue[int16] {
	return newIntValue(protocol.ValueSint16, initial,
		func(r *wire.Reader) (int16, error) { return r.ReadShort() },
		func(w *wire.Writer, v int16) { w.WriteShort(v) })
}

func NewUint16(initial uint16) *IntValue[uint16] {
	return newIntValue(protocol.ValueUint16, initial,
		func(r *wire.Reader) (uint16, error) { return r.ReadUshort() },
		func(w *wire.Writer, v uint16) { w.WriteUshort(v) })
}

func NewSint32(initial int32) *IntValue[int32] {
	return newIntValue(protocol.ValueSint32, initial,
		func(r *wire.Reader) (int32, error) { return r.ReadInt() },
		func(w *wire.Writer, v int32) { w.WriteInt(v) })
}

func NewUint32(initial uint32) *IntValue[uint32] {
	return newIntValue(protocol.ValueUint32, initial,
		func(r *wire.Reader) (uint32, error) { return r.ReadUint() },
		func(w *wire.Writer, v uint32) { w.WriteUint(v) })
}

func NewSint64(initial int64) *IntValue[int64] {
	return newIntValue(protocol.ValueSint64, initial,
		func(r *wire.Reader) (int64, error) { return r.ReadLong() },
		func(w *wire.Writer, v int64) { w.WriteLong(v) })
}

func NewUint64(initial uint64) *IntValue[uint64] {
	return newIntValue(protocol.ValueUint64, initial,
		func(r *wire.Reader) (uint64, error) { return r.ReadUlong() },
		func(w *wire.Writer, v uint64) { w.WriteUlong(v) })
}
