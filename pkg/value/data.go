package value

import (
	"bytes"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// DataValue holds an opaque u16-length-prefixed byte blob. Change
// detection is bytes.Equal, not pointer/slice identity.
type DataValue struct {
	value  []byte
	synced []byte
}

func NewData(initial []byte) *DataValue {
	v := &DataValue{value: append([]byte(nil), initial...)}
	v.synced = append([]byte(nil), v.value...)
	return v
}

func (v *DataValue) Type() protocol.ValueType { return protocol.ValueData }
func (v *DataValue) Get() []byte              { return v.value }
func (v *DataValue) Set(b []byte)             { v.value = append([]byte(nil), b...) }

func (v *DataValue) Read(r *wire.Reader) error {
	b, err := r.ReadData()
	if err != nil {
		return err
	}
	v.value = b
	v.synced = append([]byte(nil), b...)
	return nil
}

func (v *DataValue) Write(w *wire.Writer) error {
	return w.WriteData(v.value)
}

func (v *DataValue) UpdateValue(force bool) bool {
	if force || !bytes.Equal(v.value, v.synced) {
		v.synced = append([]byte(nil), v.value...)
		return true
	}
	return false
}
