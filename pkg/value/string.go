package value

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// StringValue holds a u16-length-prefixed UTF-8 string. Change detection
// is native string equality.
type StringValue struct {
	value  string
	synced string
}

func NewString(initial string) *StringValue {
	return &StringValue{value: initial, synced: initial}
}

func (v *StringValue) Type() protocol.ValueType { return protocol.ValueString }
func (v *StringValue) Get() string              { return v.value }
func (v *StringValue) Set(s string)             { v.value = s }

func (v *StringValue) Read(r *wire.Reader) error {
	s, err := r.ReadString16()
	if err != nil {
		return err
	}
	v.value = s
	v.synced = s
	return nil
}

func (v *StringValue) Write(w *wire.Writer) error {
	return w.WriteString16(v.value)
}

func (v *StringValue) UpdateValue(force bool) bool {
	if force || v.value != v.synced {
		v.synced = v.value
		return true
	}
	return false
}
