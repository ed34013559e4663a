package value

import (
	"fmt"

	"github.com/dragonlace/denetwork/pkg/protocol"
)

// Zero constructs a zero-valued Value for the given wire tag. It is used
// to decode a LINK_STATE schema's (tag, initial-value) pairs into
// concrete Values before Read fills in their content.
func Zero(t protocol.ValueType) (Value, error) {
	switch t {
	case protocol.ValueSint8:
		return NewSint8(0), nil
	case protocol.ValueUint8:
		return NewUint8(0), nil
	case protocol.ValueSint16:
		return NewSint16(0), nil
	case protocol.ValueUint16:
		return NewUint16(0), nil
	case protocol.ValueSint32:
		return NewSint32(0), nil
	case protocol.ValueUint32:
		return NewUint32(0), nil
	case protocol.ValueSint64:
		return NewSint64(0), nil
	case protocol.ValueUint64:
		return NewUint64(0), nil
	case protocol.ValueFloat16:
		return NewFloat16(0), nil
	case protocol.ValueFloat32:
		return NewFloat32(0), nil
	case protocol.ValueFloat64:
		return NewFloat64(0), nil
	case protocol.ValueString:
		return NewString(""), nil
	case protocol.ValueData:
		return NewData(nil), nil

	case protocol.ValuePoint2Sint8:
		return NewPoint2Sint8(0, 0), nil
	case protocol.ValuePoint2Uint8:
		return NewPoint2Uint8(0, 0), nil
	case protocol.ValuePoint2Sint16:
		return NewPoint2Sint16(0, 0), nil
	case protocol.ValuePoint2Uint16:
		return NewPoint2Uint16(0, 0), nil
	case protocol.ValuePoint2Sint32:
		return NewPoint2Sint32(0, 0), nil
	case protocol.ValuePoint2Uint32:
		return NewPoint2Uint32(0, 0), nil
	case protocol.ValuePoint2Sint64:
		return NewPoint2Sint64(0, 0), nil
	case protocol.ValuePoint2Uint64:
		return NewPoint2Uint64(0, 0), nil

	case protocol.ValuePoint3Sint8:
		return NewPoint3Sint8(0, 0, 0), nil
	case protocol.ValuePoint3Uint8:
		return NewPoint3Uint8(0, 0, 0), nil
	case protocol.ValuePoint3Sint16:
		return NewPoint3Sint16(0, 0, 0), nil
	case protocol.ValuePoint3Uint16:
		return NewPoint3Uint16(0, 0, 0), nil
	case protocol.ValuePoint3Sint32:
		return NewPoint3Sint32(0, 0, 0), nil
	case protocol.ValuePoint3Uint32:
		return NewPoint3Uint32(0, 0, 0), nil
	case protocol.ValuePoint3Sint64:
		return NewPoint3Sint64(0, 0, 0), nil
	case protocol.ValuePoint3Uint64:
		return NewPoint3Uint64(0, 0, 0), nil

	case protocol.ValueVector2Float16:
		return NewVector2F16(0, 0), nil
	case protocol.ValueVector2Float32:
		return NewVector2F32(0, 0), nil
	case protocol.ValueVector2Float64:
		return NewVector2F64(0, 0), nil

	case protocol.ValueVector3Float16:
		return NewVector3F16(0, 0, 0), nil
	case protocol.ValueVector3Float32:
		return NewVector3F32(0, 0, 0), nil
	case protocol.ValueVector3Float64:
		return NewVector3F64(0, 0, 0), nil

	case protocol.ValueQuaternionFloat16:
		return NewQuaternionF16(0, 0, 0, 0), nil
	case protocol.ValueQuaternionFloat32:
		return NewQuaternionF32(0, 0, 0, 0), nil
	case protocol.ValueQuaternionFloat64:
		return NewQuaternionF64(0, 0, 0, 0), nil

	default:
		return nil, fmt.Errorf("value: unknown value type tag %d", t)
	}
}
