package wire

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Reader is a consuming cursor over a byte slice. Every Read* method
// fails with ErrInvalidMessage on underflow.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errors.Wrap(ErrInvalidMessage, "buffer underflow")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadChar() (int8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadShort() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (r *Reader) ReadUshort() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) ReadUint() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadLong() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *Reader) ReadUlong() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFloat16() (float32, error) {
	u, err := r.ReadUshort()
	if err != nil {
		return 0, err
	}
	return float16.Float16(u).Float32(), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	u, err := r.ReadUint()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	u, err := r.ReadUlong()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *Reader) ReadString8() (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadString16() (string, error) {
	n, err := r.ReadUshort()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadData() ([]byte, error) {
	n, err := r.ReadUshort()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadPoint2() (x, y int32, err error) {
	if x, err = r.ReadInt(); err != nil {
		return
	}
	y, err = r.ReadInt()
	return
}

func (r *Reader) ReadPoint3() (x, y, z int32, err error) {
	if x, err = r.ReadInt(); err != nil {
		return
	}
	if y, err = r.ReadInt(); err != nil {
		return
	}
	z, err = r.ReadInt()
	return
}

func (r *Reader) ReadVector2() (x, y float32, err error) {
	if x, err = r.ReadFloat32(); err != nil {
		return
	}
	y, err = r.ReadFloat32()
	return
}

func (r *Reader) ReadVector3() (x, y, z float32, err error) {
	if x, err = r.ReadFloat32(); err != nil {
		return
	}
	if y, err = r.ReadFloat32(); err != nil {
		return
	}
	z, err = r.ReadFloat32()
	return
}

func (r *Reader) ReadQuaternion() (x, y, z, q float32, err error) {
	if x, err = r.ReadFloat32(); err != nil {
		return
	}
	if y, err = r.ReadFloat32(); err != nil {
		return
	}
	if z, err = r.ReadFloat32(); err != nil {
		return
	}
	q, err = r.ReadFloat32()
	return
}

func (r *Reader) ReadDVector() (x, y, z float64, err error) {
	if x, err = r.ReadFloat64(); err != nil {
		return
	}
	if y, err = r.ReadFloat64(); err != nil {
		return
	}
	z, err = r.ReadFloat64()
	return
}
