// Package wire implements the little-endian primitive and composite codec
// DENetwork uses on the byte stream: an append/consume cursor pair over a
// length-prefixed-string, little-endian wire form.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// ErrInvalidMessage is returned by any Writer/Reader operation that would
// overflow its length prefix or underflow the remaining buffer.
var ErrInvalidMessage = errors.New("invalid message")

// Writer is an append-only cursor over a growing byte buffer. It has no
// relationship to a Message's capacity; callers that want Message semantics
// use message.Writer (pkg/message), which wraps this type.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer starting from an empty (or caller-supplied)
// backing buffer.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) WriteChar(v int8)  { w.buf = append(w.buf, byte(v)) }
func (w *Writer) WriteByte(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteShort(v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUshort(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteLong(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUlong(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteFloat16(v float32) {
	w.WriteUshort(uint16(float16.Fromfloat32(v)))
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.WriteUlong(math.Float64bits(v))
}

// WriteString8 writes a u8-length-prefixed UTF-8 string. Returns
// ErrInvalidMessage if the encoded form exceeds 255 bytes.
func (w *Writer) WriteString8(s string) error {
	b := []byte(s)
	if len(b) > math.MaxUint8 {
		return errors.Wrap(ErrInvalidMessage, "string8 too long")
	}
	w.WriteByte(uint8(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// WriteString16 writes a u16-length-prefixed UTF-8 string. Returns
// ErrInvalidMessage if the encoded form exceeds 65535 bytes.
func (w *Writer) WriteString16(s string) error {
	b := []byte(s)
	if len(b) > math.MaxUint16 {
		return errors.Wrap(ErrInvalidMessage, "string16 too long")
	}
	w.WriteUshort(uint16(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// WriteData writes a u16-length-prefixed opaque byte blob.
func (w *Writer) WriteData(data []byte) error {
	if len(data) > math.MaxUint16 {
		return errors.Wrap(ErrInvalidMessage, "data blob too long")
	}
	w.WriteUshort(uint16(len(data)))
	w.buf = append(w.buf, data...)
	return nil
}

func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) WritePoint2(x, y int32) {
	w.WriteInt(x)
	w.WriteInt(y)
}

func (w *Writer) WritePoint3(x, y, z int32) {
	w.WriteInt(x)
	w.WriteInt(y)
	w.WriteInt(z)
}

func (w *Writer) WriteVector2(x, y float32) {
	w.WriteFloat32(x)
	w.WriteFloat32(y)
}

func (w *Writer) WriteVector3(x, y, z float32) {
	w.WriteFloat32(x)
	w.WriteFloat32(y)
	w.WriteFloat32(z)
}

func (w *Writer) WriteQuaternion(x, y, z, q float32) {
	w.WriteFloat32(x)
	w.WriteFloat32(y)
	w.WriteFloat32(z)
	w.WriteFloat32(q)
}

// WriteDVector writes the 3x float64 double-precision vector variant.
func (w *Writer) WriteDVector(x, y, z float64) {
	w.WriteFloat64(x)
	w.WriteFloat64(y)
	w.WriteFloat64(z)
}
