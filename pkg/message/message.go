// Package message implements the Message buffer: a byte buffer with a
// logical length distinct from capacity, a last-mutation timestamp, and
// Writer/Reader scopes that flush back to the buffer on exit. It is a
// reusable datagram container rather than a one-shot cursor.
package message

import (
	"time"

	"github.com/dragonlace/denetwork/pkg/wire"
)

// Message is the unit of transport: a resizable byte buffer plus a logical
// length (which may be less than cap(data)) and the UTC time it was last
// mutated.
type Message struct {
	data      []byte
	length    int
	timestamp time.Time
}

// New creates an empty Message.
func New() *Message {
	return &Message{timestamp: time.Now().UTC()}
}

// NewFromBytes creates a Message whose logical content is a copy of b.
func NewFromBytes(b []byte) *Message {
	m := &Message{
		data:      append([]byte(nil), b...),
		length:    len(b),
		timestamp: time.Now().UTC(),
	}
	return m
}

// Length is the logical length; reads never go past it even if the
// backing array is larger.
func (m *Message) Length() int { return m.length }

// Timestamp is the UTC time of the last Resize/Writer-scope mutation.
func (m *Message) Timestamp() time.Time { return m.timestamp }

// Bytes returns the logical content (length-bounded, not the full
// capacity). The returned slice aliases the Message's storage.
func (m *Message) Bytes() []byte { return m.data[:m.length] }

// Resize sets the logical length to n, growing the backing array if
// needed. Growth does not preserve content — a Resize that grows
// capacity always gives back zeroed bytes beyond the old length, and a
// Resize that only changes the logical length within the existing
// capacity leaves old bytes as garbage from the caller's point of view
// (they must Write before Read).
func (m *Message) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n > cap(m.data) {
		grown := make([]byte, n)
		m.data = grown
	} else if n > len(m.data) {
		m.data = m.data[:cap(m.data)]
	}
	m.length = n
	m.timestamp = time.Now().UTC()
}

// Writer is a scope guaranteeing that the Message's content reflects
// everything written once the scope is closed.
type Writer struct {
	msg *Message
	w   *wire.Writer
}

// NewWriter opens a write scope over msg. The Message's previous content
// is discarded; the next Close replaces it with whatever was written
// through the returned Writer. Nothing is flushed until Close is called.
func NewWriter(msg *Message) *Writer {
	return &Writer{msg: msg, w: wire.NewWriter(nil)}
}

func (mw *Writer) W() *wire.Writer { return mw.w }

// Close flushes the writer's buffer back into the Message and stamps the
// mutation time. Safe to call multiple times; only the first call has an
// effect beyond re-flushing the same bytes.
func (mw *Writer) Close() {
	mw.msg.data = mw.w.Bytes()
	mw.msg.length = len(mw.msg.data)
	mw.msg.timestamp = time.Now().UTC()
}

// Reader is a read-only scope over a Message's current logical content.
// Concurrent readers/writers over the same Message are the caller's
// responsibility to serialize; this type does not detect the race.
type Reader struct {
	r *wire.Reader
}

func NewReader(msg *Message) *Reader {
	return &Reader{r: wire.NewReader(msg.Bytes())}
}

func (mr *Reader) R() *wire.Reader { return mr.r }
