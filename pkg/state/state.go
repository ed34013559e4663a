// Package state implements the ordered list of synchronisable Values
// that a StateLink publishes across a connection.
package state

import (
	"github.com/pkg/errors"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/value"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// ErrStateLinked is returned by AddValue once the State has been
// attached to at least one StateLink: the schema is fixed the moment a
// wire exchange could already depend on its shape.
var ErrStateLinked = errors.New("state: cannot add value after linking")

// ErrReadOnly is returned by any local mutation path on a State marked
// read-only (one whose values only ever change via ApplyUpdate).
var ErrReadOnly = errors.New("state: read-only")

// DirtyMarker is the subset of StateLink's surface State needs to fan
// out InvalidateValue without importing the statelink package (which
// itself holds a reference back to a State).
type DirtyMarker interface {
	MarkDirty(index int)
}

// ChangeListener is invoked once per Value touched by ApplyUpdate, after
// the Value has already been read from the wire.
type ChangeListener func(index int, v value.Value)

// State is an ordered list of Values plus the read-only flag and
// attached-link set needed to fan out dirty notifications.
type State struct {
	values   []value.Value
	readOnly bool
	linked   bool
	links    []DirtyMarker
	onChange ChangeListener
}

// New creates an empty State. readOnly marks the *local* side's
// mutation rights: a read-only State only ever changes through
// ApplyUpdate, never through application code calling Value.Set.
func New(readOnly bool) *State {
	return &State{readOnly: readOnly}
}

func (s *State) ReadOnly() bool { return s.readOnly }

// SetChangeListener installs the callback ApplyUpdate fires after
// updating each named Value.
func (s *State) SetChangeListener(l ChangeListener) { s.onChange = l }

// AddValue appends v to the schema. Fails once the State has been
// attached to a StateLink — the schema negotiated over LINK_STATE must
// not change underneath an in-flight link.
func (s *State) AddValue(v value.Value) error {
	if s.linked {
		return ErrStateLinked
	}
	s.values = append(s.values, v)
	return nil
}

// Values returns the schema in index order. Callers must not mutate the
// returned slice.
func (s *State) Values() []value.Value { return s.values }

// IndexOf returns the index of v in the schema, or -1 if v is not a
// member of this State.
func (s *State) IndexOf(v value.Value) int {
	for i, existing := range s.values {
		if existing == v {
			return i
		}
	}
	return -1
}

// AttachLink registers l as an observer that receives MarkDirty calls
// whenever InvalidateValue runs, and freezes the schema for future
// AddValue calls.
func (s *State) AttachLink(l DirtyMarker) {
	s.linked = true
	s.links = append(s.links, l)
}

// DetachLink removes l from the observer set, e.g. on link teardown.
func (s *State) DetachLink(l DirtyMarker) {
	for i, existing := range s.links {
		if existing == l {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return
		}
	}
}

// InvalidateValue marks index dirty in every attached StateLink, so the
// owning Connection(s) know to emit a LINK_UPDATE carrying it. Returns
// ErrReadOnly on a read-only State.
func (s *State) InvalidateValue(index int) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if index < 0 || index >= len(s.values) {
		return errors.New("state: index out of range")
	}
	for _, l := range s.links {
		l.MarkDirty(index)
	}
	return nil
}

// ApplyUpdate reads a LINK_UPDATE body: a count followed by
// (index, encoded-value) pairs, in the order listed in the spec wire
// format; index order on the wire is ascending by convention but not
// required. Each Value is read in place and the change listener fires
// once per entry, in wire order.
func (s *State) ApplyUpdate(r *wire.Reader) error {
	count, err := r.ReadUshort()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		idx, err := r.ReadUshort()
		if err != nil {
			return err
		}
		if int(idx) >= len(s.values) {
			return errors.New("state: update references unknown index")
		}
		v := s.values[idx]
		if err := v.Read(r); err != nil {
			return err
		}
		if s.onChange != nil {
			s.onChange(int(idx), v)
		}
	}
	return nil
}

// WriteSchema emits the LINK_STATE value-schema: a length-prefixed list
// of (value-type-tag, initial-encoded-value) pairs in index order.
func (s *State) WriteSchema(w *wire.Writer) error {
	w.WriteUshort(uint16(len(s.values)))
	for _, v := range s.values {
		w.WriteByte(byte(v.Type()))
		if err := v.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// SchemaTags returns the ValueType tag sequence, used to compare a
// received schema against a locally constructed State's shape.
func (s *State) SchemaTags() []byte {
	tags := make([]byte, len(s.values))
	for i, v := range s.values {
		tags[i] = byte(v.Type())
	}
	return tags
}

// ReadSchema decodes a LINK_STATE value-schema into a fresh read-only
// State: a count followed by (tag, initial-encoded-value) pairs. The
// caller compares the returned State's SchemaTags against whatever its
// create_state callback produced before accepting the link.
func ReadSchema(r *wire.Reader) (*State, error) {
	count, err := r.ReadUshort()
	if err != nil {
		return nil, err
	}
	s := New(true)
	for i := uint16(0); i < count; i++ {
		tagByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		v, err := value.Zero(protocol.ValueType(tagByte))
		if err != nil {
			return nil, err
		}
		if err := v.Read(r); err != nil {
			return nil, err
		}
		if err := s.AddValue(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}
