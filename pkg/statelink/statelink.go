// Package statelink implements the per-connection StateLink: the
// lifecycle state machine and dirty bitmap binding one Connection's
// wire traffic to one local state.State.
package statelink

import (
	"sort"
	"sync"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Status is the StateLink lifecycle position.
type Status int

const (
	Down Status = iota
	Listening
	Up
)

func (s Status) String() string {
	switch s {
	case Down:
		return "down"
	case Listening:
		return "listening"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// StateLink binds one linkId to a local state.State and tracks which of
// its value indices changed locally since the last LINK_UPDATE was sent.
// It implements state.DirtyMarker so State.InvalidateValue can reach it
// without state importing this package.
type StateLink struct {
	mu       sync.Mutex
	id       uint16
	status   Status
	local    *state.State
	readOnly bool
	dirty    map[int]bool
}

// New creates a StateLink for linkId bound to local, starting Down.
// readOnly mirrors local.ReadOnly(): a read-only link never originates
// a LINK_UPDATE of its own, only receives them.
func New(id uint16, local *state.State) *StateLink {
	l := &StateLink{id: id, local: local, readOnly: local.ReadOnly(), dirty: map[int]bool{}}
	local.AttachLink(l)
	return l
}

func (l *StateLink) ID() uint16          { return l.id }
func (l *StateLink) State() *state.State { return l.local }
func (l *StateLink) ReadOnly() bool      { return l.readOnly }

func (l *StateLink) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *StateLink) SetListening() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = Listening
}

func (l *StateLink) SetUp() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = Up
}

// SetDown transitions to Down and detaches from the local State; the
// StateLink is no longer usable afterward.
func (l *StateLink) SetDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == Down {
		return
	}
	l.status = Down
	l.local.DetachLink(l)
	l.dirty = map[int]bool{}
}

// MarkDirty records that value index changed locally and has not yet
// been emitted in a LINK_UPDATE.
func (l *StateLink) MarkDirty(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readOnly {
		// A local mutation path reaching a read-only link is a
		// programmer error; InvalidateValue should never be called on
		// values owned by a read-only State, so this is ignored rather
		// than panicking mid-dispatch.
		return
	}
	l.dirty[index] = true
}

// HasDirty reports whether any index is pending emission.
func (l *StateLink) HasDirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dirty) > 0
}

// WriteUpdate emits the LINK_UPDATE body (link-id, dirty-count,
// [(index, encoded-value)]) for every pending index, in ascending
// index order, then clears the bitmap. Returns false without writing
// if nothing is dirty.
func (l *StateLink) WriteUpdate(w *wire.Writer) (bool, error) {
	wrote, _, err := l.WriteUpdateChunk(w, 0)
	return wrote, err
}

// WriteUpdateChunk emits at most maxIndices pending (index, value)
// pairs, removing only those from the dirty set, and reports whether
// indices are still pending afterward. maxIndices <= 0 means no limit.
// An oversized dirty set can't be fragmented like RELIABLE_MESSAGE_LONG,
// since a later chunk may race a concurrent local mutation; each chunk
// is instead a self-contained, idempotent update. The caller is expected
// to queue the returned bytes onto the reliable outbox exactly once and
// let seq/ack/retransmit take it from there — calling this again before
// that frame is acked would silently drop the indices it already cleared.
func (l *StateLink) WriteUpdateChunk(w *wire.Writer, maxIndices int) (wrote bool, more bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.dirty) == 0 {
		return false, false, nil
	}

	indices := make([]int, 0, len(l.dirty))
	for idx := range l.dirty {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	if maxIndices > 0 && len(indices) > maxIndices {
		more = true
		indices = indices[:maxIndices]
	}

	w.WriteUshort(l.id)
	w.WriteUshort(uint16(len(indices)))
	values := l.local.Values()
	for _, idx := range indices {
		w.WriteUshort(uint16(idx))
		if err := values[idx].Write(w); err != nil {
			return false, false, err
		}
		delete(l.dirty, idx)
	}
	return true, more, nil
}

// SchemaMatches compares this link's local schema against a received
// tag sequence (e.g. from a remote LINK_STATE). Equal length and
// identical tag-by-tag is the only acceptance criterion; a mismatch
// means the connection must tear the link down with MismatchedSchema.
func (l *StateLink) SchemaMatches(remoteTags []byte) bool {
	local := l.local.SchemaTags()
	if len(local) != len(remoteTags) {
		return false
	}
	for i := range local {
		if local[i] != remoteTags[i] {
			return false
		}
	}
	return true
}

// DownReasonForMismatch is a small convenience so callers building a
// LINK_DOWN frame don't need to import protocol just for this constant.
func DownReasonForMismatch() protocol.LinkDownReason {
	return protocol.LinkDownMismatchedSchema
}
