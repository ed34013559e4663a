// Package value implements the typed synchronisable cell: every
// wire-visible value type keeps a last-synchronised snapshot next to its
// current content so UpdateValue can report what changed without
// re-deriving it from the wire. State/StateLink do not call UpdateValue;
// their dirty bits are set by State.InvalidateValue. Dispatch is by a small method-table per
// ValueType rather than a class hierarchy, keeping every concrete value
// type a flat struct with no inheritance.
package value

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Value is the capability set every synchronisable cell implements:
// serialize, deserialize, detect-change. The StateLink owns the
// per-value dirty bit; Value itself only reports whether it changed
// since the last time it was told to update its snapshot.
type Value interface {
	// Type identifies the wire tag this value encodes/decodes as.
	Type() protocol.ValueType

	// Read replaces the current value from r and resets the
	// synchronised snapshot to match.
	Read(r *wire.Reader) error

	// Write emits the current value to w. It does not touch the
	// snapshot — only UpdateValue does that.
	Write(w *wire.Writer) error

	// UpdateValue reports whether the value changed since the last
	// synchronised snapshot (or unconditionally if force is true) and,
	// when it reports true, advances the snapshot to the current
	// value.
	UpdateValue(force bool) bool
}
