package connection

import (
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/statelink"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// PublishState initiates a link: it allocates a link-id, sends
// RELIABLE_LINK_STATE{id, readOnlyToRemote, schema, identify} through
// the reliable channel, and returns the local-side StateLink, which
// starts Listening until the remote answers with LINK_UP or LINK_DOWN.
func (c *Connection) PublishState(local *state.State, readOnlyToRemote bool, identify []byte) (*statelink.StateLink, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextLinkID
	c.nextLinkID++
	link := statelink.New(id, local)
	link.SetListening()
	c.links[id] = link

	seq := c.nextSend
	c.nextSend++

	render := func(seq uint16) []byte {
		w := wire.NewWriter([]byte{byte(protocol.CommandReliableLinkState)})
		w.WriteUshort(seq)
		w.WriteUshort(id)
		if readOnlyToRemote {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		local.WriteSchema(w)
		w.WriteData(identify)
		return w.Bytes()
	}

	c.outbox = append(c.outbox, &pendingReliable{seq: seq, render: render})
	c.pumpSendWindowLocked()
	return link, nil
}

func (c *Connection) handleReliableLinkStateLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	linkID, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	readOnlyByte, err := r.ReadByte()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	remoteSchema, err := state.ReadSchema(r)
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	identify, err := r.ReadData()
	if err != nil {
		c.invalidMessageLocked()
		return
	}

	c.sendReliableAckLocked(seq, protocol.ReliableAckSuccess)

	createState := c.callbacks.CreateState
	c.mu.Unlock()
	var local *state.State
	var cbErr error
	if createState != nil {
		local, cbErr = createState(identify, readOnlyByte != 0)
	}
	c.mu.Lock()

	if cbErr != nil || local == nil {
		c.sendLinkDownLocked(linkID, protocol.LinkDownRejected)
		return
	}
	if !schemaTagsEqual(local.SchemaTags(), remoteSchema.SchemaTags()) {
		c.sendLinkDownLocked(linkID, protocol.LinkDownMismatchedSchema)
		return
	}

	link := statelink.New(linkID, local)
	link.SetUp()
	c.links[linkID] = link
	c.sendLinkUpLocked(linkID)

	established := c.callbacks.LinkEstablished
	c.mu.Unlock()
	if established != nil {
		established(link)
	}
	c.mu.Lock()
}

func schemaTagsEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sendLinkUpLocked queues LINK_UP{seq, id} onto the reliable outbox
// instead of firing it straight at the socket: a dropped LINK_UP used to
// strand the initiator's StateLink in Listening forever, with nothing to
// notice the loss or retry it.
func (c *Connection) sendLinkUpLocked(id uint16) {
	seq := c.nextSend
	c.nextSend++
	render := func(seq uint16) []byte {
		w := wire.NewWriter([]byte{byte(protocol.CommandLinkUp)})
		w.WriteUshort(seq)
		w.WriteUshort(id)
		return w.Bytes()
	}
	c.outbox = append(c.outbox, &pendingReliable{seq: seq, render: render})
	c.pumpSendWindowLocked()
}

// sendLinkDownLocked queues LINK_DOWN{seq, id, reason} onto the reliable
// outbox for the same reason sendLinkUpLocked does.
func (c *Connection) sendLinkDownLocked(id uint16, reason protocol.LinkDownReason) {
	seq := c.nextSend
	c.nextSend++
	render := func(seq uint16) []byte {
		w := wire.NewWriter([]byte{byte(protocol.CommandLinkDown)})
		w.WriteUshort(seq)
		w.WriteUshort(id)
		w.WriteByte(byte(reason))
		return w.Bytes()
	}
	c.outbox = append(c.outbox, &pendingReliable{seq: seq, render: render})
	c.pumpSendWindowLocked()
}

func (c *Connection) handleLinkUpLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		return
	}
	id, err := r.ReadUshort()
	if err != nil {
		return
	}
	c.sendReliableAckLocked(seq, protocol.ReliableAckSuccess)

	link, ok := c.links[id]
	if !ok || link.Status() == statelink.Up {
		// Unknown link, or a retransmit of a LINK_UP already applied
		// before our first ack made it back: the ack above is all the
		// sender needed, nothing else should fire twice.
		return
	}
	link.SetUp()
	established := c.callbacks.LinkEstablished
	c.mu.Unlock()
	if established != nil {
		established(link)
	}
	c.mu.Lock()
}

func (c *Connection) handleLinkDownLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		return
	}
	id, err := r.ReadUshort()
	if err != nil {
		return
	}
	reasonByte, err := r.ReadByte()
	reason := protocol.LinkDownRequested
	if err == nil {
		reason = protocol.LinkDownReason(reasonByte)
	}
	c.sendReliableAckLocked(seq, protocol.ReliableAckSuccess)

	link, ok := c.links[id]
	if ok {
		link.SetDown()
		delete(c.links, id)
	}
	delete(c.lastAppliedUpdateSeq, id)
	if !ok {
		// Already torn down by an earlier delivery of this same
		// retransmitted frame.
		return
	}
	cb := c.callbacks.LinkDown
	c.mu.Unlock()
	if cb != nil {
		cb(id, reason)
	}
	c.mu.Lock()
}

func (c *Connection) handleLinkUpdateLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	id, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	c.sendReliableAckLocked(seq, protocol.ReliableAckSuccess)

	link, ok := c.links[id]
	if !ok {
		c.sendLinkDownLocked(id, protocol.LinkDownUnknownLink)
		return
	}
	if last, seen := c.lastAppliedUpdateSeq[id]; seen && !seqLess(last, seq) {
		// A retransmit of a LINK_UPDATE already applied: the ack above is
		// what the sender needed, applying the values again would risk
		// firing remote_value_changed for no real change.
		return
	}
	c.lastAppliedUpdateSeq[id] = seq
	st := link.State()
	c.mu.Unlock()
	err = st.ApplyUpdate(r)
	c.mu.Lock()
	if err != nil {
		c.invalidMessageLocked()
	}
}

// maxUpdateIndicesPerFrame bounds how many dirty (index, value) pairs a
// single LINK_UPDATE carries. The bound is a count only: the encoded size
// of a chunk is not checked against maxFramePayload, and a chunk is never
// split into RELIABLE_MESSAGE_LONG parts, so wide values (long strings,
// data blobs, 64-bit vectors) can produce a frame larger than that budget.
const maxUpdateIndicesPerFrame = 64

// flushDirtyLinksLocked emits LINK_UPDATE frames for every Up,
// non-read-only link with pending dirty bits, chunking oversized updates
// across multiple frames and queuing each one onto the reliable outbox
// so a dropped update gets retransmitted instead of silently lost.
// Called once per Update tick.
func (c *Connection) flushDirtyLinksLocked() {
	for _, link := range c.links {
		if link.Status() != statelink.Up || link.ReadOnly() || !link.HasDirty() {
			continue
		}
		for {
			body := wire.NewWriter(nil)
			wrote, more, err := link.WriteUpdateChunk(body, maxUpdateIndicesPerFrame)
			if err != nil || !wrote {
				break
			}
			payload := body.Bytes()

			seq := c.nextSend
			c.nextSend++
			render := func(seq uint16) []byte {
				w := wire.NewWriter([]byte{byte(protocol.CommandLinkUpdate)})
				w.WriteUshort(seq)
				w.WriteBytes(payload)
				return w.Bytes()
			}
			c.outbox = append(c.outbox, &pendingReliable{seq: seq, render: render})
			c.metrics.LinkUpdateSent()

			if !more {
				break
			}
		}
	}
	c.pumpSendWindowLocked()
}

// CloseLink tears a link down locally and notifies the remote.
func (c *Connection) CloseLink(id uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	link, ok := c.links[id]
	if !ok {
		return
	}
	link.SetDown()
	delete(c.links, id)
	delete(c.lastAppliedUpdateSeq, id)
	c.sendLinkDownLocked(id, protocol.LinkDownRequested)
}
