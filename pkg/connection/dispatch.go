package connection

import (
	"time"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/statelink"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// HandleDatagram routes one inbound datagram by its leading command
// byte. Unknown codes are logged and dropped, per the routing rule.
func (c *Connection) HandleDatagram(data []byte) {
	if len(data) == 0 {
		return
	}
	cmd := protocol.Command(data[0])
	r := wire.NewReader(data[1:])

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.lastRecv = time.Now()

	switch cmd {
	case protocol.CommandConnectionRequest:
		c.handleConnectionRequestLocked(r)
	case protocol.CommandConnectionAck:
		c.handleConnectionAckLocked(r)
	case protocol.CommandConnectionClose:
		c.handleConnectionCloseLocked()
	case protocol.CommandMessage:
		c.handleMessageLocked(r)
	case protocol.CommandReliableMessage:
		c.handleReliableMessageLocked(r)
	case protocol.CommandReliableAck:
		c.handleReliableAckLocked(r)
	case protocol.CommandReliableLinkState:
		c.handleReliableLinkStateLocked(r)
	case protocol.CommandReliableMessageLong:
		c.handleReliableMessageLongLocked(r)
	case protocol.CommandLinkUp:
		c.handleLinkUpLocked(r)
	case protocol.CommandLinkDown:
		c.handleLinkDownLocked(r)
	case protocol.CommandLinkUpdate:
		c.handleLinkUpdateLocked(r)
	default:
		c.log.Warn().Uint8("command", data[0]).Msg("dropping unknown command")
	}
}

func (c *Connection) handleConnectionRequestLocked(r *wire.Reader) {
	clientProtocol, err := r.ReadUshort()
	if err != nil {
		return
	}
	if c.status != Connected {
		return
	}
	// The server gate (pkg/server.ReceivedDatagram) already rejected any
	// mismatch before this Connection was ever constructed; this check
	// only re-validates a replayed CONNECTION_REQUEST from the same,
	// already-accepted peer, where it always matches.
	if clientProtocol != protocol.DENetworkProtocol {
		c.sendConnectionAckLocked(protocol.ConnectionAckRejectNoProtocol, protocol.DENetworkProtocol)
		return
	}
	c.sendConnectionAckLocked(protocol.ConnectionAckAccept, protocol.DENetworkProtocol)
}

func (c *Connection) sendConnectionAckLocked(result protocol.ConnectionAckResult, chosen uint16) {
	w := wire.NewWriter([]byte{byte(protocol.CommandConnectionAck)})
	w.WriteByte(byte(result))
	w.WriteUshort(chosen)
	c.endpoint.SendDatagram(c.remote, w.Bytes())
}

func (c *Connection) handleConnectionAckLocked(r *wire.Reader) {
	if c.status != Connecting {
		return
	}
	result, err := r.ReadByte()
	if err != nil {
		return
	}
	if _, err := r.ReadUshort(); err != nil {
		return
	}

	switch protocol.ConnectionAckResult(result) {
	case protocol.ConnectionAckAccept:
		c.status = Connected
		c.lastRecv = c.connectStart
		cb := c.callbacks.ConnectionEstablished
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		c.mu.Lock()
	case protocol.ConnectionAckRejectNoProtocol:
		c.status = Disconnected
		c.fireFailedAndClosedLocked(protocol.ReasonNoCommonProtocol)
	default:
		c.status = Disconnected
		c.fireFailedAndClosedLocked(protocol.ReasonRejected)
	}
}

func (c *Connection) fireFailedAndClosedLocked(reason protocol.Reason) {
	failedCb := c.callbacks.ConnectionFailed
	closedCb := c.callbacks.ConnectionClosed
	c.mu.Unlock()
	if failedCb != nil {
		failedCb(reason)
	}
	if closedCb != nil {
		closedCb()
	}
	c.mu.Lock()
}

func (c *Connection) handleConnectionCloseLocked() {
	if c.status == Disconnected {
		return
	}
	c.status = Disconnected
	for _, l := range c.links {
		l.SetDown()
	}
	c.links = map[uint16]*statelink.StateLink{}
	c.metrics.ConnectionClosed()
	cb := c.callbacks.ConnectionClosed
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
	c.mu.Lock()
}

func (c *Connection) handleMessageLocked(r *wire.Reader) {
	data, err := r.ReadData()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	cb := c.callbacks.MessageReceived
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
	c.mu.Lock()
}

func (c *Connection) handleReliableMessageLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	data, err := r.ReadData()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	c.deliverReliableLocked(seq, data)
}

func (c *Connection) handleReliableAckLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		return
	}
	if _, err := r.ReadByte(); err != nil {
		return
	}
	c.ackReliableLocked(seq)
}

func (c *Connection) handleReliableMessageLongLocked(r *wire.Reader) {
	seq, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	partIndex, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	partCount, err := r.ReadUshort()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	data, err := r.ReadData()
	if err != nil {
		c.invalidMessageLocked()
		return
	}
	c.handleLongFragmentLocked(seq, partIndex, partCount, data)
}

// invalidMessageLocked implements the error-propagation rule: a wire
// decode failure inside an established connection closes it with
// InvalidMessage rather than attempting to resynchronise the stream.
func (c *Connection) invalidMessageLocked() {
	if c.status == Disconnected {
		return
	}
	c.status = Disconnected
	for _, l := range c.links {
		l.SetDown()
	}
	c.links = map[uint16]*statelink.StateLink{}
	c.fireFailedAndClosedLocked(protocol.ReasonInvalidMessage)
}
