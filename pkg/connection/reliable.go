package connection

import (
	"time"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// pumpSendWindowLocked transmits outbox entries in seq order until
// either the window is full or nothing is left to send. Called with
// mu held.
func (c *Connection) pumpSendWindowLocked() {
	inFlight := 0
	for _, p := range c.outbox {
		if p.sent {
			inFlight++
		}
	}
	for _, p := range c.outbox {
		if inFlight >= c.cfg.ReliableWindowSize {
			break
		}
		if p.sent {
			continue
		}
		c.transmitReliableLocked(p)
		inFlight++
	}
	c.metrics.ObserveWindowOccupancy(inFlight)
}

func (c *Connection) transmitReliableLocked(p *pendingReliable) {
	now := time.Now()
	if !p.sent {
		p.firstSentAt = now
		c.metrics.ReliableSent()
	} else {
		c.metrics.ReliableResent()
	}
	p.sent = true
	p.lastSentAt = now

	if p.render != nil {
		c.endpoint.SendDatagram(c.remote, p.render(p.seq))
		return
	}

	if len(p.data) <= maxFramePayload {
		w := wire.NewWriter([]byte{byte(protocol.CommandReliableMessage)})
		w.WriteUshort(p.seq)
		w.WriteData(p.data)
		c.endpoint.SendDatagram(c.remote, w.Bytes())
		return
	}

	partCount := (len(p.data) + maxFramePayload - 1) / maxFramePayload
	for i := 0; i < partCount; i++ {
		start := i * maxFramePayload
		end := start + maxFramePayload
		if end > len(p.data) {
			end = len(p.data)
		}
		w := wire.NewWriter([]byte{byte(protocol.CommandReliableMessageLong)})
		w.WriteUshort(p.seq)
		w.WriteUshort(uint16(i))
		w.WriteUshort(uint16(partCount))
		w.WriteData(p.data[start:end])
		c.endpoint.SendDatagram(c.remote, w.Bytes())
	}
}

// retransmitLocked resends anything still unacked past the resend
// interval and fails the connection if any entry has been in flight
// longer than the reliable timeout.
func (c *Connection) retransmitLocked(now time.Time) {
	for _, p := range c.outbox {
		if !p.sent {
			continue
		}
		if now.Sub(p.firstSentAt) >= c.cfg.ReliableTimeout {
			c.failLocked(protocol.ReasonTimeout)
			return
		}
		if now.Sub(p.lastSentAt) >= c.cfg.ReliableResendInterval {
			c.transmitReliableLocked(p)
		}
	}
}

func (c *Connection) ackReliableLocked(seq uint16) {
	for i, p := range c.outbox {
		if p.seq == seq {
			c.outbox = append(c.outbox[:i], c.outbox[i+1:]...)
			c.metrics.ReliableAcked()
			break
		}
	}
	c.pumpSendWindowLocked()
}

func (c *Connection) sendReliableAckLocked(seq uint16, result protocol.ReliableAckResult) {
	w := wire.NewWriter([]byte{byte(protocol.CommandReliableAck)})
	w.WriteUshort(seq)
	w.WriteByte(byte(result))
	c.endpoint.SendDatagram(c.remote, w.Bytes())
}

// deliverReliableLocked handles one fully-assembled reliable payload
// arriving at seq: in-order delivery with out-of-window discard and
// out-of-order buffering within the window, per the wrapping sequence
// comparison in sequence.go.
func (c *Connection) deliverReliableLocked(seq uint16, data []byte) {
	c.sendReliableAckLocked(seq, protocol.ReliableAckSuccess)

	if seq == c.nextExpected {
		c.acceptInOrderLocked(data)
		c.nextExpected++
		for {
			buffered, ok := c.recvBuffer[c.nextExpected]
			if !ok {
				break
			}
			delete(c.recvBuffer, c.nextExpected)
			c.acceptInOrderLocked(buffered)
			c.nextExpected++
		}
		return
	}

	if seqLess(seq, c.nextExpected) {
		// Already delivered; duplicate, already ACKed above.
		return
	}

	if seqInWindow(seq, c.nextExpected, c.cfg.ReliableWindowSize) {
		c.recvBuffer[seq] = data
		return
	}
	// Outside the window: discard, ACK already sent.
}

func (c *Connection) acceptInOrderLocked(data []byte) {
	cb := c.callbacks.MessageReceived
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
	c.mu.Lock()
}
