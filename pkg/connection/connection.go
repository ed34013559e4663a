// Package connection implements the DENetwork connection state machine:
// handshake, reliable delivery with windowing and retransmission,
// unreliable messages, long-message fragmentation and the state-link
// protocol built on top of it.
package connection

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dragonlace/denetwork/pkg/metrics"
	"github.com/dragonlace/denetwork/pkg/netaddr"
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/statelink"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Status is the Connection's top-level sub-state.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Callbacks are the user-visible hooks a Connection fires. Every field
// is optional; nil callbacks are simply not invoked. They run on the
// goroutine that calls Update/HandleDatagram and must not block.
type Callbacks struct {
	ConnectionEstablished func()
	ConnectionFailed      func(reason protocol.Reason)
	ConnectionClosed      func()
	MessageReceived       func(data []byte)

	// CreateState answers an incoming LINK_STATE: identify is the
	// initiator's opaque payload, readOnly tells the callback which
	// direction mutation rights flow. Returning a nil State or an error
	// rejects the link.
	CreateState func(identify []byte, readOnly bool) (*state.State, error)

	LinkEstablished func(link *statelink.StateLink)
	LinkDown        func(id uint16, reason protocol.LinkDownReason)
}

// maxFramePayload is the per-datagram payload budget long reliable
// messages split against, leaving headroom under a conservative Ethernet
// MTU for IP/UDP headers and command framing. LINK_UPDATE chunks are
// bounded by index count (maxUpdateIndicesPerFrame), not by this budget.
const maxFramePayload = 1200

// Connection drives one peer relationship over a shared or owned
// Endpoint. All mutable state is confined behind mu; callers may invoke
// Update and HandleDatagram from different goroutines (a Server does,
// for instance) as long as they serialize with each other themselves or
// rely on this lock.
type Connection struct {
	mu sync.Mutex

	id           uuid.UUID
	endpoint     netaddr.Endpoint
	ownsEndpoint bool
	remote       netaddr.Address

	cfg       Config
	callbacks Callbacks
	log       zerolog.Logger
	metrics   *metrics.Metrics

	status Status

	connectStart    time.Time
	lastConnectSend time.Time
	lastRecv        time.Time
	disposed        bool

	nextSend uint16
	outbox   []*pendingReliable

	nextExpected uint16
	recvBuffer   map[uint16][]byte

	longRecv map[uint16]*reassembly

	links      map[uint16]*statelink.StateLink
	nextLinkID uint16

	// lastAppliedUpdateSeq tracks, per link id, the sequence number of the
	// most recent LINK_UPDATE actually applied to that link's State. A
	// LINK_UPDATE now rides the reliable outbox and gets retransmitted
	// until acked, so the remote may legitimately see the same seq twice;
	// this guards State.ApplyUpdate (and its remote_value_changed fanout)
	// against running a second time for a retransmit that already landed.
	lastAppliedUpdateSeq map[uint16]uint16
}

type pendingReliable struct {
	seq         uint16
	data        []byte
	sent        bool
	firstSentAt time.Time
	lastSentAt  time.Time

	// render, when set, replaces the default RELIABLE_MESSAGE / _LONG
	// framing with a caller-supplied frame. Used by RELIABLE_LINK_STATE
	// and by LINK_UP/LINK_DOWN/LINK_UPDATE (pkg/connection/link.go), all
	// of which carry their own layout under the same seq/ack/retransmit
	// machinery rather than a plain data payload.
	render func(seq uint16) []byte
}

type reassembly struct {
	parts     [][]byte
	partCount uint16
	got       int
}

// New creates a Connection bound to endpoint, initially Disconnected.
// ownsEndpoint controls whether Dispose also closes the Endpoint
// (Disconnect never does): a client-side connection owns it; a
// server-hosted connection shares it with the Server and must not close it.
func New(endpoint netaddr.Endpoint, ownsEndpoint bool, cfg Config, callbacks Callbacks, log zerolog.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		id:           id,
		endpoint:     endpoint,
		ownsEndpoint: ownsEndpoint,
		cfg:          cfg.clamp(),
		callbacks:    callbacks,
		log:          log.With().Str("conn_id", id.String()).Logger(),
		recvBuffer:   map[uint16][]byte{},
		longRecv:     map[uint16]*reassembly{},
		links:        map[uint16]*statelink.StateLink{},

		lastAppliedUpdateSeq: map[uint16]uint16{},
	}
}

// ID is a per-process correlation identifier for logs and metrics. It is
// never placed on the wire — the protocol has no notion of a connection
// UUID.
func (c *Connection) ID() uuid.UUID { return c.id }

// SetMetrics installs the counter set this Connection reports into. Safe
// to call before or after ConnectTo/BindAccepted; nil (the default)
// disables reporting.
func (c *Connection) SetMetrics(m *metrics.Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// SetCallbacks replaces the Connection's callback set. Used by Server,
// which must construct the Connection before it can hand the Connection
// pointer back to a caller-supplied per-connection callback factory.
func (c *Connection) SetCallbacks(cbs Callbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = cbs
}

func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Connection) RemoteAddress() netaddr.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

// ReceivedDatagram implements netaddr.Listener, letting a client-side
// Connection be passed directly as the Listener an owned Endpoint
// delivers to: remote is ignored since a client Connection only ever
// talks to the one peer it dialed.
func (c *Connection) ReceivedDatagram(remote netaddr.Address, data []byte) {
	c.HandleDatagram(data)
}

// ConnectTo starts the client-side handshake against remote.
func (c *Connection) ConnectTo(remote netaddr.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = remote
	c.status = Connecting
	c.connectStart = time.Now()
	c.lastConnectSend = time.Time{}
	return c.sendConnectionRequestLocked()
}

// BindAccepted is used by the server accept path: the Connection is
// already Connected because the accept decision was made before this
// object existed (a Server inspects the inbound CONNECTION_REQUEST
// itself and only then constructs the Connection that will answer it).
func (c *Connection) BindAccepted(remote netaddr.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = remote
	c.status = Connected
	c.lastRecv = time.Now()
}

func (c *Connection) sendConnectionRequestLocked() error {
	w := wire.NewWriter([]byte{byte(protocol.CommandConnectionRequest)})
	w.WriteUshort(protocol.DENetworkProtocol)
	c.lastConnectSend = time.Now()
	return c.endpoint.SendDatagram(c.remote, w.Bytes())
}

// Update drives every timer-based behaviour: connect-request resend and
// timeout, reliable retransmission and timeout, and keepalive
// detection. Call it on a steady tick (the caller's cooperative
// scheduler tick, e.g. every 5ms).
func (c *Connection) Update(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	switch c.status {
	case Connecting:
		if now.Sub(c.connectStart) >= c.cfg.ConnectTimeout {
			c.failLocked(protocol.ReasonTimeout)
			return
		}
		if now.Sub(c.lastConnectSend) >= c.cfg.ConnectResendInterval {
			c.sendConnectionRequestLocked()
		}
	case Connected:
		if now.Sub(c.lastRecv) >= c.cfg.ReliableTimeout {
			c.failLocked(protocol.ReasonTimeout)
			return
		}
		c.pumpSendWindowLocked()
		c.retransmitLocked(now)
		c.flushDirtyLinksLocked()
	}
}

func (c *Connection) failLocked(reason protocol.Reason) {
	c.status = Disconnected
	if reason == protocol.ReasonTimeout {
		c.metrics.ConnectionTimedOut()
	}
	c.metrics.ConnectionClosed()
	cb := c.callbacks.ConnectionFailed
	closedCb := c.callbacks.ConnectionClosed
	c.mu.Unlock()
	if cb != nil {
		cb(reason)
	}
	if closedCb != nil {
		closedCb()
	}
	c.mu.Lock()
}

// Disconnect sends a best-effort CONNECTION_CLOSE and tears the
// connection down locally. Safe to call from Connecting or Connected.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.status == Disconnected {
		c.mu.Unlock()
		return
	}
	w := []byte{byte(protocol.CommandConnectionClose)}
	c.endpoint.SendDatagram(c.remote, w)
	c.status = Disconnected
	for _, l := range c.links {
		l.SetDown()
	}
	c.links = map[uint16]*statelink.StateLink{}
	c.lastAppliedUpdateSeq = map[uint16]uint16{}
	c.metrics.ConnectionClosed()
	cb := c.callbacks.ConnectionClosed
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Dispose is the idempotent teardown entry point: closes the owned
// Endpoint (if any) in addition to what Disconnect does. After it
// returns once, further calls are no-ops and no callback fires again.
func (c *Connection) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	wasConnected := c.status != Disconnected
	if wasConnected {
		c.endpoint.SendDatagram(c.remote, []byte{byte(protocol.CommandConnectionClose)})
		c.metrics.ConnectionClosed()
	}
	c.status = Disconnected
	for _, l := range c.links {
		l.SetDown()
	}
	c.links = map[uint16]*statelink.StateLink{}
	c.lastAppliedUpdateSeq = map[uint16]uint16{}
	c.outbox = nil
	c.recvBuffer = map[uint16][]byte{}
	c.longRecv = map[uint16]*reassembly{}
	owns := c.ownsEndpoint
	ep := c.endpoint
	cb := c.callbacks.ConnectionClosed
	c.mu.Unlock()

	if wasConnected && cb != nil {
		cb()
	}
	if owns {
		ep.Close()
	}
}

// SendUnreliable emits a MESSAGE frame immediately with no retry.
func (c *Connection) SendUnreliable(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := wire.NewWriter([]byte{byte(protocol.CommandMessage)})
	if err := w.WriteData(data); err != nil {
		return err
	}
	return c.endpoint.SendDatagram(c.remote, w.Bytes())
}

// SendReliable assigns the next sequence number in submission order and
// queues data for transmission, respecting the reliable window. data is
// copied: the outbox retains it for retransmission long after this call
// returns, so callers are free to reuse or overwrite their buffer (e.g. a
// bufio.Scanner's line buffer) immediately afterward.
func (c *Connection) SendReliable(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.nextSend
	c.nextSend++
	c.outbox = append(c.outbox, &pendingReliable{seq: seq, data: append([]byte(nil), data...)})
	c.pumpSendWindowLocked()
	return nil
}
