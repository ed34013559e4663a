// Package server implements the single-endpoint multiplexing listener:
// one shared UDP socket fans inbound datagrams out to a Connection per
// remote, running the server side of the handshake for unrecognised
// remotes and dropping everything else.
package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dragonlace/denetwork/pkg/connection"
	"github.com/dragonlace/denetwork/pkg/ledger"
	"github.com/dragonlace/denetwork/pkg/metrics"
	"github.com/dragonlace/denetwork/pkg/netaddr"
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/wire"
)

// Callbacks mirror connection.Callbacks but are scoped per-Server
// rather than per-Connection, since a Server manages many connections
// behind one socket and the caller needs to know which peer an event
// belongs to.
type Callbacks struct {
	ConnectionAccepted func(conn *connection.Connection)
	ConnectionClosed   func(conn *connection.Connection)

	ConnectionCallbacks func(conn *connection.Connection) connection.Callbacks
}

// Server owns one shared netaddr.Endpoint and a table of Connections
// keyed by remote address. It never closes a Connection's Endpoint
// itself (they share the server's), only the Endpoint on Close.
type Server struct {
	mu             sync.Mutex
	endpoint       netaddr.Endpoint
	local          netaddr.Address
	cfg            connection.Config
	callbacks      Callbacks
	log            zerolog.Logger
	maxConnections int
	tickInterval   time.Duration
	metrics        *metrics.Metrics
	ledger         *ledger.Ledger

	conns map[string]*connection.Connection

	stop chan struct{}
}

// SetMetrics installs the counter set the Server and every Connection it
// accepts from here on report into. Connections already accepted keep
// whatever metrics were wired in at accept time.
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// SetLedger installs an audit ledger the Server records connection
// lifecycle events into. A nil ledger (the default) disables the audit
// trail entirely; the Server never requires one to function.
func (s *Server) SetLedger(l *ledger.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
}

func (s *Server) recordLedger(connID uuid.UUID, remote, event, detail string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(connID, remote, event, detail); err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("ledger record failed")
	}
}

// New creates an unstarted Server. Call ListenOn to bind and begin
// accepting connections.
func New(cfg connection.Config, callbacks Callbacks, maxConnections int, log zerolog.Logger) *Server {
	return &Server{
		cfg:            cfg,
		callbacks:      callbacks,
		log:            log,
		maxConnections: maxConnections,
		tickInterval:   50 * time.Millisecond,
		conns:          map[string]*connection.Connection{},
	}
}

// ListenOn resolves addrStr, binds a UDPEndpoint, and starts the
// background tick loop that drives every Connection's Update.
func (s *Server) ListenOn(addrStr string) error {
	addr, err := netaddr.Resolve(addrStr)
	if err != nil {
		return err
	}

	ep := netaddr.NewUDPEndpoint()
	if err := ep.Open(addr, s); err != nil {
		return err
	}

	s.mu.Lock()
	s.endpoint = ep
	s.local = ep.LocalAddress()
	s.stop = make(chan struct{})
	s.mu.Unlock()

	go s.tickLoop()
	s.log.Info().Str("addr", s.local.String()).Msg("server listening")
	return nil
}

func (s *Server) LocalAddress() netaddr.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

func (s *Server) tickLoop() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Server) tick(now time.Time) {
	s.mu.Lock()
	conns := make([]*connection.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Update(now)
		if c.Status() == connection.Disconnected {
			s.drop(c)
		}
	}
}

// drop removes a dead connection from the routing table and fires
// ConnectionClosed. It acquires s.mu itself, so callers must not hold it.
func (s *Server) drop(c *connection.Connection) {
	s.mu.Lock()
	key := c.RemoteAddress().String()
	if s.conns[key] == c {
		delete(s.conns, key)
	}
	s.recordLedger(c.ID(), key, "disconnected", "")
	s.mu.Unlock()
	if s.callbacks.ConnectionClosed != nil {
		s.callbacks.ConnectionClosed(c)
	}
}

// ReceivedDatagram implements netaddr.Listener. It runs on the shared
// Endpoint's single I/O goroutine: routing must stay cheap and never
// block.
func (s *Server) ReceivedDatagram(remote netaddr.Address, data []byte) {
	if len(data) == 0 {
		return
	}

	key := remote.String()
	s.mu.Lock()
	c, ok := s.conns[key]
	if !ok {
		if protocol.Command(data[0]) != protocol.CommandConnectionRequest {
			s.mu.Unlock()
			return
		}
		clientProtocol, err := wire.NewReader(data[1:]).ReadUshort()
		if err != nil {
			s.mu.Unlock()
			return
		}
		if clientProtocol != protocol.DENetworkProtocol {
			ep := s.endpoint
			m := s.metrics
			s.recordLedger(uuid.Nil, remote.String(), "connect_rejected", "no_common_protocol")
			s.mu.Unlock()
			m.ConnectionRejected()
			sendConnectionAckReject(ep, remote, protocol.ConnectionAckRejectNoProtocol)
			return
		}
		if s.maxConnections > 0 && len(s.conns) >= s.maxConnections {
			ep := s.endpoint
			m := s.metrics
			s.recordLedger(uuid.Nil, remote.String(), "connect_rejected", "server_full")
			s.mu.Unlock()
			m.ConnectionRejected()
			sendConnectionAckReject(ep, remote, protocol.ConnectionAckRejectOther)
			return
		}
		c = s.acceptLocked(remote)
		s.metrics.ConnectionAccepted()
		s.recordLedger(c.ID(), remote.String(), "connect_accepted", "")
	}
	s.mu.Unlock()

	c.HandleDatagram(data)
}

// sendConnectionAckReject answers a CONNECTION_REQUEST from a remote the
// Server never registers a Connection for: the handshake still needs a
// reply, but there is nothing to route subsequent datagrams to.
func sendConnectionAckReject(ep netaddr.Endpoint, remote netaddr.Address, result protocol.ConnectionAckResult) {
	if ep == nil {
		return
	}
	w := wire.NewWriter([]byte{byte(protocol.CommandConnectionAck)})
	w.WriteByte(byte(result))
	w.WriteUshort(protocol.DENetworkProtocol)
	ep.SendDatagram(remote, w.Bytes())
}

// acceptLocked builds a new server-side Connection, already Connected:
// the handshake's accept decision happened in ReceivedDatagram above,
// so the Connection only needs to answer with CONNECTION_ACK, which
// happens when the just-received CONNECTION_REQUEST is replayed into
// HandleDatagram by the caller.
func (s *Server) acceptLocked(remote netaddr.Address) *connection.Connection {
	c := connection.New(s.endpoint, false, s.cfg, connection.Callbacks{}, s.log)
	c.BindAccepted(remote)
	c.SetMetrics(s.metrics)
	if s.callbacks.ConnectionCallbacks != nil {
		c.SetCallbacks(s.callbacks.ConnectionCallbacks(c))
	}

	s.conns[remote.String()] = c
	if s.callbacks.ConnectionAccepted != nil {
		s.callbacks.ConnectionAccepted(c)
	}
	return c
}

// Connections returns a snapshot of currently tracked connections.
func (s *Server) Connections() []*connection.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*connection.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}

// Close disconnects every tracked Connection and closes the shared
// Endpoint. Individual connections never own this Endpoint, so
// Connection.Dispose on them would be a no-op on the socket; Server is
// the only thing that closes it.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	conns := make([]*connection.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = map[string]*connection.Connection{}
	ep := s.endpoint
	s.mu.Unlock()

	for _, c := range conns {
		c.Disconnect()
	}
	if ep != nil {
		return ep.Close()
	}
	return nil
}
