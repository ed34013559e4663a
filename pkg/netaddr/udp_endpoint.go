package netaddr

import (
	"net"
	"sync"
)

// UDPEndpoint is the sole Endpoint implementation: a net.UDPConn with one
// reader goroutine dispatching to a Listener — read, copy the buffer,
// hand off to the Listener callback directly rather than spawning a
// goroutine per datagram, so all dispatch for one endpoint happens on a
// single I/O task and the listener must not block it.
type UDPEndpoint struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	listener Listener
	local    Address
	closed   bool
	done     chan struct{}
}

// NewUDPEndpoint creates an unopened endpoint.
func NewUDPEndpoint() *UDPEndpoint {
	return &UDPEndpoint{}
}

func addrToUDPAddr(a Address) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IP(a.Bytes), Port: int(a.Port)}
}

func udpAddrToAddress(a *net.UDPAddr) Address {
	if v4 := a.IP.To4(); v4 != nil {
		return NewIPv4(v4, uint16(a.Port))
	}
	return NewIPv6(a.IP.To16(), uint16(a.Port))
}

// Open binds the local UDP socket and starts the read loop. The network
// family is chosen from local.Family, so the socket always binds with
// the address family matching the local Address's tag.
func (e *UDPEndpoint) Open(local Address, listener Listener) error {
	network := "udp4"
	if local.Family == IPv6 {
		network = "udp6"
	}

	conn, err := net.ListenUDP(network, addrToUDPAddr(local))
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.conn = conn
	e.listener = listener
	e.local = udpAddrToAddress(conn.LocalAddr().(*net.UDPAddr))
	e.local.Family = local.Family
	e.done = make(chan struct{})
	e.mu.Unlock()

	go e.readLoop()
	return nil
}

// maxDatagramSize bounds a single recv; datagrams never exceed the MTU
// budget a connection negotiates, and long-message framing keeps
// individual frames well under this.
const maxDatagramSize = 2048

func (e *UDPEndpoint) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-e.done:
				return
			default:
			}
			if isClosedConnErr(err) {
				return
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		e.mu.Lock()
		listener := e.listener
		e.mu.Unlock()
		if listener != nil {
			listener.ReceivedDatagram(udpAddrToAddress(remote), data)
		}
	}
}

func isClosedConnErr(err error) bool {
	return err != nil && (err.Error() == "use of closed network connection" ||
		isNetClosingError(err))
}

func isNetClosingError(err error) bool {
	ne, ok := err.(*net.OpError)
	return ok && ne.Err != nil && ne.Err.Error() == "use of closed network connection"
}

// Close shuts the socket down and stops the read loop. Idempotent.
func (e *UDPEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.done != nil {
		close(e.done)
	}
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

// SendDatagram writes one datagram to remote. Best-effort: both the
// unreliable path and reliable retransmit treat send failures as
// transient except where the caller (Connection) decides otherwise.
func (e *UDPEndpoint) SendDatagram(remote Address, data []byte) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return net.ErrClosed
	}
	_, err := conn.WriteToUDP(data, addrToUDPAddr(remote))
	return err
}

func (e *UDPEndpoint) LocalAddress() Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local
}
