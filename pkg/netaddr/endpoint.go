package netaddr

import (
	"net"
	"strconv"
	"strings"

	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/pkg/errors"
)

// Listener receives datagrams off an Endpoint's I/O loop.
// ReceivedDatagram runs on the endpoint's I/O goroutine and must not
// block.
type Listener interface {
	ReceivedDatagram(remote Address, data []byte)
}

// Endpoint is the datagram abstraction: open/close, send, and the bound
// local address. Address resolution and enumeration are the package
// functions Resolve, FindAllAddresses and FindPublicAddresses below.
// UDPEndpoint (udp_endpoint.go) is the only implementation this
// repository ships, built on net.UDPConn.
type Endpoint interface {
	Open(local Address, listener Listener) error
	Close() error
	SendDatagram(remote Address, data []byte) error
	LocalAddress() Address
}

// Resolve parses "host[:port]" into an Address, resolving DNS names and
// defaulting the port to protocol.DefaultPort.
func Resolve(s string) (Address, error) {
	host, portStr, err := splitHostPort(s)
	if err != nil {
		return Address{}, err
	}

	port := protocol.DefaultPort
	if portStr != "" {
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Address{}, errors.Wrap(ErrInvalidAddress, "bad port")
		}
		port = uint16(p)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return Address{}, errors.Wrapf(ErrInvalidAddress, "resolve %q: %v", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return NewIPv4(v4, port), nil
		}
	}
	for _, ip := range ips {
		if v6 := ip.To16(); v6 != nil {
			return NewIPv6(v6, port), nil
		}
	}
	return Address{}, errors.Wrap(ErrInvalidAddress, "no usable address")
}

// splitHostPort handles the bracketed-IPv6, dotted-quad and bare-DNS-name
// address forms, including the unbracketed "host" (no port) case that
// net.SplitHostPort rejects.
func splitHostPort(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		return net.SplitHostPort(s)
	}
	if strings.Count(s, ":") == 1 {
		return net.SplitHostPort(s)
	}
	return s, "", nil
}

// FindAllAddresses enumerates every local address bound to a network
// interface. This is a thin pass-through over net.InterfaceAddrs so
// callers (e.g. a server choosing a bind address) are not forced outside
// this package.
func FindAllAddresses(port uint16) ([]Address, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var out []Address
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			out = append(out, NewIPv4(v4, port))
			continue
		}
		if v6 := ipNet.IP.To16(); v6 != nil {
			out = append(out, NewIPv6(v6, port))
		}
	}
	return out, nil
}

// FindPublicAddresses is the subset of FindAllAddresses that excludes
// loopback and link-local addresses. This gives a best-effort local
// answer only; it does not perform STUN/NAT discovery.
func FindPublicAddresses(port uint16) ([]Address, error) {
	all, err := FindAllAddresses(port)
	if err != nil {
		return nil, err
	}
	var out []Address
	for _, a := range all {
		ip := net.IP(a.Bytes)
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
