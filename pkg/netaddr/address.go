// Package netaddr implements the Address value and the UDP Endpoint
// abstraction: a tagged IPv4/IPv6 variant with dotted-quad and
// zero-run-compressed host formatting, and a polymorphic
// {open, close, send, resolve, find_public_address, find_all_address}
// endpoint contract built on net.UDPConn.
package netaddr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Family is the Address tag. The byte count backing an Address must
// always match its Family.
type Family byte

const (
	IPv4 Family = iota
	IPv6
)

// Address is a tagged {IPv4 (4 bytes), IPv6 (16 bytes)} variant plus a
// 16-bit port. Equality is structural over (Family, bytes, Port).
type Address struct {
	Family Family
	Bytes  []byte
	Port   uint16
}

// NewIPv4 builds an IPv4 Address. Panics if len(b) != 4 — callers that
// accept untrusted byte counts should check first; a wrong byte count is
// a programming error, not a recoverable runtime condition.
func NewIPv4(b []byte, port uint16) Address {
	if len(b) != 4 {
		panic("netaddr: ipv4 address requires exactly 4 bytes")
	}
	out := make([]byte, 4)
	copy(out, b)
	return Address{Family: IPv4, Bytes: out, Port: port}
}

// NewIPv6 builds an IPv6 Address. Panics if len(b) != 16.
//
// NewIPv4 and NewIPv6 are kept strictly separate: nothing in this
// package ever builds an IPv4 Address by calling NewIPv6 or vice versa,
// so an IPv4-mapped socket address can never surface as the wrong family.
func NewIPv6(b []byte, port uint16) Address {
	if len(b) != 16 {
		panic("netaddr: ipv6 address requires exactly 16 bytes")
	}
	out := make([]byte, 16)
	copy(out, b)
	return Address{Family: IPv6, Bytes: out, Port: port}
}

func IPv4Any() Address { return NewIPv4([]byte{0, 0, 0, 0}, 0) }
func IPv6Any() Address { return NewIPv6(make([]byte, 16), 0) }
func IPv4Loopback(port uint16) Address {
	return NewIPv4([]byte{127, 0, 0, 1}, port)
}
func IPv6Loopback(port uint16) Address {
	b := make([]byte, 16)
	b[15] = 1
	return NewIPv6(b, port)
}

// Equal is structural equality over (Family, Bytes, Port).
func (a Address) Equal(o Address) bool {
	if a.Family != o.Family || a.Port != o.Port || len(a.Bytes) != len(o.Bytes) {
		return false
	}
	for i := range a.Bytes {
		if a.Bytes[i] != o.Bytes[i] {
			return false
		}
	}
	return true
}

// Host formats the address portion only (no port), dotted-quad for IPv4
// and canonical zero-run-compressed for IPv6: the single *longest* run
// of all-zero 16-bit groups is elided as "::", ties broken by earliest
// position.
func (a Address) Host() string {
	switch a.Family {
	case IPv4:
		return fmt.Sprintf("%d.%d.%d.%d", a.Bytes[0], a.Bytes[1], a.Bytes[2], a.Bytes[3])
	case IPv6:
		return ipv6Host(a.Bytes)
	default:
		return ""
	}
}

func ipv6Host(b []byte) string {
	groups := make([]uint16, 8)
	for i := 0; i < 8; i++ {
		groups[i] = uint16(b[i*2])<<8 | uint16(b[i*2+1])
	}

	// Find the longest run of zero groups; ties broken by earliest start.
	bestStart, bestLen := -1, 0
	curStart, curLen := -1, 0
	for i, g := range groups {
		if g == 0 {
			if curStart == -1 {
				curStart = i
			}
			curLen++
			if curLen > bestLen {
				bestLen = curLen
				bestStart = curStart
			}
		} else {
			curStart, curLen = -1, 0
		}
	}

	var sb strings.Builder
	if bestLen < 2 {
		// No run worth eliding; print all 8 groups.
		for i, g := range groups {
			if i > 0 {
				sb.WriteByte(':')
			}
			sb.WriteString(strconv.FormatUint(uint64(g), 16))
		}
		return sb.String()
	}

	for i := 0; i < bestStart; i++ {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatUint(uint64(groups[i]), 16))
	}
	sb.WriteString("::")
	for i := bestStart + bestLen; i < 8; i++ {
		if i > bestStart+bestLen {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatUint(uint64(groups[i]), 16))
	}
	return sb.String()
}

// String is the readable "host:port" form ("[host]:port" for IPv6).
func (a Address) String() string {
	if a.Family == IPv6 {
		return fmt.Sprintf("[%s]:%d", a.Host(), a.Port)
	}
	return fmt.Sprintf("%s:%d", a.Host(), a.Port)
}

// ErrInvalidAddress is returned by Resolve for malformed address strings.
var ErrInvalidAddress = errors.New("invalid address")
