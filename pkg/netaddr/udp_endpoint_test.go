package netaddr

import (
	"sync"
	"testing"
	"time"
)

type captureListener struct {
	mu   sync.Mutex
	got  [][]byte
	from []Address
	ch   chan struct{}
}

func newCaptureListener() *captureListener {
	return &captureListener{ch: make(chan struct{}, 8)}
}

func (c *captureListener) ReceivedDatagram(remote Address, data []byte) {
	c.mu.Lock()
	c.got = append(c.got, append([]byte(nil), data...))
	c.from = append(c.from, remote)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func TestUDPEndpointLoopback(t *testing.T) {
	server := NewUDPEndpoint()
	listener := newCaptureListener()
	if err := server.Open(IPv4Loopback(0), listener); err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	client := NewUDPEndpoint()
	clientListener := newCaptureListener()
	if err := client.Open(IPv4Loopback(0), clientListener); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	serverAddr := server.LocalAddress()
	serverAddr.Bytes = IPv4Loopback(0).Bytes

	if err := client.SendDatagram(serverAddr, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-listener.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.got) != 1 || string(listener.got[0]) != "hello" {
		t.Fatalf("got %v", listener.got)
	}
}

func TestUDPEndpointCloseIdempotent(t *testing.T) {
	e := NewUDPEndpoint()
	if err := e.Open(IPv4Loopback(0), newCaptureListener()); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second close should be idempotent, got %v", err)
	}
}
