package connection

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dragonlace/denetwork/pkg/netaddr"
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/statelink"
	"github.com/dragonlace/denetwork/pkg/value"
)

// datagram is one in-flight delivery queued by a fakeEndpoint.
type datagram struct {
	to   *Connection
	data []byte
}

// fakeEndpoint stands in for a UDP socket in tests. SendDatagram never
// calls the peer back inline: a real socket hands the datagram to the
// kernel and returns immediately, and a Connection's lock is held across
// SendDatagram calls, so delivering synchronously here would re-enter a
// connection's HandleDatagram while its own Update/SendReliable call
// still holds that same lock further up the stack. Queuing and draining
// from outside any lock avoids that self-deadlock.
type fakeEndpoint struct {
	local netaddr.Address
	peer  *Connection
	queue *[]datagram

	// dropCommand, if non-zero, discards the next outgoing datagram
	// whose leading command byte matches it instead of queuing it, then
	// resets to zero. Used to simulate a single lost packet.
	dropCommand byte
}

func (f *fakeEndpoint) Open(local netaddr.Address, listener netaddr.Listener) error { return nil }
func (f *fakeEndpoint) Close() error                                                { return nil }
func (f *fakeEndpoint) LocalAddress() netaddr.Address                               { return f.local }

func (f *fakeEndpoint) SendDatagram(remote netaddr.Address, data []byte) error {
	if f.dropCommand != 0 && len(data) > 0 && data[0] == f.dropCommand {
		f.dropCommand = 0
		return nil
	}
	if f.peer != nil {
		cp := append([]byte(nil), data...)
		*f.queue = append(*f.queue, datagram{to: f.peer, data: cp})
	}
	return nil
}

// drainQueue delivers every queued datagram, including ones enqueued as a
// side effect of delivering an earlier one (e.g. an ACK), until nothing
// is left in flight.
func drainQueue(queue *[]datagram) {
	for len(*queue) > 0 {
		d := (*queue)[0]
		*queue = (*queue)[1:]
		d.to.HandleDatagram(d.data)
	}
}

func silentLogger() zerolog.Logger { return zerolog.Nop() }

func TestHandshakeHappyPath(t *testing.T) {
	queue := &[]datagram{}
	serverEP := &fakeEndpoint{queue: queue}
	clientEP := &fakeEndpoint{queue: queue}

	var established bool

	server := New(serverEP, false, DefaultConfig(), Callbacks{}, silentLogger())
	client := New(clientEP, true, DefaultConfig(), Callbacks{
		ConnectionEstablished: func() { established = true },
	}, silentLogger())

	serverEP.peer = client
	clientEP.peer = server

	remote := netaddr.NewIPv4([]byte{127, 0, 0, 1}, 9999)
	server.BindAccepted(remote)

	if err := client.ConnectTo(remote); err != nil {
		t.Fatal(err)
	}
	drainQueue(queue)

	if !established {
		t.Fatal("expected client ConnectionEstablished to fire")
	}
	if client.Status() != Connected {
		t.Fatalf("expected client Connected, got %v", client.Status())
	}
}

func TestReliableSendAckedAndDelivered(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}

	var received []byte
	a := New(aEP, true, DefaultConfig(), Callbacks{}, silentLogger())
	b := New(bEP, true, DefaultConfig(), Callbacks{
		MessageReceived: func(data []byte) { received = data },
	}, silentLogger())

	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 1}, 1)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	if err := a.SendReliable([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	drainQueue(queue)

	if string(received) != "hello" {
		t.Fatalf("got %q", received)
	}
	if len(a.outbox) != 0 {
		t.Fatalf("expected outbox cleared after ack round trip, got %d entries", len(a.outbox))
	}
}

func TestReliableOutOfOrderBuffersAndDrains(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}
	b := New(bEP, true, DefaultConfig(), Callbacks{}, silentLogger())
	a := New(aEP, true, DefaultConfig(), Callbacks{}, silentLogger())
	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 2}, 2)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	var order []string
	b.callbacks.MessageReceived = func(data []byte) { order = append(order, string(data)) }

	b.mu.Lock()
	b.deliverReliableLocked(1, []byte("second"))
	b.mu.Unlock()
	drainQueue(queue)
	if len(order) != 0 {
		t.Fatal("out-of-order message should be buffered, not delivered yet")
	}

	b.mu.Lock()
	b.deliverReliableLocked(0, []byte("first"))
	b.mu.Unlock()
	drainQueue(queue)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected in-order drain, got %v", order)
	}
}

func TestStateLinkPublishAndAccept(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}

	var linkedOnB *statelink.StateLink
	b := New(bEP, true, DefaultConfig(), Callbacks{
		CreateState: func(identify []byte, readOnly bool) (*state.State, error) {
			s := state.New(readOnly)
			s.AddValue(value.NewSint16(0))
			return s, nil
		},
		LinkEstablished: func(l *statelink.StateLink) {
			linkedOnB = l
		},
	}, silentLogger())
	a := New(aEP, true, DefaultConfig(), Callbacks{}, silentLogger())

	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 3}, 3)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	local := state.New(false)
	local.AddValue(value.NewSint16(42))

	link, err := a.PublishState(local, true, []byte("my-state"))
	if err != nil {
		t.Fatal(err)
	}
	if link == nil {
		t.Fatal("expected a link handle")
	}
	drainQueue(queue)

	if linkedOnB == nil {
		t.Fatal("expected b's LinkEstablished callback to fire")
	}
	if link.Status() != statelink.Up {
		t.Fatalf("expected a's link Up after LINK_UP round trip, got %v", link.Status())
	}
}

// TestLinkUpSurvivesDroppedPacket covers the case a bare fire-and-forget
// LINK_UP used to get wrong: losing it used to strand the initiator's
// StateLink in Listening forever. It now rides the reliable outbox, so a
// resend on the next tick recovers it.
func TestLinkUpSurvivesDroppedPacket(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}

	var established bool
	b := New(bEP, true, DefaultConfig(), Callbacks{
		CreateState: func(identify []byte, readOnly bool) (*state.State, error) {
			s := state.New(readOnly)
			s.AddValue(value.NewSint16(0))
			return s, nil
		},
	}, silentLogger())
	a := New(aEP, true, DefaultConfig(), Callbacks{
		LinkEstablished: func(l *statelink.StateLink) { established = true },
	}, silentLogger())

	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 4}, 4)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	local := state.New(false)
	local.AddValue(value.NewSint16(1))

	link, err := a.PublishState(local, true, []byte("s"))
	if err != nil {
		t.Fatal(err)
	}

	// b answers with a RELIABLE_ACK and then its LINK_UP; drop the LINK_UP once.
	bEP.dropCommand = byte(protocol.CommandLinkUp)
	drainQueue(queue)

	if established {
		t.Fatal("expected LinkEstablished not to fire yet: LINK_UP was dropped")
	}
	if link.Status() != statelink.Listening {
		t.Fatalf("expected link still Listening after the drop, got %v", link.Status())
	}

	now := time.Now().Add(a.cfg.ReliableResendInterval + time.Millisecond)
	b.Update(now)
	drainQueue(queue)

	if !established {
		t.Fatal("expected LinkEstablished to fire once the resent LINK_UP arrives")
	}
	if link.Status() != statelink.Up {
		t.Fatalf("expected link Up after resend, got %v", link.Status())
	}
}

// TestLinkUpdateRetransmitsAfterDrop covers the other half of the same
// gap: a dropped LINK_UPDATE used to leave the reader permanently
// diverged from the writer, since nothing tracked whether it ever
// arrived. It now resends like any other reliable frame.
func TestLinkUpdateRetransmitsAfterDrop(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}

	var seen int16
	var changes int
	b := New(bEP, true, DefaultConfig(), Callbacks{
		CreateState: func(identify []byte, readOnly bool) (*state.State, error) {
			s := state.New(readOnly)
			tick := value.NewSint16(0)
			s.AddValue(tick)
			s.SetChangeListener(func(index int, v value.Value) {
				changes++
				seen = v.(*value.IntValue[int16]).Get()
			})
			return s, nil
		},
	}, silentLogger())
	a := New(aEP, true, DefaultConfig(), Callbacks{}, silentLogger())

	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 5}, 5)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	local := state.New(false)
	tick := value.NewSint16(0)
	local.AddValue(tick)

	if _, err := a.PublishState(local, true, []byte("s")); err != nil {
		t.Fatal(err)
	}
	drainQueue(queue)

	tick.Set(7)
	local.InvalidateValue(0)

	aEP.dropCommand = byte(protocol.CommandLinkUpdate)
	a.Update(time.Now())
	drainQueue(queue)

	if seen == 7 {
		t.Fatal("expected the dropped LINK_UPDATE not to have reached b yet")
	}

	now := time.Now().Add(a.cfg.ReliableResendInterval + time.Millisecond)
	a.Update(now)
	drainQueue(queue)

	if seen != 7 {
		t.Fatalf("expected b to converge to 7 after resend, got %d", seen)
	}
	if changes != 1 {
		t.Fatalf("expected remote_value_changed to fire exactly once, got %d", changes)
	}
}

// TestLinkUpdateDuplicateDeliveryAppliesOnce exercises the dedup guard
// directly: a LINK_UPDATE the sender retransmits because its first ack
// got lost (not because the update itself was lost) must still only be
// applied once on the receiving side.
func TestLinkUpdateDuplicateDeliveryAppliesOnce(t *testing.T) {
	queue := &[]datagram{}
	aEP := &fakeEndpoint{queue: queue}
	bEP := &fakeEndpoint{queue: queue}

	var changes int
	b := New(bEP, true, DefaultConfig(), Callbacks{
		CreateState: func(identify []byte, readOnly bool) (*state.State, error) {
			s := state.New(readOnly)
			s.AddValue(value.NewSint16(0))
			s.SetChangeListener(func(index int, v value.Value) { changes++ })
			return s, nil
		},
	}, silentLogger())
	a := New(aEP, true, DefaultConfig(), Callbacks{}, silentLogger())

	aEP.peer = b
	bEP.peer = a

	remote := netaddr.NewIPv4([]byte{10, 0, 0, 6}, 6)
	a.BindAccepted(remote)
	b.BindAccepted(remote)

	local := state.New(false)
	tick := value.NewSint16(0)
	local.AddValue(tick)

	if _, err := a.PublishState(local, true, []byte("s")); err != nil {
		t.Fatal(err)
	}
	drainQueue(queue)

	tick.Set(9)
	local.InvalidateValue(0)
	a.Update(time.Now())

	if len(*queue) != 1 {
		t.Fatalf("expected exactly one LINK_UPDATE in flight, got %d", len(*queue))
	}
	update := (*queue)[0]
	*queue = nil

	b.HandleDatagram(update.data)
	b.HandleDatagram(update.data) // simulates b's ack getting lost and a retransmitting the same update
	drainQueue(queue)

	if changes != 1 {
		t.Fatalf("expected remote_value_changed to fire exactly once across both deliveries, got %d", changes)
	}
}
