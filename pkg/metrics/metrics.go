// Package metrics collects DENetwork counters in a private
// github.com/VictoriaMetrics/metrics Set, following the struct-of-named-
// counters layout R2Northstar-Atlas's pkg/api/api0/metrics.go uses
// instead of scattering ad hoc metrics.GetOrCreateCounter calls.
package metrics

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics is the counter/gauge set a Server (and the Connections it
// hosts) report into. A nil *Metrics is valid everywhere it's used —
// every method is a no-op on a nil receiver — so wiring metrics into a
// Server is opt-in.
type Metrics struct {
	set *metrics.Set

	connectionsAccepted  *metrics.Counter
	connectionsRejected  *metrics.Counter
	connectionsTimedOut  *metrics.Counter
	connectionsClosed    *metrics.Counter
	reliableSendsTotal   *metrics.Counter
	reliableResendsTotal *metrics.Counter
	reliableAcksTotal    *metrics.Counter
	linkUpdatesSentTotal *metrics.Counter
	windowOccupancy      *metrics.Histogram
}

// New creates a fresh, independent counter set.
func New() *Metrics {
	set := metrics.NewSet()
	return &Metrics{
		set:                  set,
		connectionsAccepted:  set.NewCounter(`denetwork_connections_accepted_total`),
		connectionsRejected:  set.NewCounter(`denetwork_connections_rejected_total`),
		connectionsTimedOut:  set.NewCounter(`denetwork_connections_timed_out_total`),
		connectionsClosed:    set.NewCounter(`denetwork_connections_closed_total`),
		reliableSendsTotal:   set.NewCounter(`denetwork_reliable_sends_total`),
		reliableResendsTotal: set.NewCounter(`denetwork_reliable_resends_total`),
		reliableAcksTotal:    set.NewCounter(`denetwork_reliable_acks_total`),
		linkUpdatesSentTotal: set.NewCounter(`denetwork_link_updates_sent_total`),
		windowOccupancy:      set.NewHistogram(`denetwork_reliable_window_occupancy`),
	}
}

// WritePrometheus renders every registered metric in the text exposition
// format, for a caller that wants to serve /metrics.
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) ConnectionRejected() {
	if m == nil {
		return
	}
	m.connectionsRejected.Inc()
}

func (m *Metrics) ConnectionTimedOut() {
	if m == nil {
		return
	}
	m.connectionsTimedOut.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *Metrics) ReliableSent() {
	if m == nil {
		return
	}
	m.reliableSendsTotal.Inc()
}

func (m *Metrics) ReliableResent() {
	if m == nil {
		return
	}
	m.reliableResendsTotal.Inc()
}

func (m *Metrics) ReliableAcked() {
	if m == nil {
		return
	}
	m.reliableAcksTotal.Inc()
}

func (m *Metrics) LinkUpdateSent() {
	if m == nil {
		return
	}
	m.linkUpdatesSentTotal.Inc()
}

func (m *Metrics) ObserveWindowOccupancy(n int) {
	if m == nil {
		return
	}
	m.windowOccupancy.Update(float64(n))
}
