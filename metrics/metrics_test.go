package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(mfs) != 5 {
		t.Errorf("expected 5 registered metric families, got %d", len(mfs))
	}

	m.SetRoutesActive(3)
	if m.RoutesActive.Value() != 3 {
		t.Errorf("expected RoutesActive counter to read 3, got %d", m.RoutesActive.Value())
	}

	m.IncPacketsSent()
	m.IncPacketsReceived()
	m.IncPacketsDropped()
	m.IncTriggeredUpdates()
	if m.PacketsSent.Value() != 1 || m.PacketsReceived.Value() != 1 ||
		m.PacketsDropped.Value() != 1 || m.TriggeredUpdates.Value() != 1 {
		t.Errorf("expected each in-process counter to read 1")
	}
}
