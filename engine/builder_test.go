package engine

import (
	"testing"
	"time"

	"github.com/kpeters/dvrd/config"
	"github.com/kpeters/dvrd/rib"
)

// TestPoisonedReverse is scenario S4: A builds an update addressed to
// C (ID=4). The route to 3 (next_hop=4) is poisoned, the route to 2
// is advertised true, and the route to 4 itself is omitted.
func TestPoisonedReverse(t *testing.T) {
	e := newTestEngine(t, 1, []config.Neighbor{
		{LocalPort: 5001, LinkMetric: 3, NeighborRouterID: 2},
		{LocalPort: 5002, LinkMetric: 2, NeighborRouterID: 4},
	})
	now := time.Now()
	e.table.Upsert(rib.Route{Destination: 2, Metric: 3, NextHop: rib.Self, TimeoutDeadline: now})
	e.table.Upsert(rib.Route{Destination: 4, Metric: 2, NextHop: rib.Self, TimeoutDeadline: now})
	e.table.Upsert(rib.Route{Destination: 3, Metric: 4, NextHop: 4, TimeoutDeadline: now})

	msgs := e.Build(4)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	byDest := make(map[uint16]int)
	for _, entry := range msgs[0].Entries {
		byDest[entry.Destination] = entry.Metric
	}
	if _, ok := byDest[4]; ok {
		t.Errorf("expected destination 4 to be omitted from its own update")
	}
	if byDest[3] != 16 {
		t.Errorf("expected destination 3 to be poisoned (16), got %d", byDest[3])
	}
	if byDest[2] != 3 {
		t.Errorf("expected destination 2 to be advertised truthfully, got %d", byDest[2])
	}
}

func TestBuildEmptyTableIsHello(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	msgs := e.Build(2)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !msgs[0].Hello() {
		t.Errorf("expected an empty table to build a bootstrap hello")
	}
}

func TestBuildSplitsOversizedTable(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	now := time.Now()
	for i := uint16(1); i <= 30; i++ {
		e.table.Upsert(rib.Route{Destination: i + 100, Metric: 1, NextHop: rib.Self, TimeoutDeadline: now})
	}
	msgs := e.Build(2)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages for 30 entries, got %d", len(msgs))
	}
	total := len(msgs[0].Entries) + len(msgs[1].Entries)
	if total != 30 {
		t.Errorf("expected 30 total entries split across messages, got %d", total)
	}
	for _, m := range msgs {
		if len(m.Entries) > 25 {
			t.Errorf("expected no message to exceed 25 entries, got %d", len(m.Entries))
		}
	}
}

func TestBuildTriggeredOnlyIncludesChanged(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	now := time.Now()
	e.table.Upsert(rib.Route{Destination: 2, Metric: 3, NextHop: rib.Self, TimeoutDeadline: now})
	e.table.Upsert(rib.Route{Destination: 3, Metric: 16, NextHop: 2, Garbage: true, GCDeadline: now.Add(time.Minute)})

	msgs := e.BuildTriggered(5, []uint16{3})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if len(msgs[0].Entries) != 1 || msgs[0].Entries[0].Destination != 3 {
		t.Errorf("expected only destination 3, got %+v", msgs[0].Entries)
	}
}

func TestBuildTriggeredEmptyWhenNothingApplies(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	if msgs := e.BuildTriggered(5, []uint16{3}); msgs != nil {
		t.Errorf("expected nil when no tracked destination is in the table, got %v", msgs)
	}
}
