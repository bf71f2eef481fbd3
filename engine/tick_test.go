package engine

import (
	"testing"
	"time"

	"github.com/kpeters/dvrd/config"
	"github.com/kpeters/dvrd/rib"
)

// TestTickExpiresAndRaisesTriggered is scenario S5: no further packets
// for 31s, the route to 2 transitions to garbage and a triggered
// update is raised.
func TestTickExpiresAndRaisesTriggered(t *testing.T) {
	e := newTestEngine(t, 1, []config.Neighbor{{LocalPort: 5001, LinkMetric: 3, NeighborRouterID: 2}})
	base := time.Now()
	e.table.Upsert(rib.Route{Destination: 2, Metric: 3, NextHop: rib.Self, TimeoutDeadline: base})

	e.tick(base.Add(31 * time.Second))

	r, _ := e.table.Get(2)
	if r.Metric != rib.Infinity || !r.Garbage {
		t.Errorf("expected route 2 to expire to Infinity/Garbage, got %+v", r)
	}
	if e.metrics.TriggeredUpdates.Value() != 1 {
		t.Errorf("expected one triggered-update cycle for the expired route, got %d", e.metrics.TriggeredUpdates.Value())
	}
}

// TestTickCollectsGarbage is scenario S6: 20s after entering garbage
// with no revival, the record is deleted.
func TestTickCollectsGarbage(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	base := time.Now()
	e.table.Upsert(rib.Route{Destination: 2, Metric: rib.Infinity, NextHop: rib.Self, Garbage: true, GCDeadline: base})

	e.tick(base.Add(time.Second))

	if _, ok := e.table.Get(2); ok {
		t.Errorf("expected route 2 to be garbage collected")
	}
}

func TestTickReleasesCoalescedTriggeredUpdate(t *testing.T) {
	e := newTestEngine(t, 1, []config.Neighbor{{LocalPort: 5001, LinkMetric: 1, NeighborRouterID: 2}})
	base := time.Now()
	e.table.Upsert(rib.Route{Destination: 2, Metric: 1, NextHop: rib.Self, TimeoutDeadline: base.Add(time.Hour)})
	e.table.Upsert(rib.Route{Destination: 3, Metric: 16, NextHop: 2, Garbage: true, GCDeadline: base.Add(time.Hour), ChangeFlag: true})
	e.raiseTriggered(3)

	if e.pending.Length() != 1 {
		t.Fatalf("expected 1 pending triggered destination")
	}

	e.tick(e.triggeredDeadline.Add(time.Millisecond))

	if e.pending.Length() != 0 {
		t.Errorf("expected the triggered-update queue to drain once its deadline passes")
	}
	r, _ := e.table.Get(3)
	if r.ChangeFlag {
		t.Errorf("expected the change flag to clear once the triggered update is sent")
	}
}
