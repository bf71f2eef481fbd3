// Package rib implements the route table described in RFC 2453 §3.6:
// a routing table entry for every destination this router knows a
// route to, each carrying a metric, a next hop, and the timers that
// drive RFC 2453 §3.8's "Timing Out Routes" state machine.
//
// Unlike a BGP Loc-RIB, there is exactly one table here and no
// Adj-RIBs-In/Adj-RIBs-Out split: destinations are router IDs, not IP
// prefixes, so there's nothing to aggregate or resolve against a
// separate forwarding table.
package rib

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Infinity is the metric value that marks a destination unreachable.
const Infinity = 16

// Self is the NextHop sentinel for a directly connected route: the
// route was not learned from a neighbor, it names this router's own
// configured link cost. Router IDs are validated to [1, 64000] by the
// config loader, so 0 can never collide with a real neighbor ID.
const Self uint16 = 0

// Route is one entry in the table, keyed externally by Destination.
type Route struct {
	Destination     uint16
	Metric          int
	NextHop         uint16
	ChangeFlag      bool
	Garbage         bool
	TimeoutDeadline time.Time
	GCDeadline      time.Time
}

// Direct reports whether this route is the directly connected route
// to a configured neighbor, rather than one learned through it.
func (r Route) Direct() bool {
	return r.NextHop == Self
}

var stateName = map[bool]string{
	false: "ACTIVE",
	true:  "GARBAGE",
}

// State returns the route's RFC 2453 §3.8 state name: ACTIVE or
// GARBAGE. DELETED has no record to name it, since deletion removes
// the entry from the table entirely.
func (r Route) State() string {
	return stateName[r.Garbage]
}

// Table is the routing table owned by the event loop. Every method
// locks internally so it is safe to call from the loop goroutine and
// from an I/O worker goroutine that only reads a Snapshot, but all
// writes are expected to come from one owner.
type Table struct {
	mu         sync.Mutex
	selfID     uint16
	routes     map[uint16]*Route
	gcDuration time.Duration
}

// New creates an empty table for the router identified by selfID.
// gcDuration is the GARBAGE_COLLECT interval applied when a route
// times out.
func New(selfID uint16, gcDuration time.Duration) *Table {
	return &Table{
		selfID:     selfID,
		routes:     make(map[uint16]*Route),
		gcDuration: gcDuration,
	}
}

// Get returns a copy of the route to destination, if any.
func (t *Table) Get(destination uint16) (Route, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.routes[destination]
	if !ok {
		return Route{}, false
	}
	return *r, true
}

// Snapshot returns a consistent, destination-ordered copy of every
// route in the table. Callers building an outbound message or a
// status dump always work from a Snapshot so a concurrent mutation
// from the event loop can never surface a half-advertised route.
func (t *Table) Snapshot() []Route {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out
}

// Len returns the number of routes currently in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.routes)
}

// Upsert validates and inserts or wholesale-replaces the route for
// route.Destination. Invariant 1 (1 <= metric <= 16), invariant 2
// (metric == 16 iff garbage) and invariant 5 (no route to self) are
// enforced here so a bug in the caller can't corrupt the table.
func (t *Table) Upsert(route Route) error {
	if route.Destination == t.selfID {
		return fmt.Errorf("rib: refusing to store a route to this router's own ID %d", route.Destination)
	}
	if route.Destination < 1 || route.Destination > 64000 {
		return fmt.Errorf("rib: destination %d out of range [1, 64000]", route.Destination)
	}
	if route.Metric < 1 || route.Metric > Infinity {
		return fmt.Errorf("rib: metric %d out of range [1, %d]", route.Metric, Infinity)
	}
	if (route.Metric == Infinity) != route.Garbage {
		return fmt.Errorf("rib: metric %d and garbage=%v for destination %d violate invariant 2", route.Metric, route.Garbage, route.Destination)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r := route
	t.routes[route.Destination] = &r
	return nil
}

// Delete removes the route to destination, if present. This is only
// ever called by the garbage-collection timer; there is no external
// deletion API.
func (t *Table) Delete(destination uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.routes, destination)
}

// EarliestDeadline returns the soonest timeout_deadline (for ACTIVE
// routes) or gc_deadline (for GARBAGE routes) in the table, and
// whether any route has a deadline at all. The event loop uses this
// to decide how long it can safely block waiting for socket
// readiness.
func (t *Table) EarliestDeadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var earliest time.Time
	found := false
	for _, r := range t.routes {
		d := r.TimeoutDeadline
		if r.Garbage {
			d = r.GCDeadline
		}
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	return earliest, found
}

// ExpireTimeouts transitions every ACTIVE route whose timeout_deadline
// has elapsed into GARBAGE, returning the destinations that changed so
// the caller can raise a triggered update for them.
func (t *Table) ExpireTimeouts(now time.Time) []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var changed []uint16
	for dest, r := range t.routes {
		if r.Garbage || now.Before(r.TimeoutDeadline) {
			continue
		}
		r.Metric = Infinity
		r.Garbage = true
		r.GCDeadline = now.Add(t.gcDuration)
		r.ChangeFlag = true
		changed = append(changed, dest)
	}
	return changed
}

// CollectGarbage deletes every GARBAGE route whose gc_deadline has
// elapsed, returning the destinations removed.
func (t *Table) CollectGarbage(now time.Time) []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var removed []uint16
	for dest, r := range t.routes {
		if r.Garbage && !now.Before(r.GCDeadline) {
			delete(t.routes, dest)
			removed = append(removed, dest)
		}
	}
	return removed
}

// ClearChangeFlags clears the change_flag on every listed destination
// after an update carrying it has gone out.
func (t *Table) ClearChangeFlags(destinations []uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, dest := range destinations {
		if r, ok := t.routes[dest]; ok {
			r.ChangeFlag = false
		}
	}
}
