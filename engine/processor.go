package engine

import (
	"time"

	"github.com/kpeters/dvrd/packet"
	"github.com/kpeters/dvrd/rib"
)

// Process applies the distance-vector update rules for one incoming
// packet, arriving at arrival. It validates the packet against
// selfID, identifies the advertising neighbor (creating its
// direct-connected route on first contact), refreshes that
// neighbor's timeout, and folds every advertised entry into the
// table under the distance-vector rules.
func (e *Engine) Process(raw []byte, arrival time.Time) error {
	msg, err := e.codec.Decode(raw)
	if err != nil {
		e.metrics.IncPacketsDropped()
		e.log.Warn().Err(err).Msg("discarding malformed packet")
		return err
	}

	validated, err := packet.Validate(msg, e.selfID)
	if err != nil {
		e.metrics.IncPacketsDropped()
		e.log.Warn().Err(err).Int("source", int(msg.RouterID)).Msg("discarding invalid packet")
		return err
	}
	e.metrics.IncPacketsReceived()

	source := validated.RouterID
	linkCost, err := e.refreshNeighbor(source, arrival)
	if err != nil {
		e.metrics.IncPacketsDropped()
		e.log.Warn().Err(err).Msg("discarding packet from unknown source")
		return err
	}

	for _, entry := range validated.Entries {
		e.applyEntry(entry, source, linkCost, arrival)
	}
	return nil
}

// refreshNeighbor finds or creates the direct-connected route to
// source, refreshes its timeout, and returns the link cost later
// entries are added to.
func (e *Engine) refreshNeighbor(source uint16, arrival time.Time) (int, error) {
	route, exists := e.table.Get(source)
	if !exists {
		nb, ok := e.neighbors[source]
		if !ok {
			return 0, &ErrUnknownSource{Source: source}
		}
		direct := rib.Route{
			Destination:     source,
			Metric:          nb.LinkMetric,
			NextHop:         rib.Self,
			ChangeFlag:      true,
			TimeoutDeadline: arrival.Add(e.timeout),
		}
		e.table.Upsert(direct)
		return nb.LinkMetric, nil
	}

	route.TimeoutDeadline = arrival.Add(e.timeout)
	e.table.Upsert(route)
	return route.Metric, nil
}

// applyEntry folds one advertised (destination, metric) pair into the
// table under the distance-vector update rules.
func (e *Engine) applyEntry(entry packet.Entry, source uint16, linkCost int, arrival time.Time) {
	if entry.Destination == e.selfID {
		return
	}

	newMetric := entry.Metric + linkCost
	if newMetric > rib.Infinity {
		newMetric = rib.Infinity
	}

	existing, ok := e.table.Get(entry.Destination)
	switch {
	case !ok && newMetric < rib.Infinity:
		e.table.Upsert(rib.Route{
			Destination:     entry.Destination,
			Metric:          newMetric,
			NextHop:         source,
			ChangeFlag:      true,
			TimeoutDeadline: arrival.Add(e.timeout),
		})

	case !ok:
		// new_metric == INFINITY and no existing route: nothing to record.

	case existing.NextHop == source:
		oldMetric := existing.Metric
		existing.Metric = newMetric
		if newMetric == rib.Infinity {
			if oldMetric != rib.Infinity {
				existing.Garbage = true
				existing.GCDeadline = arrival.Add(e.gcDuration)
				existing.ChangeFlag = true
				e.raiseTriggered(entry.Destination)
			}
		} else {
			existing.Garbage = false
			existing.TimeoutDeadline = arrival.Add(e.timeout)
			if oldMetric != newMetric {
				existing.ChangeFlag = true
			}
		}
		e.table.Upsert(existing)

	case newMetric < existing.Metric:
		e.table.Upsert(rib.Route{
			Destination:     entry.Destination,
			Metric:          newMetric,
			NextHop:         source,
			ChangeFlag:      true,
			Garbage:         false,
			TimeoutDeadline: arrival.Add(e.timeout),
		})

	default:
		// A non-owning neighbor with an equal-or-worse metric never
		// displaces the current route (strict less-than tie-break).
	}
}
