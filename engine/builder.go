package engine

import "github.com/kpeters/dvrd/packet"

// Build returns the sequence of response messages to send to
// neighborID, implementing split-horizon with poisoned reverse.
// A route to neighborID itself is omitted; a route
// whose next hop is neighborID is advertised as INFINITY; everything
// else is advertised at its true metric. More than MaxEntries routes
// are split across multiple messages; an empty table produces a
// single bootstrap-hello message.
func (e *Engine) Build(neighborID uint16) []packet.Message {
	snap := e.table.Snapshot()

	entries := make([]packet.Entry, 0, len(snap))
	for _, r := range snap {
		if r.Destination == neighborID {
			continue
		}
		metric := r.Metric
		if r.NextHop == neighborID {
			metric = 16 // poisoned reverse
		}
		entries = append(entries, packet.Entry{Destination: r.Destination, Metric: metric})
	}

	if len(entries) == 0 {
		return []packet.Message{{Command: packet.Command, Version: packet.Version, RouterID: e.selfID}}
	}
	return e.splitEntries(entries)
}

// BuildTriggered is like Build but restricts the advertised entries
// to those named in changed, the destinations drained from the
// pending triggered-update queue. An empty result for this neighbor
// means nothing applicable survived the filter, so nothing is sent.
func (e *Engine) BuildTriggered(neighborID uint16, changed []uint16) []packet.Message {
	wanted := make(map[uint16]bool, len(changed))
	for _, d := range changed {
		wanted[d] = true
	}

	snap := e.table.Snapshot()
	entries := make([]packet.Entry, 0, len(changed))
	for _, r := range snap {
		if !wanted[r.Destination] || r.Destination == neighborID {
			continue
		}
		metric := r.Metric
		if r.NextHop == neighborID {
			metric = 16
		}
		entries = append(entries, packet.Entry{Destination: r.Destination, Metric: metric})
	}

	if len(entries) == 0 {
		return nil
	}
	return e.splitEntries(entries)
}

// splitEntries packs entries into one or more messages of at most
// packet.MaxEntries each.
func (e *Engine) splitEntries(entries []packet.Entry) []packet.Message {
	var messages []packet.Message
	for len(entries) > 0 {
		n := packet.MaxEntries
		if len(entries) < n {
			n = len(entries)
		}
		messages = append(messages, packet.Message{
			Command:  packet.Command,
			Version:  packet.Version,
			RouterID: e.selfID,
			Entries:  entries[:n],
		})
		entries = entries[n:]
	}
	return messages
}
