// Package dump renders the routing table as a periodic textual stdout
// dump — a debug surface, not a protocol interface.
package dump

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kpeters/dvrd/rib"
)

// Write renders routes to w as an aligned table with columns
// {destination, metric, next_hop, flag, timeout_remaining,
// gc_remaining}, evaluated relative to now.
func Write(w io.Writer, routes []rib.Route, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"destination", "metric", "next_hop", "flag", "timeout_remaining", "gc_remaining"})

	for _, r := range routes {
		nextHop := "self"
		if !r.Direct() {
			nextHop = fmt.Sprintf("%d", r.NextHop)
		}

		timeoutRemaining := "-"
		gcRemaining := "-"
		if r.Garbage {
			gcRemaining = remaining(r.GCDeadline, now)
		} else {
			timeoutRemaining = remaining(r.TimeoutDeadline, now)
		}

		table.Append([]string{
			fmt.Sprintf("%d", r.Destination),
			fmt.Sprintf("%d", r.Metric),
			nextHop,
			fmt.Sprintf("%t", r.ChangeFlag),
			timeoutRemaining,
			gcRemaining,
		})
	}

	table.Render()
}

func remaining(deadline, now time.Time) string {
	d := deadline.Sub(now)
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
