// Package engine is the routing engine proper: the update processor,
// the outbound packet builder, the timer-driven route state
// transitions, and the event loop that ties them together. It is one
// owning struct with New/Run/Stop verbs and a single dispatch
// goroutine, reading UDP datagrams and handing them to a stateless,
// no-handshake processor.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpeters/dvrd/config"
	"github.com/kpeters/dvrd/metrics"
	"github.com/kpeters/dvrd/packet"
	"github.com/kpeters/dvrd/queue"
	"github.com/kpeters/dvrd/rib"
	"github.com/kpeters/dvrd/timer"
	"github.com/kpeters/dvrd/transport"
)

// Engine owns the route table and drives every timer and datagram
// this router instance reacts to. It is the single owning agent: all
// table mutation happens on the goroutine that calls Run.
type Engine struct {
	selfID    uint16
	neighbors map[uint16]config.Neighbor

	table     *rib.Table
	codec     packet.Codec
	transport *transport.Transport
	pending   *queue.Queue
	clock     timer.Clock
	metrics   *metrics.Metrics
	log       zerolog.Logger

	periodicBase   time.Duration
	timeout        time.Duration
	gcDuration     time.Duration
	coalesceWindow time.Duration

	triggeredDeadline time.Time

	stop chan struct{}
}

// New builds an Engine for cfg, sending and receiving through tr and
// encoding with codec. clk is consulted wherever the engine needs
// "now" in a way that must be fakeable in tests; the blocking event
// loop itself still schedules real timers off the wall clock.
func New(cfg *config.Config, codec packet.Codec, tr *transport.Transport, clk timer.Clock, m *metrics.Metrics, log zerolog.Logger) *Engine {
	neighbors := make(map[uint16]config.Neighbor, len(cfg.OutputPorts))
	for _, nb := range cfg.OutputPorts {
		neighbors[uint16(nb.NeighborRouterID)] = nb
	}

	const (
		periodicBase   = 5 * time.Second
		timeout        = 6 * periodicBase
		gcDuration     = 4 * periodicBase
		coalesceWindow = 2 * time.Second
	)

	return &Engine{
		selfID:         uint16(cfg.RouterID),
		neighbors:      neighbors,
		table:          rib.New(uint16(cfg.RouterID), gcDuration),
		codec:          codec,
		transport:      tr,
		pending:        queue.New(),
		clock:          clk,
		metrics:        m,
		log:            log.With().Str("component", "engine").Logger(),
		periodicBase:   periodicBase,
		timeout:        timeout,
		gcDuration:     gcDuration,
		coalesceWindow: coalesceWindow,
		stop:           make(chan struct{}),
	}
}

// Routes returns a consistent snapshot of the route table, for the
// textual dump.
func (e *Engine) Routes() []rib.Route {
	return e.table.Snapshot()
}

// Stop signals Run to return once it next wakes.
func (e *Engine) Stop() {
	close(e.stop)
}

func jitter(base time.Duration) time.Duration {
	factor := 0.8 + rand.Float64()*0.4 // U[0.8, 1.2]
	return time.Duration(float64(base) * factor)
}

// raiseTriggered records dest as needing a triggered update and arms
// the coalescing window if it is not already running, rate-limiting
// triggered updates so a burst of expirations produces one outgoing
// cycle, not one per route.
func (e *Engine) raiseTriggered(dest uint16) {
	e.pending.Push(dest)
	if e.triggeredDeadline.IsZero() {
		e.triggeredDeadline = e.clock.Now().Add(e.coalesceWindow)
	}
}

// sendPeriodic builds and sends an update to every configured
// neighbor, splitting oversized tables and substituting the bootstrap
// hello for an empty one.
func (e *Engine) sendPeriodic() {
	for id, nb := range e.neighbors {
		for _, msg := range e.Build(id) {
			e.encodeAndSend(nb.LocalPort, msg)
		}
	}
}

// sendTriggered drains the pending-destination queue and emits one
// out-of-band update per neighbor carrying only those change-flagged
// routes, not the full table.
func (e *Engine) sendTriggered() {
	dests := e.pending.Drain()
	if len(dests) == 0 {
		return
	}
	e.metrics.IncTriggeredUpdates()
	for id, nb := range e.neighbors {
		for _, msg := range e.BuildTriggered(id, dests) {
			e.encodeAndSend(nb.LocalPort, msg)
		}
	}
	e.table.ClearChangeFlags(dests)
}

func (e *Engine) encodeAndSend(port int, msg packet.Message) {
	b, err := e.codec.Encode(msg)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to encode outbound message")
		return
	}
	e.transport.Send(port, b)
	e.metrics.IncPacketsSent()
}

// tick advances every timer-driven state transition as of now:
// per-route timeout expiry, garbage collection, and releasing a
// coalesced triggered update. It is split out from Run so it can be
// driven deterministically in tests with an arbitrary now.
func (e *Engine) tick(now time.Time) {
	for _, dest := range e.table.ExpireTimeouts(now) {
		e.raiseTriggered(dest)
	}
	e.table.CollectGarbage(now)
	e.metrics.SetRoutesActive(e.table.Len())

	if !e.triggeredDeadline.IsZero() && !e.triggeredDeadline.After(now) {
		e.sendTriggered()
		e.triggeredDeadline = time.Time{}
	}
}

// Run is the event loop: it waits for the earliest of the next
// periodic fire time, any route deadline, or the triggered coalescing
// deadline, or for a datagram to arrive, whichever comes first, then
// performs the corresponding action, then loops. It returns when ctx
// is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info().Uint16("router_id", e.selfID).Msg("engine starting")
	e.sendPeriodic()
	periodicDeadline := e.clock.Now().Add(jitter(e.periodicBase))

	for {
		now := e.clock.Now()
		wait := periodicDeadline.Sub(now)
		if d, ok := e.table.EarliestDeadline(); ok {
			if w := d.Sub(now); w < wait {
				wait = w
			}
		}
		if !e.triggeredDeadline.IsZero() {
			if w := e.triggeredDeadline.Sub(now); w < wait {
				wait = w
			}
		}
		if wait < 0 {
			wait = 0
		}

		waitTimer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			waitTimer.Stop()
			e.log.Info().Msg("engine stopping: context cancelled")
			return
		case <-e.stop:
			waitTimer.Stop()
			e.log.Info().Msg("engine stopping")
			return
		case dgram := <-e.transport.Incoming():
			waitTimer.Stop()
			e.drainDatagrams(dgram)
		case fired := <-waitTimer.C:
			if !fired.Before(periodicDeadline) {
				e.sendPeriodic()
				periodicDeadline = fired.Add(jitter(e.periodicBase))
			}
			e.tick(fired)
		}
	}
}

// drainDatagrams processes first and every other datagram already
// waiting in the channel, so one socket-readiness wakeup handles a
// whole burst before the loop recomputes its next deadline.
func (e *Engine) drainDatagrams(first transport.Datagram) {
	e.Process(first.Data, e.clock.Now())
	for {
		select {
		case dgram := <-e.transport.Incoming():
			e.Process(dgram.Data, e.clock.Now())
		default:
			return
		}
	}
}
