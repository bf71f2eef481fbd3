// Package transport binds the UDP sockets a router instance listens
// on and provides non-blocking send and multiplexed receive across
// them. Every instance runs on loopback: input_ports are the local
// ports this instance binds to receive on; a neighbor's configured
// local_port is the loopback port to send to reach it.
package transport

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/kpeters/dvrd/network"
)

const maxDatagramSize = 2048

// Datagram is one received UDP packet, tagged with the address it came
// from and the local port it arrived on. The engine reads only Data;
// it identifies the sender by the router_id inside the packet.
type Datagram struct {
	Data      []byte
	FromHost  string
	FromPort  uint16
	LocalPort int
}

// Transport owns one bound *net.UDPConn per configured input port.
type Transport struct {
	sockets  map[int]*net.UDPConn
	incoming chan Datagram
	log      zerolog.Logger
}

// Bind opens one UDP socket per port in ports, all on loopback. Any
// bind failure is reported as a PortBindFailed condition, and every
// socket already opened is closed before returning.
func Bind(ports []int, logger zerolog.Logger) (*Transport, error) {
	t := &Transport{
		sockets:  make(map[int]*net.UDPConn, len(ports)),
		incoming: make(chan Datagram, 64),
		log:      logger.With().Str("component", "transport").Logger(),
	}

	for _, port := range ports {
		addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
		conn, err := net.ListenUDP("udp4", addr)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("transport: bind port %d: %w", port, err)
		}
		t.sockets[port] = conn
		go t.readLoop(port, conn)
	}

	return t, nil
}

func (t *Transport) readLoop(port int, conn *net.UDPConn) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			// The socket was closed under us during shutdown.
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		host, srcPort := network.SplitHostPort(addr)
		t.incoming <- Datagram{Data: data, FromHost: host, FromPort: srcPort, LocalPort: port}
	}
}

// Incoming returns the channel datagrams arrive on, drained from
// every bound socket. The engine's event loop selects on this
// alongside its timers.
func (t *Transport) Incoming() <-chan Datagram {
	return t.incoming
}

// Send transmits data to 127.0.0.1:destPort using whichever bound
// socket happens to be first in iteration order — on a single-host
// loopback deployment the source port carries no routing meaning. A
// failed or would-block send is logged and the datagram dropped; the
// caller never sees an error because convergence recovers on the next
// cycle.
func (t *Transport) Send(destPort int, data []byte) {
	dest := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: destPort}
	for _, conn := range t.sockets {
		if _, err := conn.WriteToUDP(data, dest); err != nil {
			t.log.Warn().Err(err).Int("dest_port", destPort).Msg("dropping outbound datagram")
		}
		return
	}
	t.log.Warn().Int("dest_port", destPort).Msg("no bound socket available to send from")
}

// Close shuts down every bound socket. Safe to call more than once.
func (t *Transport) Close() {
	for port, conn := range t.sockets {
		conn.Close()
		delete(t.sockets, port)
	}
}
