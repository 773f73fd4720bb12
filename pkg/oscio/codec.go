// Package oscio is the OSC wire codec: UDP datagram bytes in one
// direction, *osc.Message/*osc.Bundle in the other. It is a pure
// codec — address resolution is the Parameter Tree's job, not this
// package's (spec.md §2 data-flow diagram).
package oscio

import (
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
)

// Reader blocks on a UDP datagram socket and parses each datagram as
// an OSC bundle or message (spec.md §4.5 "OSC reader").
type Reader struct {
	conn *net.UDPConn
}

// Listen opens a UDP socket at addr for reading inbound OSC traffic.
func Listen(addr string) (*Reader, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve OSC receive address %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", addr, err)
	}
	return &Reader{conn: conn}, nil
}

// Read blocks for the next datagram and parses it. A datagram that
// does not begin with '/' or "#bundle" is a Protocol-class error
// (spec.md §8 boundary behaviour) and is returned as such; the caller
// drops it with a warning, no retry.
func (r *Reader) Read(buf []byte) (osc.Packet, error) {
	n, _, err := r.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, fmt.Errorf("read OSC datagram: %w", err)
	}
	packet, err := osc.ParsePacket(string(buf[:n]))
	if err != nil {
		return nil, fmt.Errorf("parse OSC datagram: %w", err)
	}
	return packet, nil
}

// Close releases the underlying socket.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// Writer sends outbound OSC messages to one UDP destination (spec.md
// §6 "UDP addresses"), which may be a multicast group address.
type Writer struct {
	client *osc.Client
}

// NewWriter builds a Writer sending to host:port (spec.md §6's -s/-m
// flags select the destination and whether it is a multicast group).
func NewWriter(host string, port int) *Writer {
	return &Writer{client: osc.NewClient(host, port)}
}

// Send marshals and sends msg.
func (w *Writer) Send(msg *osc.Message) error {
	if err := w.client.Send(msg); err != nil {
		return fmt.Errorf("send OSC message %s: %w", msg.Address, err)
	}
	return nil
}
