package transport

import (
	"crypto/tls"
	"net"

	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// ClientConnection is the surface the session controller drives: establish
// a TLS stream, send complete frames, and consume an ordered frame stream.
// Implemented by ClientConn.
type ClientConnection interface {
	// TLSState returns the negotiated TLS connection state.
	TLSState() tls.ConnectionState

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// Send appends a complete frame to the wire. Concurrent callers are
	// serialized internally so the byte stream stays well-framed.
	Send(f wire.Frame) error

	// Messages returns the channel of frames produced by the codec as
	// bytes arrive. It is closed on remote close or any read error; that
	// closure is the sole disconnect signal the caller needs.
	Messages() <-chan wire.Frame

	// ConnectionID returns this connection's log-correlation id.
	ConnectionID() string

	// Close tears down the underlying stream and stops the read loop.
	Close() error
}

// Compile-time interface satisfaction check.
var _ ClientConnection = (*ClientConn)(nil)
