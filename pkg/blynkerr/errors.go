// Package blynkerr collects the sentinel errors surfaced across the client.
// Callers should match them with errors.Is; wrapping context is always
// attached with fmt.Errorf's %w so the sentinel survives the wrap.
package blynkerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect indicates the TLS/transport link could not be established,
	// including a WAITING state that exceeded its deadline.
	ErrConnect = errors.New("connect failed")

	// ErrNotConnected indicates a send was attempted with no live transport.
	ErrNotConnected = errors.New("not connected")

	// ErrAuth indicates a LOGIN or SHARE_LOGIN request returned a non-OK
	// status. Use AuthError to recover the status code.
	ErrAuth = errors.New("authentication failed")

	// ErrServer indicates a non-OK response to an ordinary request. Use
	// ServerError to recover the status code.
	ErrServer = errors.New("server error")

	// ErrTimeout indicates a request's deadline elapsed before any reply
	// arrived.
	ErrTimeout = errors.New("timeout")

	// ErrConnectionClosed indicates the transport terminated while a
	// request was still pending.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrEncode indicates a domain record failed to serialize into a
	// request body.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates a frame payload failed to parse into a domain
	// record.
	ErrDecode = errors.New("decode failed")

	// ErrDecompress indicates a compressed payload (profile or graph data)
	// could not be decoded.
	ErrDecompress = errors.New("decompress failed")

	// ErrSaturated indicates the correlator's 16-bit id space is entirely
	// occupied by pending requests.
	ErrSaturated = errors.New("request id space saturated")

	// ErrCancelled indicates the controller was disconnected while the
	// caller's request was still in flight.
	ErrCancelled = errors.New("cancelled")
)

// AuthError wraps ErrAuth with the response status that caused it.
type AuthError struct {
	Code uint32
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: status %d", e.Code)
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// ServerError wraps ErrServer with the response status that caused it.
type ServerError struct {
	Code uint32
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Code)
}

func (e *ServerError) Unwrap() error {
	return ErrServer
}
