// Package session implements the controller that owns a Blynk-family
// connection end-to-end: authentication, keep-alive, request/response
// correlation, inbound event routing and automatic reconnection.
//
// # Actor Boundary
//
// A Controller's mutable state (transport state, auth state, saved
// credentials, active dashboard id) is guarded by a single mutex held only
// across non-blocking critical sections — never across a channel receive
// or a network call. Three goroutines run per live connection: the
// transport's own read loop (pkg/transport), this package's router loop
// (draining transport.ClientConn.Messages and resolving or publishing each
// frame) and the keep-alive ticker. A separate goroutine drives the
// reconnect state machine while the controller is Reconnecting.
//
// # Reconnection
//
// When the transport stream ends unexpectedly, every request pending on
// that connection's correlator fails with ErrConnectionClosed and the
// controller starts reconnecting with exponential backoff (base delay *
// 1.5^(attempt-1), capped at a maximum delay), replaying the last successful
// authentication on each new transport. Pending requests are never
// replayed; callers see the failure and may resubmit. Giving up after the
// configured attempt limit moves the controller to Disconnected and emits
// event.KindDisconnected; a successful replay emits event.KindReconnected.
//
// Disconnect called from any state settles every pending request with
// ErrCancelled, stops the keep-alive ticker and the reconnect loop, and
// closes the transport.
//
// The reconnect loop above is this package's own, built directly on
// pkg/connection.Backoff; the Controller dials through plain
// transport.Client and never builds a transport.ReconnectingClient. A
// reconnect here must replay LOGIN and cancel pending requests, neither
// of which the transport-level reconnector knows how to do.
package session
