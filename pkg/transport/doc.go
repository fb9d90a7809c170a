// Package transport provides the TCP/TLS socket layer used to carry the
// Blynk wire protocol.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      Blynk frames (pkg/wire)   │
//	├────────────────────────────────┤
//	│            TLS (optional)      │
//	├────────────────────────────────┤
//	│              TCP               │
//	└────────────────────────────────┘
//
// Blynk's legacy server speaks a single client/server role: the app or
// hardware library dials out to the server, there is no listener side
// and no mutual TLS. Keep-alive, correlation and the session's own
// reconnect loop live above this package, in pkg/session — ClientConn only
// moves wire.Frame values across the wire. ReconnectingClient is a
// separate, optional redialing wrapper around Client that pkg/session
// does not use.
package transport
