package transport

import (
	"crypto/tls"
	"crypto/x509"
)

// DefaultPort is the default Blynk cloud server port for secure connections.
const DefaultPort = 9443

// TLSConfig holds configuration for the TLS connection to a Blynk server.
type TLSConfig struct {
	// ServerName is used for SNI and certificate hostname verification.
	ServerName string

	// InsecureSkipVerify disables server certificate verification.
	// The stock Blynk cloud and many self-hosted servers present
	// certificates that don't chain to a public root, so callers that
	// don't supply RootCAs should expect to set this.
	InsecureSkipVerify bool

	// RootCAs is an optional pool of trusted CA certificates. When set,
	// InsecureSkipVerify is ignored and normal chain verification applies.
	RootCAs *x509.CertPool

	// VerifyConnection, when set, replaces Go's built-in certificate
	// verification with an arbitrary policy hook: pinning, a custom
	// trust store, or accepting self-signed hardware certificates by
	// fingerprint. It runs after the handshake completes and receives
	// the negotiated tls.ConnectionState; a non-nil error aborts the
	// handshake. When set, InsecureSkipVerify and RootCAs are ignored
	// and Go performs no verification of its own — the hook is solely
	// responsible for deciding whether to trust the peer.
	VerifyConnection func(tls.ConnectionState) error
}

// NewClientTLSConfig builds a *tls.Config for connecting to a Blynk server.
func NewClientTLSConfig(cfg TLSConfig) *tls.Config {
	tlsConf := &tls.Config{
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	if cfg.RootCAs != nil {
		tlsConf.RootCAs = cfg.RootCAs
		tlsConf.InsecureSkipVerify = false
	}
	if cfg.VerifyConnection != nil {
		// Disable Go's own verification so the hook is the sole
		// authority; tls.Config requires this combination explicitly.
		tlsConf.InsecureSkipVerify = true
		tlsConf.VerifyConnection = func(state tls.ConnectionState) error {
			return cfg.VerifyConnection(state)
		}
	}
	return tlsConf
}
