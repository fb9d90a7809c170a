package transport_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/transport"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

func generateTestCert(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func startPlaintextEchoServer(t *testing.T) net.Listener {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()

	return listener
}

func startTLSEchoServer(t *testing.T, cert tls.Certificate) net.Listener {
	t.Helper()

	tlsConf := &tls.Config{Certificates: []tls.Certificate{cert}}
	listener, err := tls.Listen("tcp", "127.0.0.1:0", tlsConf)
	if err != nil {
		t.Fatalf("tls listen: %v", err)
	}

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()

	return listener
}

func TestClientPlaintextConnect(t *testing.T) {
	listener := startPlaintextEchoServer(t)
	defer listener.Close()

	client := transport.NewClient(transport.ClientConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if conn.ConnectionID() == "" {
		t.Error("ConnectionID should not be empty")
	}
}

func TestClientTLSConnect(t *testing.T) {
	cert := generateTestCert(t)
	listener := startTLSEchoServer(t, cert)
	defer listener.Close()

	client := transport.NewClient(transport.ClientConfig{
		TLSConfig: &transport.TLSConfig{InsecureSkipVerify: true},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if conn.TLSState().Version == 0 {
		t.Error("expected a negotiated TLS version")
	}
}

func TestClientConnectRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close() // nothing listening now

	client := transport.NewClient(transport.ClientConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := client.Connect(ctx, addr); err == nil {
		t.Error("expected connection error")
	}
}

func TestClientSendAndReceiveEchoedFrame(t *testing.T) {
	listener := startPlaintextEchoServer(t)
	defer listener.Close()

	client := transport.NewClient(transport.ClientConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	frame := wire.Frame{Command: wire.PING, ID: 7}
	if err := conn.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-conn.Messages():
		if got.ID != frame.ID || got.Command != frame.Command {
			t.Errorf("got frame %+v, want %+v", got, frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed frame")
	}
}

func TestClientMessagesClosesOnServerDisconnect(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	client := transport.NewClient(transport.ClientConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	select {
	case _, ok := <-conn.Messages():
		if ok {
			t.Fatal("expected channel to be closed, got a frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Messages to close")
	}

	if conn.Err() == nil {
		t.Error("expected a read error to be recorded")
	}
}

func TestClientSendAfterCloseFails(t *testing.T) {
	listener := startPlaintextEchoServer(t)
	defer listener.Close()

	client := transport.NewClient(transport.ClientConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Connect(ctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn.Close()

	if err := conn.Send(wire.Frame{Command: wire.PING, ID: 1}); err == nil {
		t.Error("expected Send after Close to fail")
	}
}
