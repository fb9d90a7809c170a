package transport_test

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/connection"
	"github.com/blynk-protocol/blynk-go/pkg/transport"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// startFlakyEchoServer accepts connections in a loop. The first dropFirst
// connections are closed immediately after being accepted; every connection
// after that echoes frames until the listener is closed.
func startFlakyEchoServer(t *testing.T, dropFirst int) (net.Listener, *int32) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	var accepted int32
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			n := atomic.AddInt32(&accepted, 1)
			if int(n) <= dropFirst {
				conn.Close()
				continue
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()

	return listener, &accepted
}

func TestReconnectingClientRedialsAfterDrop(t *testing.T) {
	listener, accepted := startFlakyEchoServer(t, 1)
	defer listener.Close()

	client := transport.NewClient(transport.ClientConfig{})
	rc := transport.NewReconnectingClient(client, listener.Addr().String(), transport.ReconnectConfig{MaxAttempts: 5})
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rc.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	waitFor(t, func() bool { return atomic.LoadInt32(accepted) >= 2 }, 5*time.Second)

	waitFor(t, func() bool { return rc.State() == connection.StateConnected }, 5*time.Second)

	frame := wire.Frame{Command: wire.PING, ID: 3}
	deadline := time.Now().Add(5 * time.Second)
	var sendErr error
	for time.Now().Before(deadline) {
		sendErr = rc.Send(frame)
		if sendErr == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if sendErr != nil {
		t.Fatalf("Send failed after reconnect: %v", sendErr)
	}

	select {
	case got := <-rc.Messages():
		if got.ID != frame.ID {
			t.Errorf("got frame id %d, want %d", got.ID, frame.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed frame after reconnect")
	}
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
