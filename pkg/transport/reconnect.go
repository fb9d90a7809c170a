package transport

import (
	"context"
	"sync"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/connection"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// DefaultMaxReconnectAttempts bounds ReconnectingClient's backoff ladder.
const DefaultMaxReconnectAttempts = 10

// ReconnectConfig tunes the optional transport-level backoff reconnector.
// MaxAttempts <= 0 takes DefaultMaxReconnectAttempts.
type ReconnectConfig struct {
	MaxAttempts int
}

// ReconnectingClient wraps Client with the exponential-backoff reconnector
// from pkg/connection (1s doubling to 60s): on transport loss it redials
// the configured address automatically, up to MaxAttempts times, and
// presents a single stable Messages channel across every redial.
//
// It replays no application-level handshake - a reconnect only re-dials
// TCP and TLS - so it suits standalone use of the transport layer, or
// tests, outside any session. pkg/session never builds one of these: it
// needs to replay LOGIN after every redial and cancel pending requests
// explicitly, so it drives its own reconnect loop directly over Client
// instead (see pkg/session's doc comment).
type ReconnectingClient struct {
	client      *Client
	address     string
	maxAttempts int

	mgr       *connection.Manager
	startOnce sync.Once

	mu   sync.Mutex
	conn *ClientConn

	msgCh chan wire.Frame
}

// NewReconnectingClient creates a ReconnectingClient that dials address
// through client.
func NewReconnectingClient(client *Client, address string, cfg ReconnectConfig) *ReconnectingClient {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxReconnectAttempts
	}

	rc := &ReconnectingClient{
		client:      client,
		address:     address,
		maxAttempts: maxAttempts,
		msgCh:       make(chan wire.Frame, 64),
	}
	rc.mgr = connection.NewManager(rc.dial)
	rc.mgr.SetAutoReconnect(true)
	rc.mgr.OnReconnecting(func(attempt int, _ time.Duration) {
		if attempt > maxAttempts {
			// Close waits for the Manager's reconnect goroutine, which is
			// the one running this callback, so it runs on its own.
			go rc.mgr.Close()
		}
	})
	return rc
}

// Connect performs the initial dial and, once connected, arms the
// reconnector so a later transport loss is retried automatically.
func (rc *ReconnectingClient) Connect(ctx context.Context) error {
	rc.startOnce.Do(rc.mgr.StartReconnectLoop)
	return rc.mgr.Connect(ctx)
}

// Send writes a frame over the current transport. It fails with
// blynkerr.ErrNotConnected while a reconnect is in progress.
func (rc *ReconnectingClient) Send(f wire.Frame) error {
	rc.mu.Lock()
	conn := rc.conn
	rc.mu.Unlock()
	if conn == nil {
		return blynkerr.ErrNotConnected
	}
	return conn.Send(f)
}

// Messages returns the frame stream. Unlike Client.Connect's ClientConn,
// this channel survives across reconnects: it is not closed by a transport
// loss, and Close does not close it either.
func (rc *ReconnectingClient) Messages() <-chan wire.Frame {
	return rc.msgCh
}

// State reports the reconnector's current lifecycle state.
func (rc *ReconnectingClient) State() connection.State {
	return rc.mgr.State()
}

// Close stops the reconnector and tears down the current transport, if any.
func (rc *ReconnectingClient) Close() error {
	rc.mgr.Close()
	rc.mu.Lock()
	conn := rc.conn
	rc.conn = nil
	rc.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// dial is the connection.ConnectFunc driving the Manager: establish a
// fresh ClientConn and start forwarding it into msgCh until it closes,
// at which point it notifies the Manager so reconnection can begin.
func (rc *ReconnectingClient) dial(ctx context.Context) error {
	conn, err := rc.client.Connect(ctx, rc.address)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	rc.conn = conn
	rc.mu.Unlock()

	go rc.forward(conn)
	return nil
}

func (rc *ReconnectingClient) forward(conn *ClientConn) {
	for f := range conn.Messages() {
		rc.msgCh <- f
	}

	rc.mu.Lock()
	current := rc.conn == conn
	if current {
		rc.conn = nil
	}
	rc.mu.Unlock()

	if current {
		rc.mgr.NotifyConnectionLost()
	}
}
