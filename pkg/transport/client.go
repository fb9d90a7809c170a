package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/protolog"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// readBufferSize is the chunk size used to pull bytes off the socket
// before handing them to the frame decoder.
const readBufferSize = 4096

// ClientConfig configures a Client.
type ClientConfig struct {
	// TLSConfig enables TLS for the connection. Nil means plaintext,
	// which hardware-side Blynk libraries commonly use on port 80.
	TLSConfig *TLSConfig

	// ConnectTimeout bounds the dial and handshake (default: 30s).
	ConnectTimeout time.Duration

	// Logger receives protocol log events (optional).
	Logger protolog.Logger
}

// Client dials Blynk servers and produces ClientConn values.
type Client struct {
	config ClientConfig
}

// NewClient creates a Client from config, applying defaults.
func NewClient(config ClientConfig) *Client {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = protolog.NoopLogger{}
	}
	return &Client{config: config}
}

// Connect dials address and, if configured, performs a TLS handshake.
// The returned ClientConn starts its read loop immediately.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     10 * time.Second,
			Interval: 5 * time.Second,
			Count:    3,
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", blynkerr.ErrConnect, address, err)
	}

	var tlsState tls.ConnectionState
	var netConn net.Conn = conn

	if c.config.TLSConfig != nil {
		tlsConf := NewClientTLSConfig(*c.config.TLSConfig)
		tlsConn := tls.Client(conn, tlsConf)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: TLS handshake: %v", blynkerr.ErrConnect, err)
		}
		tlsState = tlsConn.ConnectionState()
		netConn = tlsConn
	}

	cc := &ClientConn{
		conn:     netConn,
		tlsState: tlsState,
		connID:   uuid.New().String(),
		decoder:  wire.NewDecoder(),
		msgCh:    make(chan wire.Frame, 64),
		closeCh:  make(chan struct{}),
		logger:   c.config.Logger,
	}
	go cc.readLoop()

	return cc, nil
}

// ClientConn is an established connection to a Blynk server.
type ClientConn struct {
	conn     net.Conn
	tlsState tls.ConnectionState
	connID   string
	decoder  *wire.Decoder
	msgCh    chan wire.Frame
	logger   protolog.Logger

	closeCh   chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex

	mu      sync.Mutex
	readErr error
}

var _ ClientConnection = (*ClientConn)(nil)

// TLSState returns the negotiated TLS state (zero value for plaintext connections).
func (c *ClientConn) TLSState() tls.ConnectionState {
	return c.tlsState
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ConnectionID returns the unique identifier generated for this connection.
func (c *ClientConn) ConnectionID() string {
	return c.connID
}

// Send encodes and writes a frame to the server.
func (c *ClientConn) Send(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return blynkerr.ErrConnectionClosed
	default:
	}

	data := wire.Encode(f)
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("%w: %v", blynkerr.ErrConnectionClosed, err)
	}

	c.logger.Log(protolog.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    protolog.DirectionOut,
		Layer:        protolog.LayerWire,
		Category:     protolog.CategoryMessage,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		Message: &protolog.MessageEvent{
			Command:     f.Command,
			MessageID:   f.ID,
			PayloadSize: len(f.Payload),
		},
	})

	return nil
}

// Messages returns the channel of frames decoded from the server. The
// channel is closed when the connection is closed or the read loop
// encounters an error; call Err after it closes to learn why.
func (c *ClientConn) Messages() <-chan wire.Frame {
	return c.msgCh
}

// Err returns the error that ended the read loop, if any. Only
// meaningful after the Messages channel has been closed.
func (c *ClientConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *ClientConn) readLoop() {
	defer close(c.msgCh)

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			frames := c.decoder.Feed(buf[:n])
			for _, f := range frames {
				c.logger.Log(protolog.Event{
					Timestamp:    time.Now(),
					ConnectionID: c.connID,
					Direction:    protolog.DirectionIn,
					Layer:        protolog.LayerWire,
					Category:     protolog.CategoryMessage,
					RemoteAddr:   c.conn.RemoteAddr().String(),
					Message: &protolog.MessageEvent{
						Command:     f.Command,
						MessageID:   f.ID,
						PayloadSize: len(f.Payload),
					},
				})
				select {
				case c.msgCh <- f:
				case <-c.closeCh:
					return
				}
			}
		}
		if err != nil {
			select {
			case <-c.closeCh:
				return
			default:
			}
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
	}
}
