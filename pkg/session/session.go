package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/action"
	"github.com/blynk-protocol/blynk-go/pkg/auth"
	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/config"
	"github.com/blynk-protocol/blynk-go/pkg/connection"
	"github.com/blynk-protocol/blynk-go/pkg/correlator"
	"github.com/blynk-protocol/blynk-go/pkg/event"
	"github.com/blynk-protocol/blynk-go/pkg/protolog"
	"github.com/blynk-protocol/blynk-go/pkg/transport"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// transportState tracks the lifecycle of the controller's connection,
// independent of the auth state layered on top of it.
type transportState int

const (
	stateDisconnected transportState = iota
	stateUp
	stateReconnecting
	stateClosed
)

// credentials is whatever the controller needs to re-authenticate a
// freshly dialed transport after a reconnect.
type credentials struct {
	email          string
	passwordDigest string
	shareToken     string
	appName        string
}

func (c *credentials) loginAction() action.Action {
	if c.shareToken != "" {
		return action.ShareLogin(c.shareToken, c.appName)
	}
	return action.Login(c.email, c.passwordDigest, c.appName)
}

// Reply is the result of a successfully resolved Send.
type Reply struct {
	// Code is set when the request resolved as correlator.ResponseOnly.
	Code wire.Status
	// Frame is set when the request resolved as correlator.DataResponse.
	Frame wire.Frame
}

// Callbacks are optional synchronous hooks. HardwareWrite and DeviceOffline
// are invoked from the router goroutine immediately after the corresponding
// event is published on the Controller's broadcast stream.
// ConnectionStateChanged is invoked from whichever goroutine changes the
// connection state (Connect, the reconnect loop, the router on transport
// loss, or Disconnect) and is not tied to a broadcast event. A callback
// must not block; slow processing belongs on the subscription channel
// instead.
type Callbacks struct {
	HardwareWrite          func(event.HardwareWrite)
	DeviceOffline          func(event.DeviceOffline)
	ConnectionStateChanged func(connected bool)
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithLogger attaches a protocol logger; the default is protolog.NoopLogger.
func WithLogger(logger protolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithCallbacks registers the optional synchronous event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Controller) { c.callbacks = cb }
}

// WithTLSVerify installs an arbitrary certificate-verification policy,
// overriding cfg.InsecureSkipVerify. Use this for pinning or accepting a
// self-hosted server's certificate by fingerprint rather than chain of
// trust; see transport.TLSConfig.VerifyConnection.
func WithTLSVerify(verify func(tls.ConnectionState) error) Option {
	return func(c *Controller) { c.tlsVerify = verify }
}

// Controller owns one logical Blynk connection: authentication, keep-alive,
// request correlation, inbound event routing and reconnection. A fresh
// transport and correlator are created for each TLS session; the previous
// pair is discarded, its pending requests failed, when a new one replaces
// it.
type Controller struct {
	cfg    config.Config
	logger protolog.Logger

	callbacks Callbacks
	events    *event.Broadcaster
	tlsVerify func(tls.ConnectionState) error

	mu      sync.Mutex
	state   transportState
	conn    *transport.ClientConn
	corr    *correlator.Correlator
	creds   *credentials
	activeDashboardID *int

	pingCancel context.CancelFunc
	pingDone   chan struct{}

	stopCh chan struct{}
}

// New creates a Controller from cfg, which supplies the server address and
// the timing parameters for keep-alive and reconnection.
func New(cfg config.Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		logger: protolog.NoopLogger{},
		events: event.NewBroadcaster(),
		state:  stateDisconnected,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer on the controller's event stream. See
// event.Broadcaster.Subscribe.
func (c *Controller) Subscribe(buffer int) (<-chan event.Event, func()) {
	return c.events.Subscribe(buffer)
}

// ActiveDashboardID returns the dashboard most recently activated by this
// controller, if any. It is never re-populated automatically on reconnect;
// the application must re-activate explicitly if it wants that behavior.
func (c *Controller) ActiveDashboardID() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeDashboardID == nil {
		return 0, false
	}
	return *c.activeDashboardID, true
}

// Connect dials the configured server and authenticates with email and
// password. password is the plaintext password; Connect computes the
// digest the wire protocol expects.
func (c *Controller) Connect(ctx context.Context, email, password, appName string) error {
	digest := auth.HashPassword(password, email)
	creds := &credentials{email: email, passwordDigest: digest, appName: appName}
	return c.connectAndAuth(ctx, creds)
}

// ConnectWithShareToken dials the configured server and authenticates with
// a dashboard share token instead of account credentials.
func (c *Controller) ConnectWithShareToken(ctx context.Context, token, appName string) error {
	creds := &credentials{shareToken: token, appName: appName}
	return c.connectAndAuth(ctx, creds)
}

// Register creates a new account. It does not establish a session; call
// Connect afterward to log in. A successful registration publishes
// event.KindRegistered.
func (c *Controller) Register(ctx context.Context, email, password, appName string) error {
	conn, corr, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	digest := auth.HashPassword(password, email)
	reply, err := c.sendAwait(ctx, conn, corr, action.Register(email, digest, appName))
	if err != nil {
		return err
	}
	if !reply.Code.IsOK() {
		if reply.Code == wire.StatusUserAlreadyRegistered {
			return fmt.Errorf("%w", &blynkerr.AuthError{Code: uint32(reply.Code)})
		}
		return fmt.Errorf("%w", &blynkerr.ServerError{Code: uint32(reply.Code)})
	}

	c.events.Publish(event.Event{Kind: event.KindRegistered, Timestamp: time.Now()})
	return nil
}

// Send issues action a to the current session and awaits its reply. It
// fails with ErrNotConnected if no session is up.
func (c *Controller) Send(ctx context.Context, a action.Action) (Reply, error) {
	c.mu.Lock()
	if c.state != stateUp {
		c.mu.Unlock()
		return Reply{}, blynkerr.ErrNotConnected
	}
	conn, corr := c.conn, c.corr
	c.mu.Unlock()

	reply, err := c.sendAwait(ctx, conn, corr, a)
	if err != nil {
		return Reply{}, err
	}
	if a.Kind == correlator.ResponseOnly && !reply.Code.IsOK() {
		return Reply{}, fmt.Errorf("%w", &blynkerr.ServerError{Code: uint32(reply.Code)})
	}

	c.trackDashboardState(a, reply)
	return reply, nil
}

// trackDashboardState updates the remembered active dashboard id after a
// successful ACTIVATE_DASHBOARD / DEACTIVATE_DASHBOARD.
func (c *Controller) trackDashboardState(a action.Action, reply Reply) {
	if !reply.Code.IsOK() {
		return
	}
	switch a.Command {
	case wire.ACTIVATE_DASHBOARD:
		id, err := parseIntPayload(a.Body)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.activeDashboardID = &id
		c.mu.Unlock()
	case wire.DEACTIVATE_DASHBOARD:
		c.mu.Lock()
		c.activeDashboardID = nil
		c.mu.Unlock()
	}
}

func parseIntPayload(body []byte) (int, error) {
	return strconv.Atoi(string(body))
}

// Disconnect tears down the current session (if any), cancels any
// in-progress reconnect attempt, and settles every pending request with
// ErrCancelled. Disconnect is idempotent.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	oldState := c.state
	c.state = stateClosed
	conn := c.conn
	corr := c.corr
	c.conn = nil
	c.corr = nil
	c.activeDashboardID = nil
	c.mu.Unlock()

	close(c.stopCh)
	c.stopPing()

	if conn != nil {
		conn.Close()
	}
	if corr != nil {
		corr.FailAll(blynkerr.ErrCancelled)
	}

	if oldState != stateDisconnected {
		c.events.Publish(event.Event{Kind: event.KindDisconnected, Timestamp: time.Now()})
		if c.callbacks.ConnectionStateChanged != nil {
			c.callbacks.ConnectionStateChanged(false)
		}
	}
}

// dial opens a fresh transport and correlator pair without authenticating,
// and starts the router on it so that replies, including the one to the
// authentication request, are resolved against the new correlator.
func (c *Controller) dial(ctx context.Context) (*transport.ClientConn, *correlator.Correlator, error) {
	address := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var tlsCfg *transport.TLSConfig
	switch {
	case c.tlsVerify != nil:
		tlsCfg = &transport.TLSConfig{ServerName: c.cfg.Host, VerifyConnection: c.tlsVerify}
	case c.cfg.InsecureSkipVerify:
		tlsCfg = &transport.TLSConfig{InsecureSkipVerify: true}
	default:
		tlsCfg = &transport.TLSConfig{ServerName: c.cfg.Host}
	}

	client := transport.NewClient(transport.ClientConfig{
		TLSConfig:      tlsCfg,
		ConnectTimeout: c.cfg.ResponseTimeout,
		Logger:         c.logger,
	})

	conn, err := client.Connect(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	corr := correlator.New()
	go c.runRouter(conn, corr)
	return conn, corr, nil
}

// connectAndAuth dials a fresh transport, authenticates with creds, and on
// success installs it as the controller's live session.
func (c *Controller) connectAndAuth(ctx context.Context, creds *credentials) error {
	conn, corr, err := c.dial(ctx)
	if err != nil {
		return err
	}

	reply, err := c.sendAwait(ctx, conn, corr, creds.loginAction())
	if err != nil {
		conn.Close()
		return err
	}
	if !reply.Code.IsOK() {
		conn.Close()
		return fmt.Errorf("%w", &blynkerr.AuthError{Code: uint32(reply.Code)})
	}

	c.mu.Lock()
	c.conn = conn
	c.corr = corr
	c.creds = creds
	c.state = stateUp
	c.mu.Unlock()

	c.startPing()

	if c.callbacks.ConnectionStateChanged != nil {
		c.callbacks.ConnectionStateChanged(true)
	}
	return nil
}

// sendAwait allocates a correlator id, sends a over conn, and blocks until
// corr resolves it, ctx is cancelled, or the response timeout elapses.
func (c *Controller) sendAwait(ctx context.Context, conn *transport.ClientConn, corr *correlator.Correlator, a action.Action) (Reply, error) {
	deadline := time.Now().Add(c.cfg.ResponseTimeout)
	id, await, err := corr.Allocate(a.Kind, deadline)
	if err != nil {
		return Reply{}, err
	}

	frame := wire.Frame{Command: a.Command, ID: id, Payload: a.Body}
	if err := conn.Send(frame); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", blynkerr.ErrConnectionClosed, err)
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case res := <-await:
		if res.Err != nil {
			return Reply{}, res.Err
		}
		return Reply{Code: res.Code, Frame: res.Frame}, nil
	case <-timer.C:
		return Reply{}, blynkerr.ErrTimeout
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// runRouter drains conn's decoded frames, resolving each against corr
// before falling back to publishing it as a domain event. It returns when
// the connection's Messages channel closes, at which point it starts the
// reconnect state machine (unless the controller has been explicitly
// disconnected).
func (c *Controller) runRouter(conn *transport.ClientConn, corr *correlator.Correlator) {
	for frame := range conn.Messages() {
		c.routeFrame(frame, corr)
	}
	c.onTransportDown(corr)
}

func (c *Controller) routeFrame(frame wire.Frame, corr *correlator.Correlator) {
	if frame.IsResponse() {
		if corr.ResolveResponse(frame.ID, frame.Code) {
			return
		}
		c.events.Publish(action.DecodeUnsolicitedResponse(frame.ID, frame.Code))
		return
	}

	if corr.ResolveData(frame) {
		return
	}

	ev := action.DecodeEvent(frame)
	c.events.Publish(ev)
	c.invokeCallback(ev)
}

func (c *Controller) invokeCallback(ev event.Event) {
	switch ev.Kind {
	case event.KindHardwareWrite:
		if c.callbacks.HardwareWrite != nil && ev.HardwareWrite != nil {
			c.callbacks.HardwareWrite(*ev.HardwareWrite)
		}
	case event.KindDeviceOffline:
		if c.callbacks.DeviceOffline != nil && ev.DeviceOffline != nil {
			c.callbacks.DeviceOffline(*ev.DeviceOffline)
		}
	}
}

// onTransportDown is invoked once the live connection's Messages channel
// closes. It fails every pending request on that connection's correlator
// and, unless the controller has been disconnected in the meantime, starts
// the reconnect loop.
func (c *Controller) onTransportDown(corr *correlator.Correlator) {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	// A newer connection may already have replaced this one (e.g. a
	// concurrent reconnect beat the router to the lock); only act if this
	// correlator is still the live one.
	if c.corr != corr {
		c.mu.Unlock()
		return
	}
	creds := c.creds
	c.state = stateReconnecting
	c.conn = nil
	c.mu.Unlock()

	c.stopPing()
	corr.FailAll(blynkerr.ErrConnectionClosed)

	if c.callbacks.ConnectionStateChanged != nil {
		c.callbacks.ConnectionStateChanged(false)
	}

	go c.reconnectLoop(creds)
}

// reconnectLoop implements the bounded exponential-backoff reconnect state
// machine: wait, dial, replay authentication, repeat on failure up to
// MaxReconnectAttempts before giving up.
func (c *Controller) reconnectLoop(creds *credentials) {
	backoff := connection.NewBackoffWithConfig(connection.BackoffConfig{
		Initial:    c.cfg.ReconnectBaseDelay,
		Max:        c.cfg.ReconnectMaxDelay,
		Multiplier: 1.5,
		Jitter:     0,
	})

	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		delay := backoff.Next()

		select {
		case <-time.After(delay):
		case <-c.stopCh:
			return
		}

		c.events.Publish(event.Event{
			Kind:         event.KindReconnecting,
			Timestamp:    time.Now(),
			Reconnecting: &event.Reconnecting{Attempt: attempt},
		})
		c.logger.Log(protolog.Event{
			Timestamp: time.Now(),
			Layer:     protolog.LayerSession,
			Category:  protolog.CategoryControl,
			ControlMsg: &protolog.ControlMsgEvent{
				Type:    protolog.ControlMsgReconnecting,
				Attempt: attempt,
			},
		})

		if c.isClosed() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ResponseTimeout)
		err := c.attemptReconnect(ctx, creds)
		cancel()
		if err == nil {
			c.logger.Log(protolog.Event{
				Timestamp:  time.Now(),
				Layer:      protolog.LayerSession,
				Category:   protolog.CategoryControl,
				ControlMsg: &protolog.ControlMsgEvent{Type: protolog.ControlMsgReconnected},
			})
			c.events.Publish(event.Event{Kind: event.KindReconnected, Timestamp: time.Now()})
			return
		}
	}

	c.mu.Lock()
	if c.state != stateClosed {
		c.state = stateDisconnected
	}
	c.mu.Unlock()
	c.events.Publish(event.Event{Kind: event.KindDisconnected, Timestamp: time.Now()})
}

// attemptReconnect dials one fresh transport and replays creds against it,
// installing the result as the live session on success.
func (c *Controller) attemptReconnect(ctx context.Context, creds *credentials) error {
	conn, corr, err := c.dial(ctx)
	if err != nil {
		return err
	}

	reply, err := c.sendAwait(ctx, conn, corr, creds.loginAction())
	if err != nil {
		conn.Close()
		return err
	}
	if !reply.Code.IsOK() {
		conn.Close()
		return fmt.Errorf("%w", &blynkerr.AuthError{Code: uint32(reply.Code)})
	}

	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		conn.Close()
		return blynkerr.ErrCancelled
	}
	c.conn = conn
	c.corr = corr
	c.state = stateUp
	c.mu.Unlock()

	c.startPing()

	if c.callbacks.ConnectionStateChanged != nil {
		c.callbacks.ConnectionStateChanged(true)
	}
	return nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosed
}

// startPing launches the keep-alive ticker for the current session.
func (c *Controller) startPing() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.pingCancel = cancel
	c.pingDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				corr := c.corr
				c.mu.Unlock()
				if corr != nil {
					corr.ExpireDeadlines(time.Now())
				}
				c.sendPing()
			}
		}
	}()
}

// sendPing issues a keep-alive PING. Failures are swallowed: the transport
// read loop closing Messages is what actually drives reconnection.
func (c *Controller) sendPing() {
	c.mu.Lock()
	conn, corr, up := c.conn, c.corr, c.state == stateUp
	c.mu.Unlock()
	if !up {
		return
	}

	c.logger.Log(protolog.Event{
		Timestamp:  time.Now(),
		Layer:      protolog.LayerSession,
		Category:   protolog.CategoryControl,
		ControlMsg: &protolog.ControlMsgEvent{Type: protolog.ControlMsgPing},
	})

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ResponseTimeout)
	defer cancel()
	if _, err := c.sendAwait(ctx, conn, corr, action.Ping()); err != nil {
		c.logger.Log(protolog.Event{
			Timestamp: time.Now(),
			Layer:     protolog.LayerSession,
			Category:  protolog.CategoryError,
			Error:     &protolog.ErrorEventData{Layer: protolog.LayerSession, Message: err.Error(), Context: "keep-alive ping"},
		})
	}
}

func (c *Controller) stopPing() {
	c.mu.Lock()
	cancel := c.pingCancel
	done := c.pingDone
	c.pingCancel = nil
	c.pingDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
