package correlator

import (
	"fmt"
	"sync"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// Kind distinguishes what a pending request expects as its resolving
// frame. Both kinds share the same outbound message id space.
type Kind int

const (
	// ResponseOnly resolves when a RESPONSE frame with the matching id
	// arrives. This is the common case: LOGIN, HARDWARE, SET_WIDGET_PROPERTY
	// and friends all reply with a bare status.
	ResponseOnly Kind = iota

	// DataResponse resolves when a non-RESPONSE frame with the matching id
	// arrives, carrying payload. LOAD_PROFILE_GZIPPED is the prototypical
	// example: the server's reply is a command-shaped frame sharing the
	// request's id, not a RESPONSE.
	DataResponse
)

// Result is delivered on a pending request's await channel exactly once.
type Result struct {
	// Code is set for a ResponseOnly resolution.
	Code wire.Status
	// Frame is set for a DataResponse resolution.
	Frame wire.Frame
	// Err is set if the request failed for any reason (server error,
	// timeout, disconnect, cancellation).
	Err error
}

type pending struct {
	kind     Kind
	deadline time.Time
	await    chan Result
	done     bool
}

// Correlator maps outbound message ids to pending requests awaiting a
// reply, and expires entries that go unanswered past their deadline.
//
// A fresh Correlator is created per TLS session; it is never reused across
// reconnects; the prior instance's FailAll is called before being
// discarded.
type Correlator struct {
	mu      sync.Mutex
	next    uint16
	pending map[uint16]*pending
}

// New returns an empty correlator.
func New() *Correlator {
	return &Correlator{pending: make(map[uint16]*pending)}
}

// Allocate reserves the next message id, registers a pending request of the
// given kind with the given deadline, and returns the id together with a
// channel that receives exactly one Result.
//
// The id space wraps modulo 2^16. If every id is currently pending,
// Allocate returns ErrSaturated.
func (c *Correlator) Allocate(kind Kind, deadline time.Time) (uint16, <-chan Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) >= 1<<16 {
		return 0, nil, blynkerr.ErrSaturated
	}

	id := c.next
	for {
		if _, taken := c.pending[id]; !taken {
			break
		}
		id++
	}
	c.next = id + 1

	await := make(chan Result, 1)
	c.pending[id] = &pending{kind: kind, deadline: deadline, await: await}
	return id, await, nil
}

// ResolveResponse handles an inbound RESPONSE frame. A ResponseOnly entry
// at id completes immediately. A DataResponse entry at id is left pending
// unless code is a failure, in which case it fails with ServerError.
//
// ResolveResponse reports whether a pending entry was resolved or failed;
// callers forward unresolved RESPONSE frames to the router as plain events.
func (c *Correlator) ResolveResponse(id uint16, code wire.Status) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if !ok || p.done {
		c.mu.Unlock()
		return false
	}

	switch p.kind {
	case ResponseOnly:
		p.done = true
		delete(c.pending, id)
		c.mu.Unlock()
		p.await <- Result{Code: code}
		return true
	case DataResponse:
		if code.IsOK() {
			c.mu.Unlock()
			return false
		}
		p.done = true
		delete(c.pending, id)
		c.mu.Unlock()
		p.await <- Result{Err: fmt.Errorf("%w", &blynkerr.ServerError{Code: uint32(code)})}
		return true
	default:
		c.mu.Unlock()
		return false
	}
}

// ResolveData handles an inbound non-RESPONSE frame. If a DataResponse
// entry exists at frame.ID it completes with the frame and ResolveData
// reports true; otherwise it reports false and the frame should be routed
// as a domain event.
func (c *Correlator) ResolveData(frame wire.Frame) bool {
	c.mu.Lock()
	p, ok := c.pending[frame.ID]
	if !ok || p.done || p.kind != DataResponse {
		c.mu.Unlock()
		return false
	}
	p.done = true
	delete(c.pending, frame.ID)
	c.mu.Unlock()

	p.await <- Result{Frame: frame}
	return true
}

// FailAll completes every pending entry with err. Used on disconnect, where
// err is typically blynkerr.ErrConnectionClosed, and on explicit
// Disconnect, where it is blynkerr.ErrCancelled.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()
	entries := c.pending
	c.pending = make(map[uint16]*pending)
	c.mu.Unlock()

	for _, p := range entries {
		p.await <- Result{Err: err}
	}
}

// ExpireDeadlines completes every pending entry whose deadline has passed
// with blynkerr.ErrTimeout. Intended to be called periodically (e.g. from
// the session's keep-alive ticker) rather than per-request.
func (c *Correlator) ExpireDeadlines(now time.Time) {
	c.mu.Lock()
	var expired []*pending
	for id, p := range c.pending {
		if !p.deadline.IsZero() && now.After(p.deadline) {
			expired = append(expired, p)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()

	for _, p := range expired {
		p.await <- Result{Err: blynkerr.ErrTimeout}
	}
}

// Len reports the number of requests currently pending.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
