// Package correlator matches inbound frames to outstanding requests by
// message id, and expires requests that go unanswered.
package correlator
