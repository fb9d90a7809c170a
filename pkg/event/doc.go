// Package event defines the domain events the session controller emits on
// its public event stream, and a small broadcaster for fanning them out to
// observers.
package event
