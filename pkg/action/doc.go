// Package action holds the pure mapping between typed domain actions and
// the wire frames that carry them, and the inverse mapping from an inbound
// frame to a domain event.
package action
