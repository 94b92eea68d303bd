package chathub

import "wantok/backend/internal/models"

// Client is the transport side of one live connection.
// The hub only ever writes to the send channel while holding its mutex, so events
// reach a client in the order the hub produced them.
type Client interface {
	// GetConnID returns the opaque, transport-level identity of the connection.
	GetConnID() string
	// GetSendChannel returns the buffered channel the hub pushes events into.
	// The hub never blocks on it: a full buffer closes the client.
	GetSendChannel() chan<- models.ServerEvent
	// Run starts the client's read and write pumps.
	Run()
	// Close asks the client to flush pending events and shut the transport down.
	// It must be safe to call more than once and from any goroutine.
	Close()
}
