package chathub

import "errors"

var (
	// ErrNotAuthenticated is returned when a connection searches before authenticating.
	ErrNotAuthenticated = errors.New("connection is not authenticated")
	// ErrConnectionClosed is returned for operations on a connection the hub no longer tracks.
	ErrConnectionClosed = errors.New("connection closed")
)

// Error codes carried by "error" events.
const (
	CodeNotAuthenticated = "not_authenticated"
	CodeBadRequest       = "bad_request"
	CodeAuthUnavailable  = "auth_unavailable"
	CodeAuthFailed       = "auth_failed"
	CodeSessionReplaced  = "session_replaced"
)
