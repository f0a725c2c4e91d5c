package core

import "errors"

var (
	// ErrUnrecognizedEvent aborts handling of a single inbound event.
	ErrUnrecognizedEvent = errors.New("unrecognized event")
	// ErrPersistence means the registration write failed; no reply is sent.
	ErrPersistence = errors.New("persistence error")
	// ErrTransport wraps push and forward failures. It is logged, never shown to the user.
	ErrTransport = errors.New("transport error")
)
