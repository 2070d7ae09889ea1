package ws

import "errors"

var (
	// ErrOutboxFull is returned by Deliver when the session cannot take more events.
	ErrOutboxFull = errors.New("websocket outbox full")
	// ErrSessionClosed is returned by Deliver after the session has closed.
	ErrSessionClosed = errors.New("websocket session closed")
	// ErrSessionShutdown is emitted when the server requests a session shutdown.
	ErrSessionShutdown = errors.New("websocket session shutdown")
)
