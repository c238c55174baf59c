package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a request is issued without a secured session
	ErrNotConnected = errors.New("session: not connected")
	// ErrClosed is returned to requests still pending when the session is closed
	ErrClosed = errors.New("session: closed")
	// ErrTimeout indicates the controller did not answer within the request timeout
	ErrTimeout = errors.New("session: timeout waiting for response")
	// ErrConnectionLost indicates the connection failed while the session was up
	ErrConnectionLost = errors.New("session: connection lost")
	// ErrInvalidPrivateKey indicates the controller rejected the secure connection
	ErrInvalidPrivateKey = errors.New("session: private key is incorrect")
)

// HandshakeError reports a failure during session establishment
type HandshakeError struct {
	Stage string // "new session" or "secure connection"
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed during %s: %v", e.Stage, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
