package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/session"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTransport indicates a socket failure, timeout or lost session
	ErrTypeTransport ErrorType = iota
	// ErrTypeHandshake indicates session establishment failed
	ErrTypeHandshake
	// ErrTypeDecode indicates an unexpected or undecodable response
	ErrTypeDecode
	// ErrTypeRejected indicates the controller did not acknowledge a command
	ErrTypeRejected
	// ErrTypeAuthorization indicates a security code was not accepted
	ErrTypeAuthorization
	// ErrTypeNotFound indicates the controller has no such object
	ErrTypeNotFound
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeHandshake:
		return "Handshake Error"
	case ErrTypeDecode:
		return "Protocol Decode Error"
	case ErrTypeRejected:
		return "Command Rejected"
	case ErrTypeAuthorization:
		return "Authorization Error"
	case ErrTypeNotFound:
		return "Not Found"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// PanelError represents a failed client operation
type PanelError struct {
	Type    ErrorType
	Op      string // Operation that failed, e.g. "arm area"
	Message string
	Err     error // Underlying error (if any)
}

// Error implements the error interface
func (e *PanelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Op, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *PanelError) Unwrap() error {
	return e.Err
}

// classify wraps an error from the session or message layer
func classify(op string, err error) *PanelError {
	if err == nil {
		return nil
	}
	var panelErr *PanelError
	if errors.As(err, &panelErr) {
		return panelErr
	}

	var handshakeErr *session.HandshakeError
	var decodeErr *message.DecodeError
	switch {
	case errors.Is(err, session.ErrInvalidPrivateKey):
		return &PanelError{Type: ErrTypeHandshake, Op: op, Message: "controller rejected the private key", Err: err}
	case errors.As(err, &handshakeErr):
		return &PanelError{Type: ErrTypeHandshake, Op: op, Message: "session handshake failed", Err: err}
	case errors.As(err, &decodeErr), errors.Is(err, message.ErrUnexpectedMessage):
		return &PanelError{Type: ErrTypeDecode, Op: op, Message: "unexpected response", Err: err}
	case errors.Is(err, session.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return &PanelError{Type: ErrTypeTransport, Op: op, Message: "controller not responding (timeout)", Err: err}
	default:
		return &PanelError{Type: ErrTypeTransport, Op: op, Message: "communication failed", Err: err}
	}
}

func isType(err error, t ErrorType) bool {
	var panelErr *PanelError
	return errors.As(err, &panelErr) && panelErr.Type == t
}

// IsTransportError checks if an error is a socket, timeout or session failure
func IsTransportError(err error) bool {
	return isType(err, ErrTypeTransport)
}

// IsHandshakeError checks if an error is a session establishment failure
func IsHandshakeError(err error) bool {
	return isType(err, ErrTypeHandshake)
}

// IsDecodeError checks if an error is an unexpected or undecodable response
func IsDecodeError(err error) bool {
	return isType(err, ErrTypeDecode)
}

// IsRejected checks if the controller refused a command
func IsRejected(err error) bool {
	return isType(err, ErrTypeRejected)
}

// IsAuthorizationError checks if a security code was refused
func IsAuthorizationError(err error) bool {
	return isType(err, ErrTypeAuthorization)
}

// IsNotFound checks if an object does not exist on the controller
func IsNotFound(err error) bool {
	return isType(err, ErrTypeNotFound)
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var panelErr *PanelError
	if !errors.As(err, &panelErr) {
		return err.Error()
	}

	switch panelErr.Type {
	case ErrTypeTransport:
		if errors.Is(panelErr.Err, session.ErrTimeout) || errors.Is(panelErr.Err, context.DeadlineExceeded) {
			return "Controller not responding (timeout)"
		}
		return "Cannot reach controller - check address and network"
	case ErrTypeHandshake:
		if errors.Is(panelErr.Err, session.ErrInvalidPrivateKey) {
			return "Controller rejected the private key"
		}
		return "Session handshake failed"
	case ErrTypeDecode:
		return "Unexpected response from controller"
	case ErrTypeRejected:
		return "Controller rejected the command"
	case ErrTypeAuthorization:
		return "Invalid security code"
	default:
		return panelErr.Message
	}
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	var panelErr *PanelError
	if !errors.As(err, &panelErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch panelErr.Type {
	case ErrTypeTransport:
		return strings.Join([]string{
			"The controller could not be reached.",
			"Troubleshooting:",
			"  • Check that the controller address and port are correct (default port 4369)",
			"  • Verify network connectivity to the controller",
			"  • Only one Omni-Link session may be open; close other clients",
		}, "\n")
	case ErrTypeHandshake:
		return strings.Join([]string{
			"The controller refused the encrypted session.",
			"Troubleshooting:",
			"  • Compare the private key with the one configured on the controller",
			"  • The key is 32 hex digits; separators are ignored",
		}, "\n")
	case ErrTypeAuthorization:
		return "The security code is not valid for this area."
	default:
		return "An error occurred. Please check the error message for details."
	}
}
