package message

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates a payload shorter than its message type requires
	ErrTruncated = errors.New("message truncated")
	// ErrMalformed indicates an envelope or field that cannot be interpreted
	ErrMalformed = errors.New("message malformed")
	// ErrUnexpectedMessage indicates a message type the caller did not expect
	ErrUnexpectedMessage = errors.New("unexpected message type")
)

// DecodeError describes why a payload could not be decoded
type DecodeError struct {
	Type    MessageType
	Err     error
	Message string
}

func newDecodeError(t MessageType, err error, format string, args ...any) *DecodeError {
	return &DecodeError{Type: t, Err: err, Message: fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v: %s", e.Type, e.Err, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Expect asserts that msg has the concrete type T, converting a negative
// acknowledgement or any other message into an ErrUnexpectedMessage error
func Expect[T Message](msg Message) (T, error) {
	if typed, ok := msg.(T); ok {
		return typed, nil
	}
	var zero T
	if msg == nil {
		return zero, fmt.Errorf("%w: no response", ErrUnexpectedMessage)
	}
	return zero, fmt.Errorf("%w: got %s", ErrUnexpectedMessage, msg)
}
