package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"invalid key", fmt.Errorf("connect: %w", session.ErrInvalidPrivateKey), ErrTypeHandshake},
		{"handshake", &session.HandshakeError{Stage: "new session", Err: errors.New("eof")}, ErrTypeHandshake},
		{"unexpected", fmt.Errorf("%w: got NAK", message.ErrUnexpectedMessage), ErrTypeDecode},
		{"timeout", session.ErrTimeout, ErrTypeTransport},
		{"deadline", context.DeadlineExceeded, ErrTypeTransport},
		{"lost", session.ErrConnectionLost, ErrTypeTransport},
		{"existing", &PanelError{Type: ErrTypeNotFound, Op: "get status"}, ErrTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("op", tt.err)
			if got.Type != tt.want {
				t.Errorf("classify() type = %s, want %s", got.Type, tt.want)
			}
			if !errors.Is(got, tt.err) && got != tt.err {
				t.Errorf("classify() lost the cause %v", tt.err)
			}
		})
	}

	if classify("op", nil) != nil {
		t.Error("classify(nil) != nil")
	}
}

func TestErrorPredicates(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &PanelError{Type: ErrTypeAuthorization, Op: "arm area", Message: "code not valid"})
	if !IsAuthorizationError(err) {
		t.Error("IsAuthorizationError() = false through wrapping")
	}
	if IsRejected(err) || IsTransportError(err) || IsNotFound(err) {
		t.Error("predicate matched the wrong type")
	}
	if IsDecodeError(errors.New("plain")) {
		t.Error("IsDecodeError() matched a plain error")
	}
}

func TestPanelErrorMessages(t *testing.T) {
	cause := session.ErrTimeout
	err := classify("system status", cause)

	if !strings.Contains(err.Error(), "system status") || !strings.Contains(err.Error(), cause.Error()) {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := ShortMessage(err); got != "Controller not responding (timeout)" {
		t.Errorf("ShortMessage() = %q", got)
	}
	if got := ShortMessage(errors.New("plain")); got != "plain" {
		t.Errorf("ShortMessage(plain) = %q", got)
	}
	if hint := TroubleshootingHint(err); !strings.Contains(hint, "4369") {
		t.Errorf("TroubleshootingHint() = %q", hint)
	}
	if hint := TroubleshootingHint(classify("connect", session.ErrInvalidPrivateKey)); !strings.Contains(hint, "private key") {
		t.Errorf("TroubleshootingHint(handshake) = %q", hint)
	}
	if ErrTypeNotFound.String() != "Not Found" || ErrorType(42).String() != "ErrorType(42)" {
		t.Error("ErrorType.String() mismatch")
	}
}
