package main

import (
	"strings"
	"testing"

	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/session"
	"github.com/muurk/omnilink/internal/ui"
)

func TestFailureResult(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ui.ResultType
		wantTitle string
	}{
		{
			name:      "rejected command",
			err:       &panel.PanelError{Type: panel.ErrTypeRejected, Op: "command", Message: "negative acknowledge"},
			want:      ui.ResultWarning,
			wantTitle: "Arm not accepted",
		},
		{
			name:      "transport",
			err:       &panel.PanelError{Type: panel.ErrTypeTransport, Op: "command", Err: session.ErrConnectionLost},
			want:      ui.ResultFailure,
			wantTitle: "Arm",
		},
		{
			name:      "bad code",
			err:       &panel.PanelError{Type: panel.ErrTypeAuthorization, Op: "validate code"},
			want:      ui.ResultFailure,
			wantTitle: "Arm",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := failureResult("Arm", tt.err)
			if r.Type != tt.want {
				t.Errorf("Type = %d, want %d", r.Type, tt.want)
			}
			if r.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", r.Title, tt.wantTitle)
			}
		})
	}

	r := failureResult("Arm", &panel.PanelError{Type: panel.ErrTypeRejected, Op: "command"})
	if len(r.Details) != 1 || r.Details[0].Value != "Controller rejected the command" {
		t.Errorf("Details = %+v", r.Details)
	}
	if r.Error != nil {
		t.Errorf("warning carries error %v", r.Error)
	}
	if !strings.Contains(r.Render(), "WARNING") {
		t.Error("rendered result is not a warning")
	}
}
