package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"FIRE\n", true},
		{"  FIRE  \n", true},
		{"fire\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Fire emergency", []string{"Sirens will sound"}, "FIRE")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %t, want %t", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Sirens will sound") {
			t.Errorf("warning not shown for %q", tt.input)
		}
	}
}

func TestTableRender(t *testing.T) {
	table := &Table{
		Title: "Zones",
		Rows: []Row{
			{ID: 1, Name: "FRONT DOOR", State: "secure"},
			{ID: 12, Name: "GARAGE", State: "not ready", Level: LevelNotice, Detail: "loop 253"},
		},
	}
	out := table.Render()
	for _, want := range []string{"ZONES", "FRONT DOOR", "not ready", "loop 253", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	empty := (&Table{}).Render()
	if !strings.Contains(empty, "(none)") {
		t.Errorf("empty table = %q", empty)
	}
}

func TestResultRender(t *testing.T) {
	out := NewFailureResult("Arm failed", errors.New("code rejected"), []string{"Check the code"}).
		SetWidth(80).
		Render()
	for _, want := range []string{"FAILED", "Arm failed", "code rejected", "Troubleshooting:", "Check the code"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	ok := NewSuccessResult("Unit on").AddDetail("Unit", "PORCH").Render()
	if !strings.Contains(ok, "PORCH") || !strings.Contains(ok, "SUCCESS") {
		t.Errorf("success Render() = %q", ok)
	}
}

func TestHeaderRender(t *testing.T) {
	out := NewHeader("Zone status", "omnilink status zones", []Param{{Key: "Controller", Value: "omni.lan:4369"}}).
		SetWidth(70).
		Render()
	for _, want := range []string{"ZONE STATUS", "omnilink status zones", "Controller:", "omni.lan:4369"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}
}
