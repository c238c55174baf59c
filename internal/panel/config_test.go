package panel

import (
	"testing"
	"time"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		address string
		port    int
		want    string
	}{
		{"192.168.1.20", 0, "192.168.1.20:4369"},
		{"omni.lan", 4370, "omni.lan:4370"},
		{"omni.lan:5000", 4370, "omni.lan:5000"},
		{"fe80::1", 0, "[fe80::1]:4369"},
	}
	for _, tt := range tests {
		cfg := Config{Address: tt.address, Port: tt.port}
		if got := cfg.HostPort(); got != tt.want {
			t.Errorf("HostPort(%q, %d) = %q, want %q", tt.address, tt.port, got, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.RetryInterval != 60*time.Second || cfg.PollInterval != 60*time.Second {
		t.Errorf("intervals = %s, %s", cfg.RetryInterval, cfg.PollInterval)
	}
	if cfg.ClockSyncInterval != time.Hour || cfg.ClockDriftThreshold != 60*time.Second {
		t.Errorf("clock = %s, %s", cfg.ClockSyncInterval, cfg.ClockDriftThreshold)
	}
	if cfg.Now == nil {
		t.Error("Now not defaulted")
	}
}
