package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) || core.Enabled(zapcore.InfoLevel) {
		t.Error("logger level does not match OMNILINK_LOG_LEVEL=warn")
	}
}

func TestLogPacket(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	LogPacket(l, "rx", 7, "ApplicationData", []byte{0x00, 0x07, 0x20, 0x00}, []byte{0x21, 0x01, 0x01})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["direction"] != "rx" || fields["seq"] != uint16(7) {
		t.Errorf("fields = %v", fields)
	}
	if fields["wire"] != "00072000" || fields["payload"] != "210101" {
		t.Errorf("hex fields = %v", fields)
	}
}

func TestDumps(t *testing.T) {
	if got := asciiDump([]byte("ok\x00")); got != "ok." {
		t.Errorf("asciiDump() = %q", got)
	}
	long := make([]byte, 300)
	if got := hexDump(long); len(got) != 512+3 {
		t.Errorf("hexDump() length = %d, want truncation at 256 bytes", len(got))
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	LogRawBytes(zap.New(core), "Undecodable response", []byte{0x21, 0x02, 'O', 'K'})

	entries := logs.FilterMessage("Undecodable response").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "21024f4b" || fields["ascii"] != "!.OK" || fields["length"] != int64(4) {
		t.Errorf("fields = %v", fields)
	}
}
