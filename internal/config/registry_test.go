package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/muurk/omnilink/internal/protocol"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f"

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != "/tmp/xdg/omnilink" {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/omnilink", configDir)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestRegistryProfiles(t *testing.T) {
	reg := NewRegistry()
	if reg.Version != 1 || reg.Panels == nil {
		t.Fatalf("NewRegistry() = %+v", reg)
	}

	// A single profile is used without a default
	reg.Panels["cabin"] = &Profile{Address: "10.0.0.9"}
	if _, name, err := reg.Profile(""); err != nil || name != "cabin" {
		t.Errorf("Profile(\"\") = %q, %v", name, err)
	}
	delete(reg.Panels, "cabin")

	reg.SetProfile("home", &Profile{Address: "192.168.1.20"})
	reg.SetProfile("office", &Profile{Address: "10.1.1.5"})

	if reg.Default != "home" {
		t.Errorf("Default = %q, want first profile added", reg.Default)
	}
	p, name, err := reg.Profile("")
	if err != nil || name != "home" || p.Address != "192.168.1.20" {
		t.Errorf("Profile(\"\") = %+v, %q, %v", p, name, err)
	}
	if _, _, err := reg.Profile("garage"); err == nil {
		t.Error("Profile(garage) should fail")
	}
	if got := reg.Names(); len(got) != 2 || got[0] != "home" || got[1] != "office" {
		t.Errorf("Names() = %v", got)
	}

	if !reg.RemoveProfile("home") || reg.Default != "" {
		t.Errorf("RemoveProfile(home) left default %q", reg.Default)
	}
	if reg.RemoveProfile("home") {
		t.Error("RemoveProfile() of missing profile returned true")
	}
	if _, _, err := reg.Profile(""); err != nil {
		t.Errorf("Profile(\"\") with one profile left: %v", err)
	}
}

func TestProfilePrivateKey(t *testing.T) {
	want, err := protocol.ParsePrivateKey(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}

	keyFile := filepath.Join(t.TempDir(), "omni.key")
	if err := os.WriteFile(keyFile, []byte(" 00-01-02-03-04-05-06-07-08-09-0A-0B-0C-0D-0E-0F\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"inline", Profile{Key: testKeyHex}, false},
		{"file", Profile{KeyFile: keyFile}, false},
		{"inline wins", Profile{Key: testKeyHex, KeyFile: "/nonexistent"}, false},
		{"missing file", Profile{KeyFile: filepath.Join(t.TempDir(), "nope")}, true},
		{"bad hex", Profile{Key: "zz"}, true},
		{"none", Profile{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.profile.PrivateKey()
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrivateKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != want {
				t.Errorf("PrivateKey() = %s, want %s", got, want)
			}
			if tt.profile.HasKey() == (tt.name == "none") {
				t.Errorf("HasKey() = %t", tt.profile.HasKey())
			}
		})
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.SetProfile("home", &Profile{
		Address:       "192.168.1.20",
		Port:          4370,
		KeyFile:       "~/.omni.key",
		ClockSync:     true,
		Notifications: true,
	})
	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# Omni-Link controller profiles") {
		t.Errorf("missing header:\n%s", data)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	p, _, err := loaded.Profile("home")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if *p != *reg.Panels["home"] {
		t.Errorf("loaded profile = %+v, want %+v", p, reg.Panels["home"])
	}
	if loaded.Default != "home" {
		t.Errorf("loaded Default = %q", loaded.Default)
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()

	reg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	if err != nil || len(reg.Panels) != 0 {
		t.Errorf("LoadFrom(missing) = %+v, %v", reg, err)
	}

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"minimal", "version: 1\n", false},
		{"profiles", "version: 1\ndefault: a\npanels:\n  a:\n    address: omni.lan\n    clock_sync: true\n", false},
		{"future version", "version: 2\n", true},
		{"not yaml", "version: [\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			reg, err := LoadFrom(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFrom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && reg.Panels == nil {
				t.Error("Panels not initialized")
			}
		})
	}
}
