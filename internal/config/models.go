package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muurk/omnilink/internal/protocol"
)

// currentVersion is the config file schema version
const currentVersion = 1

// Registry represents the entire user configuration file
type Registry struct {
	Version int                 `yaml:"version"`
	Default string              `yaml:"default,omitempty"` // Profile used when none is named
	Panels  map[string]*Profile `yaml:"panels,omitempty"`  // Keyed by profile name
}

// Profile holds the connection settings for one controller
type Profile struct {
	Address            string `yaml:"address"`
	Port               int    `yaml:"port,omitempty"`
	Key                string `yaml:"key,omitempty"`      // 32 hex digits
	KeyFile            string `yaml:"key_file,omitempty"` // File holding the key; ~ expands to $HOME
	ClockSync          bool   `yaml:"clock_sync"`
	Notifications      bool   `yaml:"notifications"`
	ShowProtocolEvents bool   `yaml:"show_protocol_events,omitempty"`
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Version: currentVersion,
		Panels:  make(map[string]*Profile),
	}
}

// Profile returns the named profile, or the default profile when name is
// empty. The second result is the resolved name.
func (r *Registry) Profile(name string) (*Profile, string, error) {
	if name == "" {
		name = r.Default
	}
	if name == "" && len(r.Panels) == 1 {
		for only := range r.Panels {
			name = only
		}
	}
	if name == "" {
		return nil, "", fmt.Errorf("no profile named and no default profile set")
	}
	p, ok := r.Panels[name]
	if !ok {
		return nil, name, fmt.Errorf("profile %q not found", name)
	}
	return p, name, nil
}

// SetProfile adds or replaces a profile. The first profile added becomes
// the default.
func (r *Registry) SetProfile(name string, p *Profile) {
	if r.Panels == nil {
		r.Panels = make(map[string]*Profile)
	}
	r.Panels[name] = p
	if r.Default == "" {
		r.Default = name
	}
}

// RemoveProfile deletes a profile, clearing the default if it pointed there
func (r *Registry) RemoveProfile(name string) bool {
	if _, ok := r.Panels[name]; !ok {
		return false
	}
	delete(r.Panels, name)
	if r.Default == name {
		r.Default = ""
	}
	return true
}

// Names returns the profile names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Panels))
	for name := range r.Panels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasKey reports whether the profile can supply a key without prompting
func (p *Profile) HasKey() bool {
	return p.Key != "" || p.KeyFile != ""
}

// PrivateKey resolves the profile key from Key or KeyFile
func (p *Profile) PrivateKey() (protocol.Key, error) {
	if p.Key != "" {
		return protocol.ParsePrivateKey(p.Key)
	}
	if p.KeyFile == "" {
		return protocol.Key{}, fmt.Errorf("profile has no key or key_file")
	}

	path, err := expandHome(p.KeyFile)
	if err != nil {
		return protocol.Key{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.Key{}, fmt.Errorf("failed to read key file: %w", err)
	}
	return protocol.ParsePrivateKey(strings.TrimSpace(string(data)))
}

// expandHome replaces a leading ~ with the user home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
