// Package config manages connection profiles for Omni-Link controllers.
//
// Profiles live in a YAML file stored in the platform configuration
// directory:
//   - Linux: $XDG_CONFIG_HOME/omnilink/config.yaml or $HOME/.config/omnilink/config.yaml
//   - macOS: $HOME/.config/omnilink/config.yaml
//   - Windows: %LOCALAPPDATA%\omnilink\config.yaml
//
// # Private keys
//
// A profile may carry the controller private key inline (Key) or point at a
// file holding it (KeyFile). When neither is set the CLI prompts for the key.
// The file is written with user-only permissions either way.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetProfile("home", &config.Profile{
//	    Address:       "192.168.1.20",
//	    KeyFile:       "~/.omni.key",
//	    ClockSync:     true,
//	    Notifications: true,
//	})
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry is loaded once. Writes are serialized and atomic.
package config
