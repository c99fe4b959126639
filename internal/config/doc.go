// Package config provides user configuration management for the hacklet CLI.
//
// This package manages a YAML-based configuration file that records the
// socket networks the user has commissioned, including the hardware id each
// socket announced, nicknames and last seen timestamps. The configuration
// follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/hacklet/config.yaml or $HOME/.config/hacklet/config.yaml
//   - macOS: $HOME/.config/hacklet/config.yaml
//   - Windows: %LOCALAPPDATA%\hacklet\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record a freshly commissioned network
//	registry.RecordNetwork(0x1234, 0xa1b2c3d4e5f6)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
