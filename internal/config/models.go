package config

import (
	"fmt"
	"time"
)

// Registry represents the entire user configuration file.
// This stores metadata for the networks the user has commissioned.
type Registry struct {
	Version  int                 `yaml:"version"`
	Networks map[string]*Network `yaml:"networks,omitempty"` // Keyed by network id, e.g. "0x1234"
}

// Network represents one commissioned socket network.
// This is keyed by the network's id in the Registry.
type Network struct {
	DeviceID string    `yaml:"device_id"`           // Hardware id the socket announced, e.g. "0xa1b2c3d4e5f6"
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last commission time
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Networks: make(map[string]*Network),
	}
}

// NetworkKey formats a network id the way the registry keys it.
func NetworkKey(networkID uint16) string {
	return fmt.Sprintf("0x%04x", networkID)
}

// GetNetwork retrieves network metadata by id.
// Returns nil if the network doesn't exist in the registry.
func (r *Registry) GetNetwork(networkID uint16) *Network {
	return r.Networks[NetworkKey(networkID)]
}

// EnsureNetwork ensures a network entry exists in the registry.
// If the network doesn't exist, creates a new entry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureNetwork(networkID uint16) *Network {
	if r.Networks == nil {
		r.Networks = make(map[string]*Network)
	}

	key := NetworkKey(networkID)
	if network, exists := r.Networks[key]; exists {
		return network
	}

	network := &Network{}
	r.Networks[key] = network
	return network
}

// RecordNetwork records a freshly commissioned network and the device
// that announced it, updating the last seen timestamp.
func (r *Registry) RecordNetwork(networkID uint16, deviceID uint64) {
	network := r.EnsureNetwork(networkID)
	network.DeviceID = fmt.Sprintf("0x%x", deviceID)
	network.LastSeen = time.Now()
}

// SetNetworkNickname sets a user-friendly nickname for a network.
func (r *Registry) SetNetworkNickname(networkID uint16, nickname string) {
	network := r.EnsureNetwork(networkID)
	network.Nickname = nickname
}
