package discovery

import (
	"fmt"
	"time"
)

// Instance represents a discovered remote-control endpoint on the network
type Instance struct {
	// Name is the mDNS instance name (e.g., "PicoTorrent on seedbox")
	Name string

	// Hostname is the mDNS hostname (e.g., "seedbox.local")
	Hostname string

	// IP is the address to reach the endpoint at (IPv4 preferred)
	IP string

	// Port is the control-channel TCP port
	Port int

	// Metadata contains the mDNS TXT record data
	// Known fields: "version=...", "fingerprint=..."
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instance
func (i *Instance) String() string {
	return fmt.Sprintf("PicoTorrent control endpoint %q at %s:%d", i.Name, i.IP, i.Port)
}

// URL returns the wss URL of the control endpoint
func (i *Instance) URL() string {
	return fmt.Sprintf("wss://%s:%d", i.IP, i.Port)
}

// Version returns the advertised application version, or empty string
func (i *Instance) Version() string {
	return i.GetMetadata("version")
}

// Fingerprint returns the advertised certificate fingerprint, which a
// client can pin instead of trusting the self-signed certificate blindly
func (i *Instance) Fingerprint() string {
	return i.GetMetadata("fingerprint")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
