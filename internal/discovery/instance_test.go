package discovery

import (
	"testing"
	"time"
)

func TestInstance_String(t *testing.T) {
	instance := &Instance{
		Name:     "PicoTorrent on seedbox",
		Hostname: "seedbox.local",
		IP:       "192.168.1.24",
		Port:     7070,
	}

	expected := `PicoTorrent control endpoint "PicoTorrent on seedbox" at 192.168.1.24:7070`
	if instance.String() != expected {
		t.Errorf("Instance.String() = %v, want %v", instance.String(), expected)
	}
}

func TestInstance_URL(t *testing.T) {
	tests := []struct {
		name     string
		instance *Instance
		expected string
	}{
		{
			name: "default port",
			instance: &Instance{
				IP:   "192.168.1.24",
				Port: 7070,
			},
			expected: "wss://192.168.1.24:7070",
		},
		{
			name: "custom port",
			instance: &Instance{
				IP:   "10.0.0.5",
				Port: 9443,
			},
			expected: "wss://10.0.0.5:9443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.instance.URL(); got != tt.expected {
				t.Errorf("Instance.URL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInstance_GetMetadata(t *testing.T) {
	instance := &Instance{
		Metadata: map[string]string{
			"version":     "0.25.0",
			"fingerprint": "ab12cd34",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "existing key",
			key:      "version",
			expected: "0.25.0",
		},
		{
			name:     "another existing key",
			key:      "fingerprint",
			expected: "ab12cd34",
		},
		{
			name:     "non-existent key",
			key:      "missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := instance.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Instance.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestInstance_GetMetadata_NilMap(t *testing.T) {
	instance := &Instance{
		Metadata: nil,
	}

	if got := instance.GetMetadata("anything"); got != "" {
		t.Errorf("Instance.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestInstance_VersionAndFingerprint(t *testing.T) {
	instance := &Instance{
		Metadata: map[string]string{
			"version":     "0.25.0",
			"fingerprint": "ab12cd34",
		},
	}

	if got := instance.Version(); got != "0.25.0" {
		t.Errorf("Instance.Version() = %v, want 0.25.0", got)
	}
	if got := instance.Fingerprint(); got != "ab12cd34" {
		t.Errorf("Instance.Fingerprint() = %v, want ab12cd34", got)
	}
}

func TestInstance_DiscoveredAt(t *testing.T) {
	now := time.Now()
	instance := &Instance{
		Name:         "PicoTorrent on seedbox",
		DiscoveredAt: now,
	}

	if instance.DiscoveredAt != now {
		t.Errorf("Instance.DiscoveredAt = %v, want %v", instance.DiscoveredAt, now)
	}
}
