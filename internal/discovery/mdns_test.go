package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid endpoint with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on seedbox"},
				HostName:      "seedbox.local.",
				Port:          7070,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.24")},
				Text:          []string{"version=0.25.0", "fingerprint=ab12cd34"},
			},
			wantNil:  false,
			wantName: "PicoTorrent on seedbox",
			wantIP:   "192.168.1.24",
			wantPort: 7070,
		},
		{
			name: "valid endpoint with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on htpc"},
				HostName:      "htpc.local",
				Port:          9443,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "PicoTorrent on htpc",
			wantIP:   "10.0.0.5",
			wantPort: 9443,
		},
		{
			name: "empty instance name",
			entry: &zeroconf.ServiceEntry{
				HostName: "nameless.local",
				Port:     7070,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on seedbox"},
				HostName:      "seedbox.local",
				Port:          7070,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on seedbox"},
				HostName:      "seedbox.local",
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.24")},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only endpoint",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on nas"},
				HostName:      "nas.local",
				Port:          7070,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "PicoTorrent on nas",
			wantIP:   "fe80::1",
			wantPort: 7070,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on nas"},
				HostName:      "nas.local",
				Port:          7070,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantName: "PicoTorrent on nas",
			wantIP:   "192.168.1.50",
			wantPort: 7070,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if instance != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", instance)
				}
				return
			}

			if instance == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil instance")
			}

			if instance.Name != tt.wantName {
				t.Errorf("instance.Name = %v, want %v", instance.Name, tt.wantName)
			}

			if instance.IP != tt.wantIP {
				t.Errorf("instance.IP = %v, want %v", instance.IP, tt.wantIP)
			}

			if instance.Port != tt.wantPort {
				t.Errorf("instance.Port = %v, want %v", instance.Port, tt.wantPort)
			}

			if instance.Hostname != tt.entry.HostName {
				t.Errorf("instance.Hostname = %v, want %v", instance.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(instance.DiscoveredAt) > time.Second {
				t.Errorf("instance.DiscoveredAt is not recent: %v", instance.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "PicoTorrent on seedbox"},
		HostName:      "seedbox.local",
		Port:          7070,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.24")},
		Text:          []string{"version=0.25.0", "fingerprint=ab12cd34", "flag"},
	}

	instance := scanner.parseServiceEntry(entry)
	if instance == nil {
		t.Fatal("parseServiceEntry() = nil, want instance")
	}

	// Check metadata parsing
	expectedMetadata := map[string]string{
		"version":     "0.25.0",
		"fingerprint": "ab12cd34",
		"flag":        "", // Key without value
	}

	if len(instance.Metadata) != len(expectedMetadata) {
		t.Errorf("instance.Metadata has %d entries, want %d", len(instance.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := instance.Metadata[key]; !ok {
			t.Errorf("instance.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("instance.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}

	if instance.Version() != "0.25.0" {
		t.Errorf("instance.Version() = %q, want 0.25.0", instance.Version())
	}
	if instance.Fingerprint() != "ab12cd34" {
		t.Errorf("instance.Fingerprint() = %q, want ab12cd34", instance.Fingerprint())
	}
}

func TestScanReturnsAfterDraining(t *testing.T) {
	scanner := NewScanner()
	scanner.Timeout = 100 * time.Millisecond

	// The result slice must only be handed back once the collector has
	// drained the resolver's entries channel; no appends may land after
	// return. A hung drain would keep this call from returning at all.
	done := make(chan struct{})
	var instances []*Instance
	var err error
	go func() {
		defer close(done)
		instances, err = scanner.Scan()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Scan() did not return after its timeout")
	}

	// No multicast interface is an acceptable failure; a successful scan
	// must yield a usable (possibly empty) slice
	if err == nil && instances == nil {
		t.Error("Scan() = nil slice with nil error")
	}
}

func TestWaitForInstanceTimesOut(t *testing.T) {
	scanner := NewScanner()
	scanner.Timeout = 100 * time.Millisecond

	instance, err := scanner.WaitForInstance("no-such-endpoint-anywhere")
	if err == nil {
		t.Fatalf("WaitForInstance() = %v, want timeout error", instance)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and a running instance, and are not part of the unit test suite.
