package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/picotorrent/picoremote/internal/logging"
)

const (
	// ServiceType is the mDNS service type advertised by running instances
	ServiceType = "_picotorrent-rc._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for endpoint discovery
	DefaultScanTimeout = 10 * time.Second
)

// Scanner handles mDNS discovery of control endpoints
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all control endpoints on the local network
// Returns a list of discovered instances or an error
func (s *Scanner) Scan() ([]*Instance, error) {
	return s.ScanWithContext(context.Background())
}

// ScanWithContext discovers endpoints with a custom context
func (s *Scanner) ScanWithContext(ctx context.Context) ([]*Instance, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	instances := make([]*Instance, 0)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine. The resolver closes the entries
	// channel after the context expires, so the slice is only handed back
	// once the collector has fully drained it.
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for entry := range entries {
			instance := s.parseServiceEntry(entry)
			if instance != nil {
				instances = append(instances, instance)
			}
		}
	}()

	// Start browsing for control endpoints
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the timeout, then for the collector to finish draining
	<-ctx.Done()
	<-collected

	return instances, nil
}

// WaitForInstance waits for an endpoint advertised under the given instance name
// Returns the instance or an error if not found within timeout
func (s *Scanner) WaitForInstance(name string) (*Instance, error) {
	return s.WaitForInstanceWithContext(context.Background(), name)
}

// WaitForInstanceWithContext waits for a named endpoint with a custom context
func (s *Scanner) WaitForInstanceWithContext(ctx context.Context, name string) (*Instance, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	instanceChan := make(chan *Instance, 1)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine
	go func() {
		for entry := range entries {
			instance := s.parseServiceEntry(entry)
			if instance != nil && instance.Name == name {
				instanceChan <- instance
				cancel() // Found the endpoint, cancel context
				return
			}
		}
	}()

	// Start browsing for control endpoints
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for instance or timeout
	select {
	case instance := <-instanceChan:
		return instance, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("endpoint %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance
// Returns nil if the entry cannot be reached
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	if entry.Port == 0 {
		return nil
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan for endpoints with a custom timeout
func Scan(timeout time.Duration) ([]*Instance, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan()
}

// Advertiser announces a running control endpoint over mDNS so clients
// on the local network can find it without knowing the address
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers the control endpoint as an mDNS service.
// The fingerprint is published in the TXT record so clients can pin
// the self-signed certificate before connecting.
func Advertise(name string, port int, version, fingerprint string) (*Advertiser, error) {
	txt := []string{
		"version=" + version,
		"fingerprint=" + fingerprint,
	}

	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising control endpoint over mDNS",
		zap.String("instance", name),
		zap.String("service", ServiceType),
		zap.Int("port", port))

	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the mDNS advertisement
func (a *Advertiser) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
