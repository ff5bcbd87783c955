// Package discovery provides mDNS advertisement and discovery of control endpoints.
//
// A running application can advertise its secure control endpoint on the local
// network under the "_picotorrent-rc._tcp" service type, and remote-control
// clients can browse for it instead of typing addresses by hand.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements from running instances
//  3. Collects endpoint information (instance name, IP, port, TXT metadata)
//  4. Returns a list of discovered instances after the timeout period
//
// # Usage Example
//
//	// Discover endpoints with 10-second timeout
//	instances, err := discovery.Scan(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, instance := range instances {
//	    fmt.Printf("Found: %s (%s)\n", instance, instance.Version())
//	}
//
// # TXT Metadata
//
// Each advertisement carries two TXT records:
//   - version: the application version of the advertising instance
//   - fingerprint: SHA-256 fingerprint of the endpoint's TLS certificate,
//     so a client can pin the self-signed certificate before connecting
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Endpoints must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
