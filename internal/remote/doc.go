// Package remote implements a client for the secure control endpoint.
//
// The client dials the endpoint over TLS, presents the shared access token
// in the handshake, and exposes the resulting WebSocket connection for
// message exchange.
//
// Because the endpoint uses a self-signed certificate, the client offers
// two trust models:
//   - Fingerprint pinning: the SHA-256 fingerprint of the endpoint's
//     certificate (shown at startup, or advertised over mDNS) is compared
//     against the presented certificate.
//   - Insecure mode: certificate verification is skipped entirely. Only
//     sensible for loopback connections or manual testing.
//
// # Usage Example
//
//	client := remote.NewClient("192.168.1.24", 7070)
//	client.Token = "aB3xK9mQ2pL7nR4sT6vW"
//	client.Fingerprint = instance.Fingerprint()
//
//	conn, err := client.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
package remote
