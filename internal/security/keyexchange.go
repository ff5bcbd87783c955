package security

import (
	"crypto/tls"
	"sync"
)

// EphemeralParams is the process-wide key-exchange configuration shared by
// every TLS context the server builds. crypto/tls only implements ECDHE, so
// the forward-secrecy material here is the curve preference list rather than
// a finite-field DH group; like the group it replaces, it is initialized
// once and shared read-only across all connections.
type EphemeralParams struct {
	// Curves lists the supported key-exchange curves in preference order.
	Curves []tls.CurveID
}

var (
	ephemeralOnce   sync.Once
	ephemeralParams *EphemeralParams
)

// Ephemeral returns the cached key-exchange parameters, initializing them on
// first use. Safe for concurrent use from any goroutine.
func Ephemeral() *EphemeralParams {
	ephemeralOnce.Do(func() {
		ephemeralParams = &EphemeralParams{
			Curves: []tls.CurveID{
				tls.X25519,
				tls.CurveP256,
				tls.CurveP384,
			},
		}
	})
	return ephemeralParams
}
