// Package server implements the embedded secure control server.
//
// The server exposes the running application to a local (or LAN)
// remote-control client over an encrypted, authenticated, message-framed
// channel: WebSocket over TLS, with a shared access token checked during
// the handshake. It provides the transport, authentication and
// connection-lifecycle substrate only; the application-level remote-control
// protocol is supplied by a MessageHandler collaborator.
//
// # Admission
//
// Every connection attempt must carry the provisioned access token in the
// X-PicoTorrent-Token header. Validation happens synchronously before the
// WebSocket upgrade; a rejected attempt receives a failed handshake with no
// diagnostic detail (avoiding a token-guessing oracle) and never produces
// an open event. Admission is the sole authentication gate - an admitted
// session is trusted for its entire lifetime.
//
// # Connection lifecycle
//
// Each connection moves through an explicit state machine:
//
//	Connecting -> Validating -> Open -> Closed
//
// Open always precedes any message event; Closed is terminal and is entered
// at most once. The session registry holds exactly the Open sessions.
//
// # TLS
//
// The TLS context is rebuilt for every inbound connection so certificate
// password and cipher-policy changes take effect without a restart. The
// context enforces a TLS 1.2 floor, disables session tickets, and applies
// the configured OpenSSL-style cipher list. Certificate material is
// provisioned ahead of time at construction (see internal/security), so
// the per-connection build costs one disk read.
//
// # Lifecycle
//
//	srv, err := server.New(&server.Config{}, store)
//	if err != nil {
//	    // fatal startup error: no token entropy or corrupt certificate
//	}
//	if err := srv.Start(); err != nil {
//	    // bind failure: control server unavailable, host app keeps running
//	}
//	defer srv.Stop(context.Background())
//
// Start spawns exactly one network goroutine; Stop signals it and blocks
// until it and every connection handler have exited. Out-of-order calls
// return ErrNotStarted, ErrAlreadyStarted or ErrStopped instead of
// undefined behavior.
//
// # Metrics
//
// Admission and session counts are exported as Prometheus metrics on
// /metrics of the control listener, behind the same token gate as the
// control channel itself.
package server
