// Package logging provides structured logging for the PicoTorrent remote-control server.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the control server. It provides both general logging
// functions and specialized functions for connection-lifecycle logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (TLS parameters, header inspection)
//   - Info: Normal operations (connections, sessions, state changes)
//   - Warn: Non-fatal issues (rejected handshakes, connection drops)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Session opened",
//	    zap.String("remote_addr", "192.168.1.100"),
//	    zap.String("session_id", "01J5..."),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogConnection(remoteAddr, "websocket_closed")
//	logging.LogTLSHandshake(remoteAddr, version, cipherSuite, serverName)
//	logging.LogAdmission(remoteAddr, accepted)
//
// # Configuration
//
// Initialize logging at server startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and PICOREMOTE_LOG_LEVEL is unset, the logger is a
// nop logger so that CLI commands stay silent by default.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
