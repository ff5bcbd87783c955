package server

import (
	"crypto/tls"

	"go.uber.org/zap"

	"github.com/picotorrent/picoremote/internal/config"
	"github.com/picotorrent/picoremote/internal/logging"
	"github.com/picotorrent/picoremote/internal/security"
)

// tlsContextBuilder assembles the TLS server context for each inbound
// connection. The certificate file, key password and cipher policy are
// re-read on every build so that configuration changes take effect without
// a restart; the ephemeral key-exchange parameters come from the
// process-wide singleton in internal/security.
//
// Certificate generation never happens here - the file is provisioned ahead
// of time at server construction, so a build costs one disk read on the
// handshake path.
type tlsContextBuilder struct {
	certFile string
	store    *config.Store
}

// configForClient is installed as GetConfigForClient on the listener's base
// config. A build failure (missing or corrupt certificate file, wrong key
// password, unusable cipher policy) aborts only the offending handshake;
// the server keeps accepting connections.
func (b *tlsContextBuilder) configForClient(hello *tls.ClientHelloInfo) (*tls.Config, error) {
	remoteAddr := hello.Conn.RemoteAddr().String()
	cfg, err := b.build(remoteAddr)
	if err != nil {
		logging.Error("TLS context build failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return nil, err
	}
	return cfg, nil
}

// build constructs a hardened TLS server context from current configuration.
func (b *tlsContextBuilder) build(remoteAddr string) (*tls.Config, error) {
	settings := b.store.Snapshot()

	cert, err := security.LoadKeyPair(b.certFile, settings.CertificatePassword)
	if err != nil {
		return nil, err
	}

	suites, err := security.ParseCipherList(settings.CipherList)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},

		// Protocol floor: crypto/tls has no SSLv2/SSLv3 paths at all, and
		// the minimum is raised past TLS 1.0/1.1 as well.
		MinVersion: tls.VersionTLS12,

		// Fresh key-exchange state per connection; no ticket replay.
		SessionTicketsDisabled: true,

		CurvePreferences: security.Ephemeral().Curves,
		CipherSuites:     suites,

		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.LogTLSHandshake(
				remoteAddr,
				cs.Version,
				cs.CipherSuite,
				cs.ServerName,
			)
			return nil
		},
	}, nil
}

// TLSInfo returns human-readable details of the current TLS policy for
// startup logging.
func (b *tlsContextBuilder) TLSInfo() map[string]interface{} {
	settings := b.store.Snapshot()

	var cipherNames []string
	if suites, err := security.ParseCipherList(settings.CipherList); err == nil {
		for _, id := range suites {
			cipherNames = append(cipherNames, tls.CipherSuiteName(id))
		}
	}

	return map[string]interface{}{
		"min_version":     "TLS 1.2",
		"cert_file":       b.certFile,
		"cipher_policy":   settings.CipherList,
		"cipher_suites":   cipherNames,
		"session_tickets": false,
	}
}
