// Package security provides the credential material for the control server.
//
// It covers three concerns, all consulted at server construction or per
// TLS handshake:
//
//   - Access token provisioning: GetOrCreateToken returns the configured
//     shared secret, generating a 20-character random token and persisting
//     it on first run. TokensEqual compares tokens in constant time.
//
//   - Certificate provisioning: EnsureCertificate guarantees a parseable
//     certificate-plus-key PEM file exists at the configured path,
//     generating a self-signed RSA-2048 pair on first run. An existing file
//     is opened with the configured key password; a corrupt file is a fatal
//     error, never silently replaced. LoadKeyPair
//     re-reads the file (decrypting a password-protected key) each time the
//     TLS layer builds a context.
//
//   - Key-exchange parameters: Ephemeral is a write-once, read-many
//     singleton holding the forward-secrecy configuration shared by every
//     TLS context, and ParseCipherList turns the configured OpenSSL-style
//     cipher policy string into crypto/tls suite IDs.
package security
