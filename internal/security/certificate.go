package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CertParams holds parameters for generating the self-signed server certificate.
type CertParams struct {
	// CommonName is the CN field (default: PicoTorrent)
	CommonName string
	// Organization is the O field (default: PicoTorrent)
	Organization string
	// SANs are the Subject Alternative Names
	SANs []string
	// ValidDays is certificate validity in days (default: 3650)
	ValidDays int
}

// DefaultCertParams returns CertParams suitable for a locally provisioned
// control-channel certificate. The certificate is created once per
// installation and never rotated automatically, so validity is long.
func DefaultCertParams() CertParams {
	return CertParams{
		CommonName:   "PicoTorrent",
		Organization: "PicoTorrent",
		SANs:         []string{"localhost"},
		ValidDays:    3650,
	}
}

// Material represents a provisioned certificate and key pair.
type Material struct {
	// CertPEM is the certificate in PEM format
	CertPEM []byte
	// KeyPEM is the private key in PEM format
	KeyPEM []byte
	// Certificate is the parsed x509 certificate
	Certificate *x509.Certificate
	// PrivateKey is the RSA private key
	PrivateKey *rsa.PrivateKey
}

// Combined returns the on-disk file layout: certificate chain followed by
// the private key, PEM-encoded.
func (m *Material) Combined() []byte {
	out := make([]byte, 0, len(m.CertPEM)+len(m.KeyPEM))
	out = append(out, m.CertPEM...)
	out = append(out, m.KeyPEM...)
	return out
}

// Fingerprint returns the lowercase hex SHA-256 digest of the DER-encoded
// certificate. Clients use it to pin the endpoint instead of relying on a
// trust chain the self-signed certificate does not have.
func (m *Material) Fingerprint() string {
	return CertFingerprint(m.Certificate)
}

// CertFingerprint returns the SHA-256 fingerprint of an x509 certificate.
func CertFingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// EnsureCertificate checks whether a certificate file exists at path; if
// missing, it generates a new self-signed certificate and key pair and
// writes them atomically to that path. A second call with an existing valid
// file is a no-op that reuses the existing material. An existing file with a
// password-protected key is decrypted with the configured password.
//
// A file that exists but cannot be parsed is returned as an error, never
// regenerated: the file may be an administrator-provided certificate, and
// discarding it silently would be worse than refusing to start.
func EnsureCertificate(path, password string) (*Material, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadMaterial(path, password)
	} else if !os.IsNotExist(err) {
		return nil, &CertificateError{Operation: "stat", Path: path, Err: err}
	}

	material, err := Generate(DefaultCertParams())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, &CertificateError{Operation: "write", Path: path, Err: err}
	}

	// Atomic write: the file either exists complete or not at all
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, material.Combined(), 0600); err != nil {
		return nil, &CertificateError{Operation: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, &CertificateError{Operation: "write", Path: path, Err: err}
	}

	return material, nil
}

// Generate creates a new self-signed RSA-2048/SHA-256 server certificate.
func Generate(params CertParams) (*Material, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, &CertificateError{Operation: "generate_key", Err: err}
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &CertificateError{Operation: "generate_serial", Err: err}
	}

	notBefore := time.Now()
	notAfter := notBefore.AddDate(0, 0, params.ValidDays)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{params.Organization},
			CommonName:   params.CommonName,
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,

		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		DNSNames:    params.SANs,
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},

		BasicConstraintsValid: true,
		IsCA:                  false,
	}

	// Self-signed: the template is its own issuer
	certDER, err := x509.CreateCertificate(
		rand.Reader,
		&template,
		&template,
		&privateKey.PublicKey,
		privateKey,
	)
	if err != nil {
		return nil, &CertificateError{Operation: "create_certificate", Err: err}
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, &CertificateError{Operation: "parse_certificate", Err: err}
	}

	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	})

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	return &Material{
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
		Certificate: cert,
		PrivateKey:  privateKey,
	}, nil
}

// LoadMaterial reads and parses an existing certificate file, decrypting a
// password-protected private key with password ("" for an unprotected key).
func LoadMaterial(path, password string) (*Material, error) {
	certPEM, keyPEM, err := splitPEMFile(path, password)
	if err != nil {
		return nil, err
	}

	keyPair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, &CertificateError{Operation: "load", Path: path, Err: err}
	}

	cert, err := x509.ParseCertificate(keyPair.Certificate[0])
	if err != nil {
		return nil, &CertificateError{Operation: "load", Path: path, Err: err}
	}

	material := &Material{
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
		Certificate: cert,
	}
	if rsaKey, ok := keyPair.PrivateKey.(*rsa.PrivateKey); ok {
		material.PrivateKey = rsaKey
	}

	return material, nil
}

// LoadKeyPair loads the certificate chain and private key from a single PEM
// file, decrypting the key with password when the key block is protected.
// This is the loader the TLS context builder calls per connection, so that
// password changes in configuration take effect without a restart.
func LoadKeyPair(path, password string) (tls.Certificate, error) {
	certPEM, keyPEM, err := splitPEMFile(path, password)
	if err != nil {
		return tls.Certificate{}, err
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &CertificateError{Operation: "load", Path: path, Err: err}
	}

	return cert, nil
}

// splitPEMFile separates a combined PEM file into certificate blocks and
// the private key block, decrypting the key if needed.
func splitPEMFile(path, password string) (certPEM, keyPEM []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &CertificateError{Operation: "read", Path: path, Err: err}
	}

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch {
		case block.Type == "CERTIFICATE":
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)

		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy PEM encryption is the supported on-disk format
				der, derr := x509.DecryptPEMBlock(block, []byte(password)) //nolint:staticcheck
				if derr != nil {
					return nil, nil, &CertificateError{Operation: "decrypt_key", Path: path, Err: derr}
				}
				block = &pem.Block{Type: block.Type, Bytes: der}
			}
			keyPEM = append(keyPEM, pem.EncodeToMemory(block)...)
		}
	}

	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return nil, nil, &CertificateError{
			Operation: "load",
			Path:      path,
			Err:       fmt.Errorf("file does not contain a certificate followed by a private key"),
		}
	}

	return certPEM, keyPEM, nil
}
