package security

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSelfSigned(t *testing.T) {
	material, err := Generate(DefaultCertParams())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	cert := material.Certificate
	if cert.Subject.CommonName != "PicoTorrent" {
		t.Errorf("CommonName = %q, want PicoTorrent", cert.Subject.CommonName)
	}
	if cert.Issuer.CommonName != cert.Subject.CommonName {
		t.Error("certificate should be self-signed (issuer == subject)")
	}
	if cert.PublicKeyAlgorithm != x509.RSA {
		t.Errorf("PublicKeyAlgorithm = %v, want RSA", cert.PublicKeyAlgorithm)
	}
	if cert.SignatureAlgorithm != x509.SHA256WithRSA {
		t.Errorf("SignatureAlgorithm = %v, want SHA256WithRSA", cert.SignatureAlgorithm)
	}
	if cert.IsCA {
		t.Error("server certificate must not be a CA")
	}

	hasServerAuth := false
	for _, usage := range cert.ExtKeyUsage {
		if usage == x509.ExtKeyUsageServerAuth {
			hasServerAuth = true
		}
	}
	if !hasServerAuth {
		t.Error("certificate must carry ExtKeyUsageServerAuth")
	}
}

func TestEnsureCertificateCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")

	material, err := EnsureCertificate(path, "")
	if err != nil {
		t.Fatalf("EnsureCertificate() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("certificate file not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("certificate file is empty")
	}
	if !bytes.Equal(data, material.Combined()) {
		t.Error("file contents should be certificate followed by key")
	}

	// Certificate must come before the key in the file
	certIdx := bytes.Index(data, []byte("BEGIN CERTIFICATE"))
	keyIdx := bytes.Index(data, []byte("PRIVATE KEY"))
	if certIdx == -1 || keyIdx == -1 || certIdx > keyIdx {
		t.Error("file layout must be certificate chain followed by private key")
	}
}

func TestEnsureCertificateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")

	first, err := EnsureCertificate(path, "")
	if err != nil {
		t.Fatalf("EnsureCertificate() error = %v", err)
	}

	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	// A second provisioning pass reuses the file untouched
	second, err := EnsureCertificate(path, "")
	if err != nil {
		t.Fatalf("EnsureCertificate() second call error = %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Error("second provisioning call must not modify the existing file")
	}
	if first.Fingerprint() != second.Fingerprint() {
		t.Error("reused material should match the generated certificate")
	}
}

func TestEnsureCertificateRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := EnsureCertificate(path, "")
	if err == nil {
		t.Fatal("corrupt certificate file must be a fatal error, not regenerated")
	}

	var certErr *CertificateError
	if !errors.As(err, &certErr) {
		t.Errorf("error should be a *CertificateError, got %T", err)
	}

	// The corrupt file must be left in place for the administrator
	data, rerr := os.ReadFile(path)
	if rerr != nil || string(data) != "not a certificate" {
		t.Error("corrupt file must not be overwritten")
	}
}

// writeEncryptedCertFile writes a combined PEM file whose private key block
// is password protected, the way an administrator-provided certificate may
// arrive.
func writeEncryptedCertFile(t *testing.T, path, password string) *Material {
	t.Helper()

	material, err := Generate(DefaultCertParams())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	keyBlock, _ := pem.Decode(material.KeyPEM)
	if keyBlock == nil {
		t.Fatal("generated key PEM did not decode")
	}

	encBlock, err := x509.EncryptPEMBlock( //nolint:staticcheck // legacy PEM encryption is the supported on-disk format
		rand.Reader, keyBlock.Type, keyBlock.Bytes, []byte(password), x509.PEMCipherAES256)
	if err != nil {
		t.Fatalf("EncryptPEMBlock() error = %v", err)
	}

	combined := append([]byte{}, material.CertPEM...)
	combined = append(combined, pem.EncodeToMemory(encBlock)...)
	if err := os.WriteFile(path, combined, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	return material
}

func TestEnsureCertificateOpensEncryptedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")
	want := writeEncryptedCertFile(t, path, "hunter2")

	// Provisioning with the configured password must reuse the
	// administrator's file, not treat it as corrupt
	got, err := EnsureCertificate(path, "hunter2")
	if err != nil {
		t.Fatalf("EnsureCertificate() with password error = %v", err)
	}
	if got.Fingerprint() != want.Fingerprint() {
		t.Error("provisioning must reuse the existing encrypted certificate")
	}

	if _, err := LoadMaterial(path, "hunter2"); err != nil {
		t.Errorf("LoadMaterial() with password error = %v", err)
	}
}

func TestEnsureCertificateWrongKeyPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")
	writeEncryptedCertFile(t, path, "hunter2")

	_, err := EnsureCertificate(path, "wrong")
	if err == nil {
		t.Fatal("wrong key password must be a fatal error")
	}

	var certErr *CertificateError
	if !errors.As(err, &certErr) {
		t.Errorf("error should be a *CertificateError, got %T", err)
	}

	// The file must survive untouched for the administrator
	if _, serr := os.Stat(path); serr != nil {
		t.Error("encrypted certificate file must not be removed")
	}
}

func TestLoadKeyPairEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")
	writeEncryptedCertFile(t, path, "hunter2")

	cert, err := LoadKeyPair(path, "hunter2")
	if err != nil {
		t.Fatalf("LoadKeyPair() with password error = %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Error("LoadKeyPair() returned no certificate chain")
	}
}

func TestLoadKeyPairRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picoremote.pem")
	if _, err := EnsureCertificate(path, ""); err != nil {
		t.Fatalf("EnsureCertificate() error = %v", err)
	}

	cert, err := LoadKeyPair(path, "")
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Error("LoadKeyPair() returned no certificate chain")
	}
}

func TestLoadKeyPairMissingFile(t *testing.T) {
	_, err := LoadKeyPair(filepath.Join(t.TempDir(), "nope.pem"), "")
	if err == nil {
		t.Fatal("LoadKeyPair() should fail for a missing file")
	}
}

func TestCertFingerprintIsStable(t *testing.T) {
	material, err := Generate(DefaultCertParams())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	a := material.Fingerprint()
	b := CertFingerprint(material.Certificate)
	if a != b || len(a) != 64 {
		t.Errorf("fingerprint mismatch or wrong length: %q vs %q", a, b)
	}
}
