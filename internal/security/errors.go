package security

import "fmt"

// CertificateError represents a failure during certificate provisioning or
// loading. The Operation field names the step that failed (for example
// "generate_key", "load", "decrypt_key", "write").
type CertificateError struct {
	// Operation is the provisioning step that failed
	Operation string
	// Path is the certificate file involved, if any
	Path string
	// Underlying error
	Err error
}

func (e *CertificateError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("certificate %s failed for %q: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("certificate %s failed: %v", e.Operation, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}
