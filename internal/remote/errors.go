package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, timeout, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the endpoint denied the handshake (bad or missing token)
	ErrTypeAuth
	// ErrTypeTLS indicates a TLS failure (untrusted certificate, fingerprint mismatch)
	ErrTypeTLS
	// ErrTypeTimeout indicates the dial timed out
	ErrTypeTimeout
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeTLS:
		return "TLS Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ClientError represents an error that occurred while talking to a control endpoint
type ClientError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *ClientError {
	return &ClientError{Type: ErrTypeAuth, Message: message}
}

// NewTLSError creates a TLS error
func NewTLSError(message string, err error) *ClientError {
	return &ClientError{Type: ErrTypeTLS, Message: message, Err: err}
}

// classifyDialError wraps a dial failure in a ClientError with the right category
func classifyDialError(err error) *ClientError {
	if os.IsTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: "dial timed out", Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return &ClientError{Type: ErrTypeNetwork, Message: "connection refused (is the endpoint running?)", Err: err}
		}
		return &ClientError{Type: ErrTypeNetwork, Message: "network error", Err: err}
	}

	// crypto/tls errors do not share a common type; match on the message
	if strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "x509:") {
		return NewTLSError("TLS handshake failed", err)
	}

	return &ClientError{Type: ErrTypeUnknown, Message: "dial failed", Err: err}
}
