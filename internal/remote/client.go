package remote

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/picotorrent/picoremote/internal/server"
)

const (
	// DefaultDialTimeout is the default timeout for establishing a connection
	DefaultDialTimeout = 10 * time.Second
)

// Client dials the secure control endpoint of a running instance
type Client struct {
	// URL is the endpoint URL (e.g., "wss://192.168.1.24:7070")
	URL string

	// Token is the shared access token sent during the handshake
	Token string

	// Fingerprint, when set, pins the endpoint's certificate: the SHA-256
	// fingerprint of the presented certificate must match this hex string
	Fingerprint string

	// Insecure skips certificate verification entirely.
	// Only sensible for loopback connections or manual testing.
	Insecure bool

	// DialTimeout is the maximum time to wait for the handshake
	DialTimeout time.Duration
}

// NewClient creates a client for the endpoint at the given host and port
func NewClient(host string, port int) *Client {
	return &Client{
		URL:         fmt.Sprintf("wss://%s:%d", host, port),
		DialTimeout: DefaultDialTimeout,
	}
}

// NewClientWithURL creates a client with a full endpoint URL
func NewClientWithURL(url string) *Client {
	return &Client{
		URL:         url,
		DialTimeout: DefaultDialTimeout,
	}
}

// Conn is an established control-channel connection
type Conn struct {
	ws *websocket.Conn
}

// Connect performs the TLS and WebSocket handshake and returns the connection.
// A denied handshake (bad or missing token) is reported as an authentication error.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	tlsConfig, err := c.tlsConfig()
	if err != nil {
		return nil, err
	}

	dialer := &websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: c.DialTimeout,
	}

	header := http.Header{}
	if c.Token != "" {
		header.Set(server.TokenHeader, c.Token)
	}

	ws, resp, err := dialer.DialContext(ctx, c.URL, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil && resp.StatusCode == http.StatusForbidden {
			return nil, NewAuthError("handshake denied (check access token)")
		}
		return nil, classifyDialError(err)
	}

	return &Conn{ws: ws}, nil
}

// tlsConfig builds the TLS client configuration from the pinning settings
func (c *Client) tlsConfig() (*tls.Config, error) {
	if c.Fingerprint != "" {
		want := strings.ToLower(c.Fingerprint)
		if len(want) != sha256.Size*2 {
			return nil, NewTLSError("pinned fingerprint must be a SHA-256 hex string", nil)
		}

		// Certificate verification is replaced by the fingerprint check.
		// Self-signed certificates never chain to a system root, so
		// pinning is the only verification that can succeed here.
		return &tls.Config{
			InsecureSkipVerify: true,
			VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
				if len(rawCerts) == 0 {
					return NewTLSError("endpoint presented no certificate", nil)
				}
				sum := sha256.Sum256(rawCerts[0])
				got := hex.EncodeToString(sum[:])
				if got != want {
					return NewTLSError(fmt.Sprintf("certificate fingerprint mismatch: got %s", got), nil)
				}
				return nil
			},
		}, nil
	}

	if c.Insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}

	return &tls.Config{}, nil
}

// Send writes a text message to the endpoint
func (conn *Conn) Send(data []byte) error {
	return conn.ws.WriteMessage(websocket.TextMessage, data)
}

// SendJSON writes a JSON-encoded message to the endpoint
func (conn *Conn) SendJSON(v interface{}) error {
	return conn.ws.WriteJSON(v)
}

// Receive reads the next message from the endpoint
func (conn *Conn) Receive() ([]byte, error) {
	_, data, err := conn.ws.ReadMessage()
	return data, err
}

// Ping sends a WebSocket ping frame to verify the connection is alive
func (conn *Conn) Ping() error {
	return conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// Close closes the connection, sending a close frame first
func (conn *Conn) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = conn.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.ws.Close()
}
