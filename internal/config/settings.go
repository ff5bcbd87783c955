package config

// Settings represents the entire configuration file for the remote-control
// server. Field names mirror the configuration keys consumed by the server;
// values absent from the file keep their zero value and are filled in by
// Defaults where one exists.
type Settings struct {
	Version int `yaml:"version"`

	// AccessToken is the shared secret a remote-control client must present
	// during the handshake. Empty means "not yet provisioned"; the server
	// generates and persists one at construction.
	AccessToken string `yaml:"websocket_access_token,omitempty"`

	// CertificateFile is the path to the PEM file holding the certificate
	// chain followed by the private key. Empty means the default location
	// under the config directory.
	CertificateFile string `yaml:"websocket_certificate_file,omitempty"`

	// CertificatePassword decrypts the private key when the key block in
	// the certificate file is password protected.
	CertificatePassword string `yaml:"websocket_certificate_password,omitempty"`

	// CipherList is an OpenSSL-style cipher list string constraining the
	// TLS cipher suites offered by the server. Empty means library defaults.
	CipherList string `yaml:"websocket_cipher_list,omitempty"`

	// ListenPort is the TCP port the control server listens on.
	ListenPort int `yaml:"websocket_listen_port"`

	// ListenAddress is the bind address (empty = all interfaces).
	ListenAddress string `yaml:"websocket_listen_address,omitempty"`

	// ActivationPort is the loopback TCP port used by the single-instance
	// activation channel.
	ActivationPort int `yaml:"activation_port"`

	// Advertise enables mDNS advertisement of the control endpoint.
	Advertise bool `yaml:"advertise_mdns"`

	// LogLevel controls server logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
}

const (
	// DefaultListenPort is the default control server port.
	DefaultListenPort = 7070

	// DefaultActivationPort is the default loopback port for the
	// single-instance activation channel.
	DefaultActivationPort = 7171

	// DefaultCipherList keeps forward-secret AEAD suites and excludes
	// anonymous and broken ones. Applied through the cipher policy parser.
	DefaultCipherList = "HIGH:!aNULL:!eNULL:!MD5:!3DES"

	// DefaultCertificateName is the file name used when no certificate
	// path is configured. The file lives in the config directory.
	DefaultCertificateName = "picoremote.pem"
)

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:        1,
		CipherList:     DefaultCipherList,
		ListenPort:     DefaultListenPort,
		ActivationPort: DefaultActivationPort,
	}
}

// applyDefaults fills in zero values that have a meaningful default.
// The access token is deliberately left empty here: provisioning it is the
// server's job and must happen exactly once (see internal/security).
func (s *Settings) applyDefaults() {
	if s.ListenPort == 0 {
		s.ListenPort = DefaultListenPort
	}
	if s.ActivationPort == 0 {
		s.ActivationPort = DefaultActivationPort
	}
	if s.CipherList == "" {
		s.CipherList = DefaultCipherList
	}
}
