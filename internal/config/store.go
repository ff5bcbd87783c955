package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "picoremote"
	configFile = "config.yaml"
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/picoremote or $HOME/.config/picoremote
//   - macOS: $HOME/.config/picoremote (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\picoremote
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: Use LOCALAPPDATA
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		// macOS: Use $HOME/.config/picoremote (following modern XDG convention)
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// DefaultPath returns the full path to the configuration file.
func DefaultPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// DefaultCertificatePath returns the path used for the certificate file when
// none is configured.
func DefaultCertificatePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultCertificateName), nil
}

// Store is an explicit handle to the settings file. It is constructed once
// in main and passed to every component that consumes configuration, so the
// cross-thread read contract is explicit instead of relying on a process
// global. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	settings *Settings
}

// Open loads the settings file at path, creating default settings in memory
// if the file does not exist. An empty path means the platform default
// location. The file is not written until Save or Update is called.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	settings, err := loadSettings(path)
	if err != nil {
		return nil, err
	}

	return &Store{path: path, settings: settings}, nil
}

// loadSettings performs the actual file loading.
func loadSettings(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Config doesn't exist - return new default settings
		return NewSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", settings.Version)
	}

	settings.applyDefaults()
	return &settings, nil
}

// Path returns the location of the settings file backing this store.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current settings. Callers that need several
// values consistent with each other must take one snapshot and read from it.
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.settings
}

// Update applies fn to the settings under the store lock and persists the
// result atomically. The settings seen by fn are the live values; returning
// from fn commits them.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.settings)
	return s.saveLocked()
}

// Save persists the current settings to disk.
// Performs an atomic write to prevent corruption on crash.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	// Ensure config directory exists with user-only permissions
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Add header comment
	header := []byte(`# PicoTorrent remote-control configuration
#
# Security note: the access token in this file grants full control over the
# running client to anyone who presents it. Keep the file private (0600).
#
# Location: ` + s.path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	// Atomic rename (this is atomic on all platforms)
	if err := os.Rename(tmpPath, s.path); err != nil {
		// Clean up temp file on error
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
