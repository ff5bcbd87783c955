// Package config provides settings management for the remote-control server.
//
// This package manages a YAML-based settings file holding the configuration
// surface the control server consumes: the access token, certificate file
// path and password, cipher policy and listen port. The file location follows
// OS-specific conventions.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/picoremote/config.yaml or $HOME/.config/picoremote/config.yaml
//   - macOS: $HOME/.config/picoremote/config.yaml
//   - Windows: %LOCALAPPDATA%\picoremote\config.yaml
//
// # No Global State
//
// There is deliberately no package-level settings singleton. A *Store is
// opened once in main and passed to the server at construction, which makes
// the cross-thread read contract explicit: the server takes Snapshot copies
// and never observes a half-written update.
//
// # Usage Example
//
//	store, err := config.Open("") // default location
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	settings := store.Snapshot()
//	fmt.Println(settings.ListenPort)
//
//	// Mutate and persist atomically
//	err = store.Update(func(s *config.Settings) {
//	    s.CipherList = "HIGH:!aNULL"
//	})
//
// # Thread Safety
//
// All Store methods are protected by a mutex; saves are atomic (temp file
// plus rename) so a crash never leaves a corrupt settings file.
package config
