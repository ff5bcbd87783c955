package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/picotorrent/picoremote/internal/config"
	"github.com/picotorrent/picoremote/internal/logging"
	"github.com/picotorrent/picoremote/internal/security"
)

// Lifecycle misuse errors. Start and Stop have explicit single-call
// contracts instead of undefined behavior on out-of-order calls.
var (
	// ErrAlreadyStarted is returned by Start on a running or stopped server
	ErrAlreadyStarted = errors.New("server already started")
	// ErrNotStarted is returned by Stop before Start
	ErrNotStarted = errors.New("server not started")
	// ErrStopped is returned by Start after Stop; instances are not reusable
	ErrStopped = errors.New("server already stopped")
)

// lifecycle tracks the server through its single Start/Stop cycle.
type lifecycle int

const (
	lifecycleCreated lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// Config holds server construction options not covered by the settings store.
type Config struct {
	// LogLevel overrides the configured level when non-empty
	LogLevel string
	// Handler receives messages from admitted sessions (nil = NopHandler)
	Handler MessageHandler
}

// Server is the embedded secure control server: it exposes the running
// application to a local or LAN remote-control client over an encrypted,
// authenticated, message-framed channel.
//
// Construction provisions the access token and certificate material (both
// fatal on failure), Start binds the listener and spawns the single network
// goroutine, and Stop joins it. The admission gate, TLS context builder and
// session registry all hang off this struct and run on connection
// goroutines owned by the network side.
type Server struct {
	store     *config.Store
	certFile  string
	builder   *tlsContextBuilder
	admission *admission
	registry  *Registry
	handler   MessageHandler
	metrics   *metrics
	upgrader  websocket.Upgrader

	fingerprint string

	mu       sync.Mutex
	state    lifecycle
	listener net.Listener
	httpSrv  *http.Server
	done     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a control server over the given settings store.
//
// Provisioning happens here, once per process: the access token is read or
// generated (an entropy or persistence failure is fatal - the server must
// never start with a weak token), and the certificate file is ensured so
// the first TLS handshake doesn't pay the generation cost. A certificate
// file that exists but cannot be parsed is a fatal error, never replaced.
func New(cfg *Config, store *config.Store) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	settings := store.Snapshot()

	level := cfg.LogLevel
	if level == "" {
		level = settings.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	token, err := security.GetOrCreateToken(store)
	if err != nil {
		return nil, fmt.Errorf("token provisioning failed: %w", err)
	}

	certFile := settings.CertificateFile
	if certFile == "" {
		certFile, err = config.DefaultCertificatePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve certificate path: %w", err)
		}
	}

	material, err := security.EnsureCertificate(certFile, settings.CertificatePassword)
	if err != nil {
		return nil, fmt.Errorf("certificate provisioning failed: %w", err)
	}

	// Warm the process-wide key-exchange singleton ahead of the first
	// handshake
	_ = security.Ephemeral()

	handler := cfg.Handler
	if handler == nil {
		handler = NopHandler{}
	}

	s := &Server{
		store:       store,
		certFile:    certFile,
		builder:     &tlsContextBuilder{certFile: certFile, store: store},
		admission:   &admission{token: token},
		registry:    NewRegistry(),
		handler:     handler,
		metrics:     newMetrics(),
		fingerprint: material.Fingerprint(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			// The token is the authentication gate; browser origin checks
			// don't apply to a non-browser control channel
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	logging.Info("Control server constructed",
		zap.String("cert_file", certFile),
		zap.String("cert_fingerprint", s.fingerprint),
	)

	return s, nil
}

// Start binds the configured TCP port and spawns the single network
// goroutine that accepts and serves connections. It returns immediately;
// use Stop to shut down.
//
// Start may be called at most once. A bind failure leaves the server in the
// Created state and is returned to the caller: the owning application keeps
// running and treats the control server as unavailable.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case lifecycleRunning:
		return ErrAlreadyStarted
	case lifecycleStopped:
		return ErrStopped
	}

	settings := s.store.Snapshot()
	addr := fmt.Sprintf("%s:%d", settings.ListenAddress, settings.ListenPort)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind control port: %w", err)
	}
	s.listener = tls.NewListener(listener, &tls.Config{
		GetConfigForClient: s.builder.configForClient,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveTracked)
	mux.HandleFunc("/metrics", s.serveMetrics)

	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: handshakeTimeout,
	}

	logging.Info("Control server listening",
		zap.String("addr", s.listener.Addr().String()),
		zap.Any("tls_info", s.builder.TLSInfo()),
	)

	s.done = make(chan struct{})
	s.state = lifecycleRunning

	go func() {
		defer close(s.done)
		err := s.httpSrv.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Control server loop exited", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listener address, or empty if not running. Useful
// when the configured port is 0 (ephemeral).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Registry exposes the live session set for lifecycle inspection.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Fingerprint returns the SHA-256 fingerprint of the provisioned
// certificate, for advertisement and client-side pinning.
func (s *Server) Fingerprint() string {
	return s.fingerprint
}

// Stop terminates the network goroutine and blocks until it has fully
// exited along with every connection handler (join semantics). Calling Stop
// before Start returns ErrNotStarted; a second Stop is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case lifecycleCreated:
		s.mu.Unlock()
		return ErrNotStarted
	case lifecycleStopped:
		s.mu.Unlock()
		return nil
	}
	s.state = lifecycleStopped
	httpSrv := s.httpSrv
	done := s.done
	s.mu.Unlock()

	logging.Info("Stopping control server")

	// Stop accepting, then unblock the read loops; hijacked WebSocket
	// connections are not closed by http.Server.Close
	if err := httpSrv.Close(); err != nil {
		logging.Error("Error closing listener", zap.Error(err))
	}
	s.registry.closeAll()

	// Join the network goroutine
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown interrupted waiting for network loop: %w", ctx.Err())
	}

	// Join the per-connection handlers
	handlersDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(handlersDone)
	}()

	select {
	case <-handlersDone:
		logging.Info("All sessions closed")
	case <-ctx.Done():
		return fmt.Errorf("shutdown interrupted waiting for sessions: %w", ctx.Err())
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout waiting for sessions")
	}

	logging.Sync()
	return nil
}

// serveTracked wraps serveWS so Stop can join in-flight connection
// handlers.
func (s *Server) serveTracked(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()
	s.serveWS(w, r)
}

// serveMetrics exposes the Prometheus registry behind the same admission
// gate as the control channel, so metrics never leak to unauthenticated
// clients.
func (s *Server) serveMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.admission.validate(r) {
		s.admission.deny(w)
		return
	}
	promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
