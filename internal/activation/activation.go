// Package activation implements the single-instance activation channel.
//
// When the application starts and another instance is already running, the
// new process forwards its command-line arguments (torrent files and magnet
// links) to the running instance as a JSON payload over a loopback TCP
// connection, then exits. The running instance owns the channel's listener;
// holding the bound port doubles as the single-instance lock, so the trust
// model is OS-level (loopback only, no token) and deliberately separate
// from the authenticated LAN control channel in internal/server.
package activation

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/picotorrent/picoremote/internal/logging"
)

// dialTimeout bounds how long a second instance waits for the first one.
const dialTimeout = 5 * time.Second

// Options is the payload a starting instance forwards to the running one.
type Options struct {
	Files       []string `json:"files"`
	MagnetLinks []string `json:"magnet_links"`
}

// Handler receives options forwarded by another instance. It runs on the
// channel's own goroutine; implementations hand the work to the
// application and return quickly.
type Handler func(Options)

// Listener owns the loopback activation channel of the running instance.
type Listener struct {
	ln      net.Listener
	handler Handler

	closeOnce sync.Once
	done      chan struct{}
}

// Listen binds the activation channel on the loopback interface. A bind
// failure usually means another instance already holds the channel; the
// caller then forwards its options with Activate and exits.
func Listen(port int, handler Handler) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind activation channel: %w", err)
	}

	l := &Listener{
		ln:      ln,
		handler: handler,
		done:    make(chan struct{}),
	}
	go l.accept()

	logging.Info("Activation channel listening",
		zap.String("addr", ln.Addr().String()),
	)

	return l, nil
}

// Addr returns the bound address of the channel.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Close releases the channel and with it the single-instance lock. Safe to
// call more than once; blocks until the accept loop has exited.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.ln.Close()
	})
	<-l.done
	return err
}

func (l *Listener) accept() {
	defer close(l.done)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			// Listener closed during shutdown
			return
		}
		go l.handleConn(conn)
	}
}

// handleConn reads one JSON payload from a forwarding instance.
func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))

	var opts Options
	if err := json.NewDecoder(conn).Decode(&opts); err != nil {
		logging.Warn("Malformed activation payload",
			zap.String("remote_addr", conn.RemoteAddr().String()),
			zap.Error(err),
		)
		return
	}

	logging.Info("Activation received",
		zap.Int("files", len(opts.Files)),
		zap.Int("magnet_links", len(opts.MagnetLinks)),
	)

	l.handler(opts)
}

// Activate forwards options to the instance holding the activation channel
// on the given loopback port.
func Activate(port int, opts Options) error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), dialTimeout)
	if err != nil {
		return fmt.Errorf("no running instance on activation channel: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))

	if err := json.NewEncoder(conn).Encode(opts); err != nil {
		return fmt.Errorf("failed to forward activation payload: %w", err)
	}

	return nil
}
