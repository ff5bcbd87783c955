package server

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// ConnState is the lifecycle state of a single control-channel connection.
// Transitions are strictly forward: Connecting -> Validating -> Open ->
// Closed, with Closed reachable from any earlier state. A connection that
// fails admission goes Validating -> Closed and never becomes Open.
type ConnState int

const (
	// StateConnecting - transport accepted, TLS handshake in progress or done
	StateConnecting ConnState = iota
	// StateValidating - admission check running against the handshake headers
	StateValidating
	// StateOpen - admitted and registered; messages may flow
	StateOpen
	// StateClosed - terminal; entered at most once
	StateClosed
)

// String returns a human-readable state name
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateValidating:
		return "validating"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session represents one admitted control-channel connection. It is owned
// by the registry from open to close and holds no references into
// application state beyond its transport handle.
type Session struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	openedAt   time.Time

	mu    sync.Mutex
	state ConnState
}

// newSession creates a Session in the Connecting state.
func newSession(conn *websocket.Conn, remoteAddr string) (*Session, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	return &Session{
		id:         id.String(),
		remoteAddr: remoteAddr,
		conn:       conn,
		openedAt:   time.Now(),
		state:      StateConnecting,
	}, nil
}

// ID returns the session's ULID (26 chars, sortable by open time).
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the peer address of the underlying connection.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// OpenedAt returns the time the transport connection was accepted.
func (s *Session) OpenedAt() time.Time {
	return s.openedAt
}

// State returns the current lifecycle state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send writes a message to the peer. Only open sessions can send; a
// session that has not been admitted, or has already closed, has no
// usable transport.
func (s *Session) Send(messageType int, data []byte) error {
	s.mu.Lock()
	if s.state != StateOpen {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot send on %s session", state)
	}
	conn := s.conn
	s.mu.Unlock()

	return conn.WriteMessage(messageType, data)
}

// transition advances the state machine. Only forward transitions are
// legal; anything else indicates a callback wiring bug and is returned as
// an error rather than silently tolerated.
func (s *Session) transition(to ConnState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	legal := to == StateClosed && s.state != StateClosed ||
		s.state == StateConnecting && to == StateValidating ||
		s.state == StateValidating && to == StateOpen

	if !legal {
		return fmt.Errorf("illegal session transition %s -> %s", s.state, to)
	}

	s.state = to
	return nil
}

// close moves the session to Closed, reporting whether this call was the
// one that performed the transition. Close is terminal and fires at most
// once per session no matter how many paths race to it.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

// Registry tracks the set of currently open, authenticated sessions.
// A session is a member at most once; membership starts at the open event
// and ends at the close event. Rejected handshakes never reach the
// registry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// add inserts a session at its open event.
func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// remove deletes a session at its close event. Removing an unknown id is a
// no-op, which keeps close idempotent.
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.ID())
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot returns the live sessions at a point in time.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// closeAll force-closes every live session during server shutdown.
func (r *Registry) closeAll() {
	for _, s := range r.Snapshot() {
		_ = s.conn.Close()
	}
}
