package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/picotorrent/picoremote/internal/logging"
)

const (
	// Time allowed to complete the WebSocket upgrade after admission
	handshakeTimeout = 10 * time.Second
)

// MessageHandler is the collaborator that owns the application-level
// remote-control protocol carried over an admitted session. The transport
// substrate dispatches every received message to it; errors are logged and
// the session stays open.
type MessageHandler interface {
	HandleMessage(session *Session, messageType int, data []byte) error
}

// NopHandler discards every message. It is the default handler: the
// substrate authenticates and tracks sessions, and message semantics are
// supplied by a higher layer when one exists.
type NopHandler struct{}

// HandleMessage implements MessageHandler by doing nothing.
func (NopHandler) HandleMessage(*Session, int, []byte) error { return nil }

// serveWS is the handler behind the control endpoint. It drives one
// connection through the admission state machine: Connecting (transport and
// TLS complete), Validating (token check), Open (registered in the session
// registry), Closed. Admission failure means the connection is never Open
// and never reaches the registry.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	logging.LogConnection(remoteAddr, "connection_accepted")

	session, err := newSession(nil, remoteAddr)
	if err != nil {
		logging.Error("Failed to create session", zap.Error(err))
		s.admission.deny(w)
		return
	}

	if err := session.transition(StateValidating); err != nil {
		logging.Error("Session state error", zap.Error(err))
		s.admission.deny(w)
		return
	}

	if !s.admission.validate(r) {
		session.close()
		s.metrics.rejectedTotal.Inc()
		logging.LogAdmission(remoteAddr, false)
		s.admission.deny(w)
		return
	}
	logging.LogAdmission(remoteAddr, true)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade writes its own error response
		session.close()
		s.metrics.handshakeErrors.Inc()
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}
	session.conn = conn

	// Open event: the session enters the registry exactly once
	if err := session.transition(StateOpen); err != nil {
		logging.Error("Session state error", zap.Error(err))
		_ = conn.Close()
		return
	}
	s.registry.add(session)
	s.metrics.admittedTotal.Inc()
	s.metrics.activeSessions.Set(float64(s.registry.Count()))
	logging.LogSession(session.ID(), remoteAddr, "session_opened")

	s.readLoop(session)
}

// readLoop pumps messages from an open session to the message handler until
// the client disconnects or the server shuts the connection. Admitted
// sessions have no idle timeout: the control channel is expected to be
// long-lived and low-traffic.
func (s *Server) readLoop(session *Session) {
	defer s.closeSession(session)

	for {
		messageType, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Session read error",
					zap.String("session_id", session.ID()),
					zap.Error(err),
				)
			}
			return
		}

		logging.Debug("Message received",
			zap.String("session_id", session.ID()),
			zap.Int("message_type", messageType),
			zap.Int("length", len(data)),
		)

		if err := s.handler.HandleMessage(session, messageType, data); err != nil {
			logging.Error("Message handler failed",
				zap.String("session_id", session.ID()),
				zap.Error(err),
			)
		}
	}
}

// closeSession fires the close event for a session. The session state
// machine guarantees the event is processed at most once even if shutdown
// and a client disconnect race here.
func (s *Server) closeSession(session *Session) {
	if !session.close() {
		return
	}

	_ = session.conn.Close()
	s.registry.remove(session)
	s.metrics.activeSessions.Set(float64(s.registry.Count()))
	logging.LogSession(session.ID(), session.RemoteAddr(), "session_closed")
}
