package server

import (
	"testing"
)

func TestConnStateString(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateValidating, "validating"},
		{StateOpen, "open"},
		{StateClosed, "closed"},
		{ConnState(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ConnState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestSessionTransitions(t *testing.T) {
	session, err := newSession(nil, "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}

	if session.State() != StateConnecting {
		t.Fatalf("new session state = %v, want connecting", session.State())
	}

	// Skipping validation is structurally impossible
	if err := session.transition(StateOpen); err == nil {
		t.Error("connecting -> open must be rejected (admission precedes open)")
	}

	if err := session.transition(StateValidating); err != nil {
		t.Fatalf("connecting -> validating error = %v", err)
	}
	if err := session.transition(StateOpen); err != nil {
		t.Fatalf("validating -> open error = %v", err)
	}

	// Moving backwards is illegal
	if err := session.transition(StateValidating); err == nil {
		t.Error("open -> validating must be rejected")
	}
}

func TestSessionCloseIsTerminalAndOnce(t *testing.T) {
	session, err := newSession(nil, "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}

	if !session.close() {
		t.Error("first close() should report the transition")
	}
	if session.close() {
		t.Error("second close() must be a no-op")
	}
	if session.State() != StateClosed {
		t.Errorf("state after close = %v, want closed", session.State())
	}

	// No transition leaves Closed
	if err := session.transition(StateValidating); err == nil {
		t.Error("closed is terminal; transitions out must fail")
	}
}

func TestSessionCloseFromValidating(t *testing.T) {
	session, err := newSession(nil, "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	if err := session.transition(StateValidating); err != nil {
		t.Fatalf("transition error = %v", err)
	}

	// Rejected admission closes without ever opening
	if !session.close() {
		t.Error("close from validating should succeed")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, err := newSession(nil, "127.0.0.1:1")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	b, err := newSession(nil, "127.0.0.1:2")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}

	if a.ID() == b.ID() {
		t.Error("session ids must be unique")
	}
	if len(a.ID()) != 26 {
		t.Errorf("session id length = %d, want 26 (ULID)", len(a.ID()))
	}
}

func TestRegistryMembership(t *testing.T) {
	registry := NewRegistry()

	session, err := newSession(nil, "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}

	if registry.Count() != 0 {
		t.Fatalf("new registry Count() = %d, want 0", registry.Count())
	}

	registry.add(session)
	if registry.Count() != 1 {
		t.Errorf("Count() after add = %d, want 1", registry.Count())
	}

	// A handle is a member at most once
	registry.add(session)
	if registry.Count() != 1 {
		t.Errorf("Count() after duplicate add = %d, want 1", registry.Count())
	}

	registry.remove(session)
	if registry.Count() != 0 {
		t.Errorf("Count() after remove = %d, want 0", registry.Count())
	}

	// Removing again is a no-op
	registry.remove(session)
	if registry.Count() != 0 {
		t.Errorf("Count() after duplicate remove = %d, want 0", registry.Count())
	}
}
