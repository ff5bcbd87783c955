package server

import (
	"net/http"

	"github.com/picotorrent/picoremote/internal/security"
)

// TokenHeader is the handshake header carrying the client's copy of the
// shared access token.
const TokenHeader = "X-PicoTorrent-Token"

// admission validates connection attempts against the provisioned access
// token. It is the sole authentication gate: a connection admitted here is
// trusted for its entire lifetime, with no per-message re-authentication.
type admission struct {
	token string
}

// validate checks the handshake request headers. The header must be present,
// non-empty and exactly equal to the provisioned token; comparison runs in
// constant time. Called synchronously before the WebSocket upgrade, so a
// rejected attempt never produces an open event.
func (a *admission) validate(r *http.Request) bool {
	supplied := r.Header.Get(TokenHeader)
	if supplied == "" {
		return false
	}
	return security.TokensEqual(a.token, supplied)
}

// deny fails the handshake without leaking why. A missing header, an empty
// header and a wrong token all produce the same response, so a probing
// client learns nothing it can use as a token-guessing oracle.
func (a *admission) deny(w http.ResponseWriter) {
	http.Error(w, "handshake denied", http.StatusForbidden)
}
