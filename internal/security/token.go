package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/picotorrent/picoremote/internal/config"
)

const (
	// TokenLength is the length of a generated access token.
	TokenLength = 20

	// tokenAlphabet is the set of characters a generated token is drawn
	// from. 62 symbols over 20 positions is ~119 bits of entropy.
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GetOrCreateToken returns the configured access token, generating and
// persisting one if the configuration does not hold a token yet. It is
// called once, at server construction; once persisted the token is stable
// across restarts.
//
// A failure to draw entropy or to persist the token is returned as an error:
// the server must never start with an empty or predictable token.
func GetOrCreateToken(store *config.Store) (string, error) {
	if token := store.Snapshot().AccessToken; token != "" {
		return token, nil
	}

	token, err := GenerateToken(TokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	err = store.Update(func(s *config.Settings) {
		s.AccessToken = token
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist access token: %w", err)
	}

	return token, nil
}

// GenerateToken returns a cryptographically random string of n characters
// drawn from the token alphabet.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = TokenLength
	}

	max := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("entropy source unavailable: %w", err)
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}

	return string(out), nil
}

// TokensEqual compares a client-supplied token against the provisioned one
// in constant time, so timing differences don't leak how much of a guessed
// token matched.
func TokensEqual(provisioned, supplied string) bool {
	if len(provisioned) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provisioned), []byte(supplied)) == 1
}
