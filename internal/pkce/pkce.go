// Package pkce generates Proof Key for Code Exchange parameters (RFC 7636).
//
// A verifier is 64 bytes from [crypto/rand], hex encoded to 128 characters. The challenge is the
// unpadded base64url SHA-256 of the verifier, computed with [oauth2.S256ChallengeFromVerifier].
package pkce

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// MethodS256 is the only challenge method produced here.
const MethodS256 = "S256"

const (
	verifierBytes = 64
	MinLength     = 43
	MaxLength     = 128
)

// Reader is the randomness source. Tests swap it to simulate failure.
var Reader io.Reader = rand.Reader

// Pair binds a verifier to the challenge sent in the authorization request.
type Pair struct {
	Verifier  string
	Challenge string
	Method    string
}

// New creates a fresh verifier and its S256 challenge.
func New() (*Pair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	return &Pair{Verifier: verifier, Challenge: DeriveChallenge(verifier), Method: MethodS256}, nil
}

// GenerateVerifier returns a 128 character hex verifier.
//
// An error from the random source is returned as is; there is no fallback.
func GenerateVerifier() (string, error) {
	buf := make([]byte, verifierBytes)
	if _, err := io.ReadFull(Reader, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for PKCE verifier: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveChallenge returns base64url(sha256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// ValidVerifier reports whether v has a legal length and only unreserved characters.
func ValidVerifier(v string) bool {
	if len(v) < MinLength || len(v) > MaxLength {
		return false
	}
	for i := 0; i < len(v); i++ {
		if !unreserved(v[i]) {
			return false
		}
	}
	return true
}

func unreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
