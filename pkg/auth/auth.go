// Package auth provides the admin credential check used at login.
//
// The state machine only ever sees the Verifier interface, so the shared
// secret scheme can be replaced without touching the dispatcher.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, shared with the digest derivation at startup.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Verifier answers whether a login-supplied secret grants admin rights.
type Verifier interface {
	Verify(secret string) bool
}

// argonVerifier holds an argon2id digest of the configured secret so the
// plaintext is not kept in process memory after startup.
type argonVerifier struct {
	salt   []byte
	digest []byte
}

// NewVerifier builds a Verifier for the configured shared secret.
// An empty secret disables admin logins entirely.
func NewVerifier(secret string) (Verifier, error) {
	if secret == "" {
		return denyAll{}, nil
	}
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("auth: generate salt: %w", err)
	}
	return &argonVerifier{
		salt:   salt,
		digest: argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
	}, nil
}

func (v *argonVerifier) Verify(secret string) bool {
	if secret == "" {
		return false
	}
	candidate := argon2.IDKey([]byte(secret), v.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(candidate, v.digest) == 1
}

// denyAll rejects every secret; used when no admin secret is configured.
type denyAll struct{}

func (denyAll) Verify(string) bool { return false }
