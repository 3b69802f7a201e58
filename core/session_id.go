package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionTokenLength is the number of random bytes in a session token.
// 32 bytes provides 256 bits of entropy.
const SessionTokenLength = 32

// GenerateSessionToken generates a cryptographically secure random session
// token: a base64 URL-encoded string of 32 random bytes (43 characters),
// safe for use in Authorization headers without further encoding.
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}
