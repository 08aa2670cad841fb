package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateID produces a session identifier with 256 bits of entropy.
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
