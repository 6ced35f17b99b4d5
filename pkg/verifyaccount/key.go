package verifyaccount

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const keyBytes = 32

// KeyGenerator returns a fresh opaque key value.
type KeyGenerator func() (string, error)

// GenerateKey generates a cryptographically secure random key
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
