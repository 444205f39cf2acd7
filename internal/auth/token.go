package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// KeyLength is the number of hex characters in a token key.
const KeyLength = 40

// GenerateKey returns a fresh random token key.
func GenerateKey() (string, error) {
	b := make([]byte, KeyLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
