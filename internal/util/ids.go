package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID generates a new hex-based ID with a prefix.
// Format: "prefix_hexstring" (e.g., "usr_a1b2c3d4e5f6...")
func NewID(prefix string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// NewToken generates a short random hex token of n bytes (2n characters).
// Used for commit ids.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
