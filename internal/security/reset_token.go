package security

import (
	"crypto/rand"
	"encoding/hex"
)

// resetTokenBytes gives 256 bits of entropy, hex-encoded to 64 characters.
const resetTokenBytes = 32

// NewResetToken returns a cryptographically random, single-use reset token.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)

	_, err := rand.Read(buf)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}
