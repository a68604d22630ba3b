package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/yukikurage/collab-task-api/internal/constants"
)

// GenerateResetToken returns a random hex token and the sha256 digest that
// is stored in place of the token.
func GenerateResetToken() (token, digest string, err error) {
	bytes := make([]byte, constants.ResetTokenByteCount)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = hex.EncodeToString(bytes)
	return token, HashToken(token), nil
}

// HashToken returns the hex sha256 digest of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
