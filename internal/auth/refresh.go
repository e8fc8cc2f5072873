package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Refresh token format: rt_{prefix}_{secret}
// Example: rt_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d
const (
	RefreshPrefixLen = 6  // hex encoded 3 bytes
	RefreshSecretLen = 64 // hex encoded 32 bytes
)

var (
	// ErrInvalidRefreshFormat indicates the refresh token format is invalid.
	ErrInvalidRefreshFormat = errors.New("invalid refresh token format")

	refreshFormatRegex = regexp.MustCompile(`^rt_([a-f0-9]{6})_([a-f0-9]{64})$`)
)

// RefreshToken is a newly generated opaque refresh token.
type RefreshToken struct {
	Plaintext string // returned to the client once
	Hash      string // stored
	Prefix    string // safe to log
}

// GenerateRefreshToken creates a random refresh token.
func GenerateRefreshToken() (*RefreshToken, error) {
	prefixBytes := make([]byte, RefreshPrefixLen/2)
	if _, err := rand.Read(prefixBytes); err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secretBytes := make([]byte, RefreshSecretLen/2)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	prefix := hex.EncodeToString(prefixBytes)
	plaintext := "rt_" + prefix + "_" + hex.EncodeToString(secretBytes)

	return &RefreshToken{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
		Prefix:    prefix,
	}, nil
}

// ValidateRefreshFormat checks the token shape without any lookup.
func ValidateRefreshFormat(token string) error {
	if !refreshFormatRegex.MatchString(token) {
		return ErrInvalidRefreshFormat
	}
	return nil
}

// RefreshPrefix returns the loggable prefix of a well-formed token.
func RefreshPrefix(token string) string {
	m := refreshFormatRegex.FindStringSubmatch(token)
	if m == nil {
		return ""
	}
	return m[1]
}

// HashToken returns the hex SHA-256 of a high-entropy token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
