package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey hashes a raw API key for storage in internal/config or
// pkg/store; the raw key is never persisted.
func HashAPIKey(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing api key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether raw matches hash produced by HashAPIKey.
func VerifyAPIKey(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// VerifyAPIKeyAgainstAny reports whether raw matches any of hashes,
// the set configured in internal/config.AuthConfig.APIKeyHashes.
func VerifyAPIKeyAgainstAny(hashes []string, raw string) bool {
	for _, h := range hashes {
		if VerifyAPIKey(h, raw) {
			return true
		}
	}
	return false
}
