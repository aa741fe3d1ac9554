package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyPasswordHash returns a bcrypt hash of a random secret at the same
// cost as HashPassword. Checking a password against it takes as long as a
// real check and never succeeds.
func DummyPasswordHash() string {
	dummyOnce.Do(func() {
		secret, err := GenerateRandomString(32)
		if err != nil {
			secret = "unreachable"
		}
		dummyHash, _ = HashPassword(secret)
	})
	return dummyHash
}

// GenerateRandomString produces a cryptographically random base64url string of n bytes.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateEmailToken generates a one-time token for confirmation and
// password-reset links (32 bytes = 43 chars base64url).
func GenerateEmailToken() (string, error) {
	return GenerateRandomString(32)
}

// TokenDigest returns the hex SHA-256 of a one-time token. Only digests are
// used as storage keys so a leaked store does not leak usable links.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
