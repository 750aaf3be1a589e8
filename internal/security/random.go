package security

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns n random bytes as a hex string. Used for JWT jti
// values and organisation join codes.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateJoinCode returns a short random code admitting a user to an
// organisation. A regenerated code replaces the prior one.
func GenerateJoinCode() (string, error) {
	return GenerateToken(6)
}
