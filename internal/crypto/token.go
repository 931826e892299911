package crypto

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken digests a refresh token for at-rest storage so a database leak
// never exposes usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
