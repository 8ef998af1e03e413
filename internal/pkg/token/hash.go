// internal/pkg/token/hash.go
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the SHA-256 digest of a raw credential, hex-encoded. Only the
// digest is ever persisted; a leaked row cannot be replayed as a credential.
func Hash(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// HashEqual compares a raw credential against a stored digest in constant time.
func HashEqual(raw, storedHash string) bool {
	providedHash := Hash(raw)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
