package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// HashPassword computes the password digest expected by a Blynk-family
// server: Base64(SHA-256(password || SHA-256(lowercase(email)))).
//
// The result is pure and stateless; it performs no network or file I/O.
func HashPassword(password, email string) string {
	salt := sha256.Sum256([]byte(strings.ToLower(email)))

	h := sha256.New()
	h.Write([]byte(password))
	h.Write(salt[:])
	digest := h.Sum(nil)

	return base64.StdEncoding.EncodeToString(digest)
}
