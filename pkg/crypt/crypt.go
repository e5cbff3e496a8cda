// Package crypt holds the hashing and signing primitives used by the
// storefront: one-time token generation, token digests at rest and
// HMAC-SHA256 signatures for payment callbacks.
package crypt

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RandomHex returns n random bytes, hex encoded (2n characters).
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypt: random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash returns the SHA-256 hex digest of input. Not for passwords.
func Hash(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// HMACSHA256Hex signs message with key and returns the hex digest.
func HMACSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMACSHA256Hex reports whether signature is the hex HMAC of message.
// Comparison is constant time.
func VerifyHMACSHA256Hex(key, message, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hmac.Equal(got, mac.Sum(nil))
}
