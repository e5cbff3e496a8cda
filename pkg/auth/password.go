// Package auth issues scoped session tokens and handles credential hashing
// and the password policy.
package auth

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

// PasswordCost matches the cost used for existing hashes.
const PasswordCost = 10

// VerificationTTL is how long an email verification link stays valid.
const VerificationTTL = 24 * time.Hour

const passwordSymbols = "!@#$%^&*"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordPolicyError returns the first policy rule plain breaks, or "".
func PasswordPolicyError(plain string) string {
	switch {
	case len(plain) < 8:
		return "Password must be at least 8 characters"
	case len(plain) > MaxPasswordBytes:
		return "Password must be at most 72 characters"
	case !strings.ContainsFunc(plain, func(r rune) bool { return r >= 'A' && r <= 'Z' }):
		return "Password must contain at least one uppercase letter"
	case !strings.ContainsFunc(plain, func(r rune) bool { return r >= '0' && r <= '9' }):
		return "Password must contain at least one number"
	case !strings.ContainsAny(plain, passwordSymbols):
		return "Password must contain at least one special character"
	}
	return ""
}

// VerificationToken is a fresh single-use email token. Raw goes in the
// email link; Digest is what gets stored.
type VerificationToken struct {
	Raw       string
	Digest    string
	ExpiresAt time.Time
}

// NewVerificationToken creates a 20-byte random token valid for VerificationTTL.
func NewVerificationToken(now time.Time) (VerificationToken, error) {
	raw, err := crypt.RandomHex(20)
	if err != nil {
		return VerificationToken{}, err
	}
	return VerificationToken{
		Raw:       raw,
		Digest:    crypt.Hash(raw),
		ExpiresAt: now.Add(VerificationTTL),
	}, nil
}
