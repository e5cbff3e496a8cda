package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

func TestIssueAndValidate_UserScope(t *testing.T) {
	tok, claims, err := auth.IssueToken(auth.ScopeUser, 7, "a@b.co")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	got, err := auth.ValidateToken(tok, auth.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, auth.ScopeUser, got.Scope)

	ttl := got.ExpiresAt.Sub(got.IssuedAt.Time)
	assert.Equal(t, 7*24*time.Hour, ttl)
}

func TestAdminTokenLifetime(t *testing.T) {
	tok, _, err := auth.IssueToken(auth.ScopeAdmin, 0, "ops@shop.in")
	require.NoError(t, err)

	got, err := auth.ValidateToken(tok, auth.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, got.ExpiresAt.Sub(got.IssuedAt.Time))
}

func TestScopesAreNotInterchangeable(t *testing.T) {
	userTok, _, err := auth.IssueToken(auth.ScopeUser, 1, "u@x.io")
	require.NoError(t, err)
	adminTok, _, err := auth.IssueToken(auth.ScopeAdmin, 0, "ops@x.io")
	require.NoError(t, err)

	_, err = auth.ValidateToken(userTok, auth.ScopeAdmin)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = auth.ValidateToken(adminTok, auth.ScopeUser)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := auth.ValidateToken("not.a.jwt", auth.ScopeUser)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordPolicy(t *testing.T) {
	cases := map[string]string{
		"Short1!":       "Password must be at least 8 characters",
		"lowercase1!":   "Password must contain at least one uppercase letter",
		"NoDigitsHere!": "Password must contain at least one number",
		"NoSymbol123":   "Password must contain at least one special character",
		"Valid#Pass1":   "",
	}
	cases["Valid#Pass1"+strings.Repeat("x", 61)] = ""
	cases["Valid#Pass1"+strings.Repeat("x", 62)] = "Password must be at most 72 characters"
	for pw, want := range cases {
		assert.Equal(t, want, auth.PasswordPolicyError(pw), pw)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("Valid#Pass1")
	require.NoError(t, err)

	assert.NotEqual(t, "Valid#Pass1", hash)
	assert.True(t, auth.CheckPassword(hash, "Valid#Pass1"))
	assert.False(t, auth.CheckPassword(hash, "valid#pass1"))
}

func TestNewVerificationToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	vt, err := auth.NewVerificationToken(now)
	require.NoError(t, err)

	assert.Len(t, vt.Raw, 40)
	assert.Equal(t, crypt.Hash(vt.Raw), vt.Digest)
	assert.Equal(t, now.Add(24*time.Hour), vt.ExpiresAt)
}
