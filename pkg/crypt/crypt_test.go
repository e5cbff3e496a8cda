package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

func TestRandomHex(t *testing.T) {
	a, err := crypt.RandomHex(20)
	require.NoError(t, err)
	b, err := crypt.RandomHex(20)
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, crypt.Hash("abc"), crypt.Hash("abc"))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		crypt.Hash("abc"))
}

func TestHMAC_RoundTrip(t *testing.T) {
	sig := crypt.HMACSHA256Hex("secret", "order_1|pay_1")

	assert.True(t, crypt.VerifyHMACSHA256Hex("secret", "order_1|pay_1", sig))
	assert.False(t, crypt.VerifyHMACSHA256Hex("secret", "order_1|pay_2", sig))
	assert.False(t, crypt.VerifyHMACSHA256Hex("other", "order_1|pay_1", sig))
	assert.False(t, crypt.VerifyHMACSHA256Hex("secret", "order_1|pay_1", "not-hex"))
}
