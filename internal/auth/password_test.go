package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	for _, password := range []string{"secret", "correct horse battery staple", "ünïcødé", ""} {
		first, err := hasher.Hash(password)
		require.NoError(t, err)
		second, err := hasher.Hash(password)
		require.NoError(t, err)

		assert.NotEqual(t, password, first)
		assert.NotEqual(t, first, second, "salt should differ between calls")
		assert.True(t, hasher.Verify(password, first))
		assert.True(t, hasher.Verify(password, second))
	}
}

func TestBcryptHasher_RejectsOtherPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)

	assert.False(t, hasher.Verify("Secret", hash))
	assert.False(t, hasher.Verify("secret ", hash))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, hasher.Verify("secret", ""))
	assert.False(t, hasher.Verify("secret", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("secret", "$2a$04$short"))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}
