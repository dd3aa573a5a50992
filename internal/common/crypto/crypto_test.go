package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("waffles123")

	require.NoError(t, err)
	assert.NotEqual(t, "waffles123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("waffles123")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("waffles123", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("waffles123", "not-a-hash"))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("waffles123")
	require.NoError(t, err)
	b, err := HashPassword("waffles123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRandomString(t *testing.T) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	s := RandomString(charset, 6)
	assert.Len(t, s, 6)
	for _, c := range s {
		assert.Contains(t, charset, string(c))
	}
}

func TestRandomString_ZeroLength(t *testing.T) {
	assert.Equal(t, "", RandomString("ABC", 0))
}
