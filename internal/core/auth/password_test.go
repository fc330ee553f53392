package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_Hash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	t.Run("embeds cost and salt", func(t *testing.T) {
		hash, err := h.Hash("pw1")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
		assert.NotContains(t, hash, "pw1")
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		h1, err := h.Hash("samepassword")
		require.NoError(t, err)
		h2, err := h.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
		assert.True(t, h.Verify("samepassword", h1))
		assert.True(t, h.Verify("samepassword", h2))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := h.Hash("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("rejects password over 72 bytes", func(t *testing.T) {
		_, err := h.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestNewHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
}

func TestHasher_Verify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("correct horse ", hash))
	assert.False(t, h.Verify("", hash))

	for _, corrupt := range []string{"", "not-a-hash", "$2a$10$short", hash[:len(hash)-5]} {
		assert.False(t, h.Verify("correct horse", corrupt), "corrupt digest %q must not verify", corrupt)
	}
}
