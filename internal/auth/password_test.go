package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, VerifyPassword(hash, "admin123"))
	assert.False(t, VerifyPassword(hash, "admin124"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestVerifyPasswordRejectsBadHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "admin123"))
}
