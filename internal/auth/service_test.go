package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_VerifyPassword_Plaintext(t *testing.T) {
	svc := NewService("correct-horse-battery-staple")

	t.Run("correct password", func(t *testing.T) {
		assert.NoError(t, svc.VerifyPassword("correct-horse-battery-staple"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyPassword("wrong"), ErrInvalidCredentials)
	})

	t.Run("empty password", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyPassword(""), ErrInvalidCredentials)
	})
}

func TestService_VerifyPassword_Bcrypt(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	svc := NewService(hash)

	t.Run("correct password against hash", func(t *testing.T) {
		assert.NoError(t, svc.VerifyPassword("secret-password"))
	})

	t.Run("wrong password against hash", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyPassword("other-password"), ErrInvalidCredentials)
	})

	t.Run("hash itself is not accepted as password", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyPassword(hash), ErrInvalidCredentials)
	})
}

func TestIsBcryptHash(t *testing.T) {
	assert.True(t, isBcryptHash("$2a$10$abcdefghijklmnopqrstuv"))
	assert.True(t, isBcryptHash("$2b$12$abcdefghijklmnopqrstuv"))
	assert.True(t, isBcryptHash("$2y$10$abcdefghijklmnopqrstuv"))
	assert.False(t, isBcryptHash("plaintext"))
	assert.False(t, isBcryptHash(""))
	assert.False(t, isBcryptHash("$1$md5crypt"))
}
