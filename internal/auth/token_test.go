package auth_test

import (
	"testing"
	"time"

	"digitalwallet/internal/auth"

	"github.com/stretchr/testify/assert"
)

func TestToken_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Minute)

	token, err := tm.Generate("alice")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := tm.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestToken_Expired(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate("alice")
	assert.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestToken_Tampered(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Minute)

	token, err := tm.Generate("alice")
	assert.NoError(t, err)

	_, err = tm.Verify(token + "x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestToken_WrongSecret(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Minute)
	other := auth.NewTokenManager("other-secret", time.Minute)

	token, err := tm.Generate("alice")
	assert.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	assert.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, auth.CheckPassword(hash, "secret1"))
	assert.False(t, auth.CheckPassword(hash, "secret2"))
}
