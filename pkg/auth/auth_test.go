package auth

import (
	"testing"
	"time"

	"github.com/example/eshop/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(config.AuthConfig{
		Secret:      "test-secret",
		TokenExpiry: time.Hour,
		BcryptCost:  bcrypt.MinCost,
	})
}

func TestPasswordRoundTrip(t *testing.T) {
	a := newTestAuthenticator()

	hash, err := a.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, a.CheckPassword(hash, "s3cret!"))
	assert.False(t, a.CheckPassword(hash, "wrong"))
}

func TestIssueAndParseToken(t *testing.T) {
	a := newTestAuthenticator()

	token, err := a.IssueToken("65f1c0a2b3d4e5f6a7b8c9d0", true)
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "65f1c0a2b3d4e5f6a7b8c9d0", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseToken_Rejects(t *testing.T) {
	a := newTestAuthenticator()
	token, err := a.IssueToken("user", false)
	require.NoError(t, err)

	other := NewAuthenticator(config.AuthConfig{Secret: "other", TokenExpiry: time.Hour})
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
