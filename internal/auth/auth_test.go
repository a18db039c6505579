package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/estatement/internal/config"
)

func newTestIssuer(t *testing.T, secret string, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	iss.now = func() time.Time { return now }
	return iss
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iss := newTestIssuer(t, "s3cret", now)

	token, exp, err := iss.Issue("alice", "ROLE_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "ROLE_ADMIN", claims.Role)
	assert.Equal(t, "estatement", claims.Issuer)
	assert.True(t, claims.IssuedAt.Time.Equal(now))
	assert.True(t, claims.ExpiresAt.Time.Equal(exp))
}

func TestValidate_Rejects(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iss := newTestIssuer(t, "s3cret", now)
	token, _, err := iss.Issue("alice", DefaultRole)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestIssuer(t, "different", now)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestIssuer(t, "s3cret", now.Add(2*time.Hour))
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := iss.Validate("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewIssuer_Errors(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewIssuer("s3cret", 0)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	users := []config.User{
		{Username: "admin", PasswordHash: hash, Role: "ROLE_ADMIN"},
		{Username: "viewer", PasswordHash: hash},
	}

	u, err := Authenticate(users, "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ROLE_ADMIN", u.Role)

	u, err = Authenticate(users, "viewer", "pw")
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, u.Role)

	_, err = Authenticate(users, "admin", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = Authenticate(users, "nobody", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestToken(t *testing.T) {
	var tok Token = "abc"
	assert.Equal(t, "abc", tok.Token())
}
