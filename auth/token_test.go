package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("super-secret", time.Hour)
	tok, exp, err := m.Issue("ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
	assert.Len(t, strings.Split(tok, "."), 3, "a JWT has three segments")

	sub, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sub)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Minute)
	m.now = fixedClock(issuedAt)

	tok, _, err := m.Issue("u@example.com")
	require.NoError(t, err)

	m.now = fixedClock(issuedAt.Add(time.Minute))
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_ZeroTTLIsRejectedImmediately(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", 0)
	tok, _, err := m.Issue("u@example.com")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenManager("right-secret", time.Hour).Issue("u@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Malformed(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestTokenManager_RejectsOtherAlgorithmsAndMissingClaims(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	m := NewTokenManager(string(secret), time.Hour)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: "u@example.com", Issuer: issuer, ExpiresAt: exp,
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "u@example.com", Issuer: issuer,
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = m.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: issuer, ExpiresAt: exp,
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = m.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
