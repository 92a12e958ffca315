package security

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.StandardClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestTokenVerifier(t *testing.T) {
	key := newKey(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	v := NewTokenVerifier(&key.PublicKey, "auth", "trome", 30*time.Second)
	v.now = func() time.Time { return now }

	valid := jwt.StandardClaims{
		Subject:   "u42",
		Issuer:    "auth",
		Audience:  "trome",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Minute).Unix(),
	}

	sub, err := v.VerifySubject(sign(t, key, valid))
	require.NoError(t, err)
	assert.Equal(t, "u42", sub)

	// в пределах допуска
	skewed := valid
	skewed.ExpiresAt = now.Add(-10 * time.Second).Unix()
	_, err = v.VerifySubject(sign(t, key, skewed))
	assert.NoError(t, err)

	expired := valid
	expired.ExpiresAt = now.Add(-time.Minute).Unix()
	_, err = v.VerifySubject(sign(t, key, expired))
	assert.ErrorIs(t, err, ErrTokenExpired)

	wrongIss := valid
	wrongIss.Issuer = "other"
	_, err = v.VerifySubject(sign(t, key, wrongIss))
	assert.ErrorIs(t, err, ErrInvalidIssuer)

	wrongAud := valid
	wrongAud.Audience = "other"
	_, err = v.VerifySubject(sign(t, key, wrongAud))
	assert.ErrorIs(t, err, ErrInvalidAudience)

	noSub := valid
	noSub.Subject = ""
	_, err = v.VerifySubject(sign(t, key, noSub))
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = v.VerifySubject(sign(t, newKey(t), valid))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.VerifySubject("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
