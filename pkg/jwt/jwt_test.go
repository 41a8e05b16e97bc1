package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	symmetric, err := NewSymmetric([]byte("secret"), "refunds")
	require.NoError(t, err)
	asymmetric, err := NewAsymmetric(key, &key.PublicKey, "refunds")
	require.NoError(t, err)

	for name, m := range map[string]*Manager{"HS256": symmetric, "RS256": asymmetric} {
		t.Run(name, func(t *testing.T) {
			token, err := m.Generate(map[string]interface{}{"user_id": "u-1"}, WithTTL(time.Minute), WithSubject("u-1"))
			require.NoError(t, err)

			claims, err := m.ParseClaims(token)
			require.NoError(t, err)
			assert.Equal(t, "u-1", claims.Subject)
			assert.Equal(t, "refunds", claims.Issuer)
			assert.Equal(t, "u-1", claims.Payload["user_id"])
		})
	}
}

func TestManager_Parse(t *testing.T) {
	m, err := NewSymmetric([]byte("secret"), "refunds")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		token, err := m.Generate(nil, WithExpiresAt(time.Now().Add(-time.Hour)))
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("within leeway", func(t *testing.T) {
		token, err := m.Generate(nil, WithExpiresAt(time.Now().Add(-5*time.Second)))
		require.NoError(t, err)
		payload, err := m.Parse(token)
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("not yet valid", func(t *testing.T) {
		token, err := m.Generate(nil, WithNotBefore(time.Now().Add(time.Hour)))
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenNotValidYet)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewSymmetric([]byte("other"), "refunds")
		require.NoError(t, err)
		token, err := other.Generate(nil)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other, err := NewSymmetric([]byte("secret"), "billing")
		require.NoError(t, err)
		token, err := other.Generate(nil)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("algorithm mismatch", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		rs, err := NewAsymmetric(key, &key.PublicKey, "refunds")
		require.NoError(t, err)
		token, err := rs.Generate(nil)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewSymmetric(nil, "refunds")
	assert.Error(t, err)

	_, err = NewAsymmetric(nil, nil, "refunds")
	assert.Error(t, err)
}
